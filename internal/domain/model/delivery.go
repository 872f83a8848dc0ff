package model

import "time"

// Delivery asks for one request summary email to be sent to one recipient.
type Delivery struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	To              string    `json:"to"`
	IncludeContacts bool      `json:"include_contacts"`
	CreatedAt       time.Time `json:"created_at"`
}
