package model

import "time"

// ActivityEvent is one recorded account action. It feeds usage analytics
// only and never takes part in bid computation.
type ActivityEvent struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Action    string    `json:"action"`
	Page      *string   `json:"page,omitempty"`
	At        time.Time `json:"at"`
}
