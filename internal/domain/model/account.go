package model

import "time"

type (
	Role               string // Account role
	SubscriptionStatus string // Stored subscription status
)

const (
	RoleRequester Role = "requester"
	RoleVendor    Role = "vendor"

	SubscriptionTrial          SubscriptionStatus = "trial"
	SubscriptionActive         SubscriptionStatus = "active"
	SubscriptionExpired        SubscriptionStatus = "expired"
	SubscriptionPendingPayment SubscriptionStatus = "pending_payment"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleVendor
}

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionTrial, SubscriptionActive, SubscriptionExpired, SubscriptionPendingPayment:
		return true
	default:
		return false
	}
}

// Account is a marketplace participant.
type Account struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	Admin     bool      `json:"admin"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
}

// DisplayName returns the account name, falling back to its id.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Subscription belongs to one account.
type Subscription struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	Status        SubscriptionStatus `json:"status"`
	TrialEndsAt   time.Time          `json:"trial_ends_at"`
	EndsAt        *time.Time         `json:"ends_at,omitempty"`
	PaymentStatus *string            `json:"payment_status,omitempty"`
}

// TrialLapsed reports whether a trial subscription's trial period ended before now.
func (s Subscription) TrialLapsed(now time.Time) bool {
	return s.Status == SubscriptionTrial && !s.TrialEndsAt.IsZero() && s.TrialEndsAt.Before(now)
}
