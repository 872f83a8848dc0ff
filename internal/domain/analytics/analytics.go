// Package analytics computes population rollups for the operator dashboard.
//
// Rollup is a pure function of its inputs and the explicit now. Malformed
// records never abort it; they are counted under an "other" bucket or left
// out, and listed in Snapshot.Skipped.
package analytics

import (
	"time"

	"github.com/okian/tenderdesk/internal/domain/model"
)

// AccountCounts groups accounts by role and flags.
type AccountCounts struct {
	Total      int                `json:"total"`
	ByRole     map[model.Role]int `json:"by_role"`
	Verified   int                `json:"verified"`
	Unverified int                `json:"unverified"`
	Admins     int                `json:"admins"`
}

// RequestCounts groups requests by stored status and by display bucket.
type RequestCounts struct {
	Total    int                         `json:"total"`
	ByStatus map[model.RequestStatus]int `json:"by_status"`
	Buckets  map[Bucket]int              `json:"buckets"`
	// OpenPastDeadline counts open requests displayed as expired.
	OpenPastDeadline  int `json:"open_past_deadline"`
	CreatedByOperator int `json:"created_by_operator"`
}

// SubscriptionCounts groups subscriptions by stored status.
type SubscriptionCounts struct {
	Total        int                              `json:"total"`
	ByStatus     map[model.SubscriptionStatus]int `json:"by_status"`
	LapsedTrials int                              `json:"lapsed_trials"`
}

// Skip names a record that was not counted normally.
type Skip struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Snapshot is the result of one rollup.
type Snapshot struct {
	At            time.Time          `json:"at"`
	Accounts      AccountCounts      `json:"accounts"`
	Requests      RequestCounts      `json:"requests"`
	Subscriptions SubscriptionCounts `json:"subscriptions"`
	Activity      ActivityCounts     `json:"activity"`
	Skipped       []Skip             `json:"skipped,omitempty"`
}

// Rollup aggregates the whole population at now.
func Rollup(
	accounts []model.Account,
	requests []model.SourcingRequest,
	subscriptions []model.Subscription,
	events []model.ActivityEvent,
	now time.Time,
	opts ...Option,
) Snapshot {
	o := buildOptions(opts)
	snap := Snapshot{
		At: now,
		Accounts: AccountCounts{
			ByRole: make(map[model.Role]int),
		},
		Requests: RequestCounts{
			ByStatus: make(map[model.RequestStatus]int),
			Buckets:  make(map[Bucket]int),
		},
		Subscriptions: SubscriptionCounts{
			ByStatus: make(map[model.SubscriptionStatus]int),
		},
	}

	for _, a := range accounts {
		if o.excludes(a.ID) {
			continue
		}
		snap.countAccount(a)
	}

	for _, r := range requests {
		if r.RequesterID != nil && o.excludes(*r.RequesterID) {
			continue
		}
		snap.countRequest(r, now)
	}

	for _, s := range subscriptions {
		if o.excludes(s.AccountID) {
			continue
		}
		snap.Subscriptions.Total++
		snap.Subscriptions.ByStatus[s.Status]++
		if s.TrialLapsed(now) {
			snap.Subscriptions.LapsedTrials++
		}
	}

	kept := make([]model.ActivityEvent, 0, len(events))
	for _, e := range events {
		switch {
		case o.excludes(e.AccountID):
		case e.AccountID == "":
			snap.skip("event", e.ID, "missing account")
		case e.At.IsZero():
			snap.skip("event", e.ID, "missing timestamp")
		default:
			kept = append(kept, e)
		}
	}
	snap.Activity = countActivity(kept, WindowsAt(now))

	return snap
}

func (s *Snapshot) countAccount(a model.Account) {
	s.Accounts.Total++
	role := a.Role
	if !role.Valid() {
		role = RoleOther
		s.skip("account", a.ID, "unknown role "+string(a.Role))
	}
	s.Accounts.ByRole[role]++
	if a.Verified {
		s.Accounts.Verified++
	} else {
		s.Accounts.Unverified++
	}
	if a.Admin {
		s.Accounts.Admins++
	}
}

func (s *Snapshot) countRequest(r model.SourcingRequest, now time.Time) {
	s.Requests.Total++
	s.Requests.ByStatus[r.Status]++
	b := BucketOf(r.Status)
	if b == BucketOther {
		s.skip("request", r.ID, "unknown status "+string(r.Status))
	}
	s.Requests.Buckets[b]++
	if r.Expired(now) {
		s.Requests.OpenPastDeadline++
	}
	if r.CreatedByOperator() {
		s.Requests.CreatedByOperator++
	}
}

func (s *Snapshot) skip(kind, id, reason string) {
	s.Skipped = append(s.Skipped, Skip{Kind: kind, ID: id, Reason: reason})
}
