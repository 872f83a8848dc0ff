package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
)

// MemoryStore keeps every record in process memory.
type MemoryStore struct {
	mu            sync.RWMutex
	requests      map[string]model.SourcingRequest
	items         map[string][]model.RequestedLineItem
	bids          map[string][]model.VendorBid
	accounts      map[string]model.Account
	accountOrder  []string
	subscriptions []model.Subscription
	activity      []model.ActivityEvent
	catalog       catalog.Map
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]model.SourcingRequest),
		items:    make(map[string][]model.RequestedLineItem),
		bids:     make(map[string][]model.VendorBid),
		accounts: make(map[string]model.Account),
		catalog:  make(catalog.Map),
	}
}

// LoadSeed reads a seed file into a new store.
func LoadSeed(path string) (*MemoryStore, error) {
	seed, err := ReadSeed(path)
	if err != nil {
		return nil, err
	}
	s := NewMemoryStore()
	s.Apply(seed)
	return s, nil
}

// Apply adds every record of seed. Records with an existing id replace the
// stored ones; bid lines are attached to their bid.
func (s *MemoryStore) Apply(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range seed.Requests {
		s.requests[r.ID] = r
	}
	for _, it := range seed.Items {
		s.items[it.RequestID] = append(s.items[it.RequestID], it)
	}
	for _, b := range seed.Bids {
		b.Lines = slices.Clone(b.Lines)
		for i := range b.Lines {
			b.Lines[i].BidID = b.ID
		}
		s.bids[b.RequestID] = append(s.bids[b.RequestID], b)
	}
	for _, a := range seed.Accounts {
		if _, ok := s.accounts[a.ID]; !ok {
			s.accountOrder = append(s.accountOrder, a.ID)
		}
		s.accounts[a.ID] = a
	}
	s.subscriptions = append(s.subscriptions, seed.Subscriptions...)
	s.activity = append(s.activity, seed.Activity...)
	for id, d := range seed.Catalog {
		s.catalog[id] = d
	}
}

func (s *MemoryStore) GetRequest(_ context.Context, id string) (model.SourcingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return model.SourcingRequest{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRequests(_ context.Context, f RequestFilter) ([]model.SourcingRequest, error) {
	if f.Limit < 0 {
		return nil, ErrInvalidFilter
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SourcingRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
			continue
		}
		if f.Region != "" && r.Region != f.Region {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) ListItems(_ context.Context, requestID string) ([]model.RequestedLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items[requestID]), nil
}

func (s *MemoryStore) ListBids(_ context.Context, requestID string) ([]model.VendorBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.bids[requestID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) AccountsByID(_ context.Context, ids []string) (map[string]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *MemoryStore) ListSubscriptions(_ context.Context) ([]model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subscriptions), nil
}

func (s *MemoryStore) ListActivity(_ context.Context, since time.Time) ([]model.ActivityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ActivityEvent, 0, len(s.activity))
	for _, e := range s.activity {
		if !since.IsZero() && e.At.Before(since) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (s *MemoryStore) Descriptors(_ context.Context, catalogIDs []string) (catalog.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(catalog.Map, len(catalogIDs))
	for _, id := range catalogIDs {
		if d, ok := s.catalog[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}
