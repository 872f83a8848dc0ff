package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/shopspring/decimal"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newStore() *repository.MemoryStore {
	s := repository.NewMemoryStore()
	s.Apply(repository.Seed{
		Requests: []model.SourcingRequest{
			{
				ID: "R-1", Title: "Antibiotics Q3", Region: "north", Status: model.RequestOpen,
				Deadline: now.AddDate(0, 0, 2), CreatedAt: now.AddDate(0, 0, -3), RequesterID: ptr("H-1"),
			},
			{ID: "R-2", Title: "Gloves", Region: "south", Status: model.RequestClosed, CreatedAt: now.AddDate(0, 0, -1)},
			{ID: "R-3", Title: "Internal", Region: "north", Status: model.RequestOpen, CreatedAt: now, RequesterID: ptr("QA-1")},
		},
		Items: []model.RequestedLineItem{
			{ID: "A", RequestID: "R-1", CatalogID: "cat-a", Quantity: 10},
			{ID: "B", RequestID: "R-1", CatalogID: "cat-b", Quantity: 5},
		},
		Bids: []model.VendorBid{
			{ID: "b1", RequestID: "R-1", VendorID: "X", SubmittedAt: now.AddDate(0, 0, -2), Lines: []model.BidLineItem{
				{ID: "x1", BidID: "b1", RequestedItemID: "A", UnitPrice: decimal.NewFromInt(100), DeliveryDate: now},
				{ID: "x2", BidID: "b1", RequestedItemID: "B", UnitPrice: decimal.NewFromInt(50), DeliveryDate: now},
			}},
			{ID: "b2", RequestID: "R-1", VendorID: "Y", SubmittedAt: now.AddDate(0, 0, -1), Lines: []model.BidLineItem{
				{ID: "y1", BidID: "b2", RequestedItemID: "A", UnitPrice: decimal.NewFromInt(90), DeliveryDate: now},
				{ID: "y2", BidID: "b2", RequestedItemID: "gone", UnitPrice: decimal.NewFromInt(1), DeliveryDate: now},
			}},
		},
		Accounts: []model.Account{
			{ID: "H-1", Role: model.RoleRequester, Name: "City Hospital", Verified: true},
			{ID: "X", Role: model.RoleVendor, Name: "Pharma X", Email: "sales@pharmax.test", Phone: "+100"},
			{ID: "Y", Role: model.RoleVendor, Name: "Supplier Y", Email: "bids@supplier-y.test"},
			{ID: "QA-1", Role: model.RoleRequester, Admin: true, Name: "QA"},
		},
		Subscriptions: []model.Subscription{
			{ID: "s1", AccountID: "X", Status: model.SubscriptionActive},
			{ID: "s2", AccountID: "QA-1", Status: model.SubscriptionTrial, TrialEndsAt: now.AddDate(0, 0, -1)},
		},
		Activity: []model.ActivityEvent{
			{ID: "e1", AccountID: "X", Action: "login", At: now.Add(-time.Hour)},
			{ID: "e2", AccountID: "Y", Action: "bid", At: now.AddDate(0, 0, -3)},
			{ID: "e3", AccountID: "QA-1", Action: "login", At: now.Add(-time.Minute)},
		},
		Catalog: catalog.Map{
			"cat-a": {Name: "Amoxicillin", Strength: "500mg", Form: "capsule"},
			"cat-b": {Name: "Ibuprofen", Strength: "200mg", Form: "tablet"},
		},
	})
	return s
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sink.Message
	fail error
	got  chan sink.Message
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{got: make(chan sink.Message, 16)}
}

func (m *fakeMailer) Send(_ context.Context, msg sink.Message) error {
	m.mu.Lock()
	fail := m.fail
	if fail == nil {
		m.sent = append(m.sent, msg)
	}
	m.mu.Unlock()
	m.got <- msg
	return fail
}

func (m *fakeMailer) setFail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) wait(d time.Duration) (sink.Message, bool) {
	select {
	case msg := <-m.got:
		return msg, true
	case <-time.After(d):
		return sink.Message{}, false
	}
}

type putCall struct {
	name, contentType string
	size              int
}

type fakeFiles struct {
	mu    sync.Mutex
	calls []putCall
	fail  bool
}

func (f *fakeFiles) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.calls = append(f.calls, putCall{name: name, contentType: contentType, size: len(data)})
	return "mem://exports/" + name, nil
}
