package seedcheck

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/shopspring/decimal"
)

// Probabilities used while generating bids, in percent.
const (
	quotePercent       = 80
	orphanPercent      = 10
	invalidPercent     = 8
	zeroQuantityPct    = 5
	operatorRequestPct = 15
	maxPriceCents      = 50_000
	maxQuantity        = 500
	catalogSize        = 40
)

var (
	regions = []string{"north", "south", "east", "west"}
	forms   = []string{"tablet", "capsule", "vial", "syrup"}
)

type generator struct {
	rnd   *rand.Rand
	ids   *rand.ChaCha8
	now   time.Time
	items int
	stats *Stats
}

func (g *generator) pct(p int) bool { return g.rnd.IntN(100) < p }

// id returns a UUID read from the seeded stream so equal seeds give equal ids.
func (g *generator) id() string {
	return uuid.Must(uuid.NewRandomFromReader(g.ids)).String()
}

// Generate builds a synthetic marketplace and the totals the engine must
// report for it. Totals are computed in integer cents, apart from the engine.
func Generate(ctx context.Context, cfg *Config, now time.Time, stats *Stats) (repository.Seed, []Expectation, error) {
	if cfg.Requests < 1 || cfg.Vendors < 1 || cfg.Items < 1 {
		return repository.Seed{}, nil, fmt.Errorf("requests, vendors and items must be positive")
	}
	logger.Get().Info(ctx, "generating marketplace seed",
		logger.Int("requests", cfg.Requests),
		logger.Int("vendors", cfg.Vendors),
		logger.Int("items", cfg.Items))

	g := &generator{
		rnd:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		ids:   rand.NewChaCha8(chachaSeed(cfg.Seed)),
		now:   now.UTC().Truncate(time.Second),
		items: cfg.Items,
		stats: stats,
	}

	seed := repository.Seed{Catalog: catalog.Map{}}
	catalogIDs := make([]string, catalogSize)
	for i := range catalogIDs {
		catalogIDs[i] = "cat-" + strconv.Itoa(i)
		seed.Catalog[catalogIDs[i]] = catalog.Descriptor{
			Name:     "Compound " + strconv.Itoa(i),
			Strength: strconv.Itoa(50*(1+g.rnd.IntN(10))) + "mg",
			Form:     forms[g.rnd.IntN(len(forms))],
		}
	}

	requesters := g.accounts(&seed, model.RoleRequester, max(1, cfg.Requests/4))
	vendors := g.accounts(&seed, model.RoleVendor, cfg.Vendors)

	expectations := make([]Expectation, 0, cfg.Requests)
	for i := 0; i < cfg.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return repository.Seed{}, nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		expectations = append(expectations, g.request(&seed, requesters, vendors, catalogIDs))
	}
	g.activity(&seed)

	stats.RequestsGenerated = len(seed.Requests)
	logger.Get().Info(ctx, "generated marketplace seed",
		logger.Int("requests", len(seed.Requests)),
		logger.Int("bids", len(seed.Bids)),
		logger.Int("lines", stats.LinesGenerated),
		logger.Int("orphans", stats.OrphansGenerated),
		logger.Int("invalid", stats.InvalidGenerated))
	return seed, expectations, nil
}

func (g *generator) accounts(seed *repository.Seed, role model.Role, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		id := g.id()
		ids[i] = id
		seed.Accounts = append(seed.Accounts, model.Account{
			ID:        id,
			Role:      role,
			Verified:  g.pct(70),
			Region:    regions[g.rnd.IntN(len(regions))],
			CreatedAt: g.now.AddDate(0, 0, -g.rnd.IntN(365)),
			Name:      string(role) + " " + strconv.Itoa(i+1),
			Email:     string(role) + strconv.Itoa(i+1) + "@example.test",
		})
		status := []model.SubscriptionStatus{
			model.SubscriptionTrial, model.SubscriptionActive,
			model.SubscriptionExpired, model.SubscriptionPendingPayment,
		}[g.rnd.IntN(4)]
		seed.Subscriptions = append(seed.Subscriptions, model.Subscription{
			ID:          g.id(),
			AccountID:   id,
			Status:      status,
			TrialEndsAt: g.now.AddDate(0, 0, g.rnd.IntN(60)-30),
		})
	}
	return ids
}

func (g *generator) request(seed *repository.Seed, requesters, vendors, catalogIDs []string) Expectation {
	req := model.SourcingRequest{
		ID:        g.id(),
		Title:     "Sourcing round " + strconv.Itoa(len(seed.Requests)+1),
		Region:    regions[g.rnd.IntN(len(regions))],
		Deadline:  g.now.AddDate(0, 0, g.rnd.IntN(30)-10),
		Status:    []model.RequestStatus{model.RequestOpen, model.RequestClosed, model.RequestPending}[g.rnd.IntN(3)],
		CreatedAt: g.now.AddDate(0, 0, -g.rnd.IntN(60)),
	}
	if !g.pct(operatorRequestPct) {
		id := requesters[g.rnd.IntN(len(requesters))]
		req.RequesterID = &id
	}
	seed.Requests = append(seed.Requests, req)

	n := 1 + g.rnd.IntN(g.items)
	items := make([]model.RequestedLineItem, 0, n)
	for range n {
		qty := int64(1 + g.rnd.IntN(maxQuantity))
		if g.pct(zeroQuantityPct) {
			qty = 0
		}
		items = append(items, model.RequestedLineItem{
			ID:        g.id(),
			RequestID: req.ID,
			CatalogID: catalogIDs[g.rnd.IntN(len(catalogIDs))],
			Quantity:  qty,
		})
	}
	seed.Items = append(seed.Items, items...)

	exp := Expectation{RequestID: req.ID, Vendors: map[string]VendorExpectation{}}
	bidders := g.rnd.Perm(len(vendors))[:1+g.rnd.IntN(len(vendors))]
	for _, vi := range bidders {
		vendor := vendors[vi]
		bid := model.VendorBid{
			ID:          g.id(),
			RequestID:   req.ID,
			VendorID:    vendor,
			SubmittedAt: req.CreatedAt.Add(time.Duration(1+g.rnd.IntN(72)) * time.Hour),
		}
		ve := VendorExpectation{}
		for _, it := range items {
			if !g.pct(quotePercent) {
				continue
			}
			bid.Lines = append(bid.Lines, g.line(bid.ID, it, &ve))
		}
		if g.pct(orphanPercent) {
			ghost := model.RequestedLineItem{ID: "missing-" + g.id(), Quantity: 1}
			bid.Lines = append(bid.Lines, g.line(bid.ID, ghost, nil))
			ve.Orphans++
			g.stats.OrphansGenerated++
		}
		g.stats.LinesGenerated += len(bid.Lines)
		seed.Bids = append(seed.Bids, bid)
		exp.Vendors[vendor] = ve
	}
	exp.ResponseCount = len(exp.Vendors)
	return exp
}

// line quotes item; ve is nil for orphan lines which never count.
func (g *generator) line(bidID string, it model.RequestedLineItem, ve *VendorExpectation) model.BidLineItem {
	cents := int64(g.rnd.IntN(maxPriceCents))
	l := model.BidLineItem{
		ID:              g.id(),
		BidID:           bidID,
		RequestedItemID: it.ID,
		UnitPrice:       decimal.New(cents, -2),
		DeliveryDate:    g.now.AddDate(0, 0, 1+g.rnd.IntN(45)),
	}
	if g.pct(30) {
		free := decimal.New(int64(g.rnd.IntN(2000)), -2)
		l.FreeUnitsPercent = &free
	}
	if g.pct(50) {
		exp := l.DeliveryDate.AddDate(1, 0, 0)
		l.ExpiryDate = &exp
	}
	if ve == nil {
		return l
	}

	invalid := it.Quantity <= 0
	if !invalid && g.pct(invalidPercent) {
		invalid = true
		if g.pct(50) {
			l.UnitPrice = decimal.New(-cents-1, -2)
		} else {
			l.DeliveryDate = time.Time{}
		}
	}
	if invalid {
		ve.Invalid++
		g.stats.InvalidGenerated++
		return l
	}
	ve.TotalCents += cents * it.Quantity
	return l
}

func (g *generator) activity(seed *repository.Seed) {
	actions := []string{"login", "view_request", "submit_bid", "export"}
	for _, a := range seed.Accounts {
		for n := g.rnd.IntN(6); n > 0; n-- {
			page := "/requests"
			seed.Activity = append(seed.Activity, model.ActivityEvent{
				ID:        g.id(),
				AccountID: a.ID,
				Action:    actions[g.rnd.IntN(len(actions))],
				Page:      &page,
				At:        g.now.Add(-time.Duration(g.rnd.IntN(40*24)) * time.Hour),
			})
		}
	}
}

func chachaSeed(seed uint64) [32]byte {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	return b
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
