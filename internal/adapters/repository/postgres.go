package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	requestColumns      = []string{"id", "title", "region", "deadline", "status", "created_at", "requester_id"}
	accountColumns      = []string{"id", "role", "verified", "admin", "region", "created_at", "name", "email", "phone"}
	subscriptionColumns = []string{"id", "account_id", "status", "trial_ends_at", "ends_at", "payment_status"}
	activityColumns     = []string{"id", "account_id", "action", "page", "at"}
	lineColumns         = []string{
		"id", "bid_id", "requested_item_id", "unit_price::text", "free_units_percent::text",
		"delivery_date", "expiry_date",
	}
)

// querier is the subset of pgxpool.Pool used by PostgresStore.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads records from PostgreSQL. Numeric columns are read as
// text and parsed into decimals so no precision is lost on the way.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore connects to dsn and checks the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool, db: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func requestsQuery(f RequestFilter) sq.SelectBuilder {
	q := psql.Select(requestColumns...).From("sourcing_requests").OrderBy("created_at DESC", "id")
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if f.Region != "" {
		q = q.Where(sq.Eq{"region": f.Region})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func bidsQuery(requestID string) sq.SelectBuilder {
	return psql.Select("id", "request_id", "vendor_id", "submitted_at").
		From("vendor_bids").
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("submitted_at", "seq")
}

func linesQuery(bidIDs []string) sq.SelectBuilder {
	return psql.Select(lineColumns...).
		From("bid_lines").
		Where(sq.Eq{"bid_id": bidIDs}).
		OrderBy("seq")
}

func activityQuery(since time.Time) sq.SelectBuilder {
	q := psql.Select(activityColumns...).From("activity_events").OrderBy("at", "id")
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"at": since})
	}
	return q
}

func (s *PostgresStore) query(ctx context.Context, b sq.SelectBuilder) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.Query(ctx, sql, args...)
}

func (s *PostgresStore) queryRow(b sq.SelectBuilder) (string, []any, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

func scanRequest(row pgx.Row) (model.SourcingRequest, error) {
	var r model.SourcingRequest
	var deadline *time.Time
	var status string
	if err := row.Scan(&r.ID, &r.Title, &r.Region, &deadline, &status, &r.CreatedAt, &r.RequesterID); err != nil {
		return model.SourcingRequest{}, err
	}
	if deadline != nil {
		r.Deadline = *deadline
	}
	r.Status = model.RequestStatus(status)
	return r, nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id string) (model.SourcingRequest, error) {
	sql, args, err := s.queryRow(psql.Select(requestColumns...).From("sourcing_requests").Where(sq.Eq{"id": id}))
	if err != nil {
		return model.SourcingRequest{}, err
	}
	r, err := scanRequest(s.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SourcingRequest{}, ErrNotFound
	}
	if err != nil {
		return model.SourcingRequest{}, fmt.Errorf("get request %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, f RequestFilter) ([]model.SourcingRequest, error) {
	if f.Limit < 0 {
		return nil, ErrInvalidFilter
	}
	rows, err := s.query(ctx, requestsQuery(f))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []model.SourcingRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListItems(ctx context.Context, requestID string) ([]model.RequestedLineItem, error) {
	rows, err := s.query(ctx, psql.Select("id", "request_id", "catalog_id", "quantity").
		From("requested_items").
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("seq"))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []model.RequestedLineItem
	for rows.Next() {
		var it model.RequestedLineItem
		if err := rows.Scan(&it.ID, &it.RequestID, &it.CatalogID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListBids(ctx context.Context, requestID string) ([]model.VendorBid, error) {
	rows, err := s.query(ctx, bidsQuery(requestID))
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	var bids []model.VendorBid
	index := make(map[string]int)
	for rows.Next() {
		var b model.VendorBid
		if err := rows.Scan(&b.ID, &b.RequestID, &b.VendorID, &b.SubmittedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		index[b.ID] = len(bids)
		bids = append(bids, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	if len(bids) == 0 {
		return nil, nil
	}

	ids := make([]string, len(bids))
	for i, b := range bids {
		ids[i] = b.ID
	}
	lines, err := s.query(ctx, linesQuery(ids))
	if err != nil {
		return nil, fmt.Errorf("list bid lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		l, err := scanLine(lines)
		if err != nil {
			return nil, err
		}
		if i, ok := index[l.BidID]; ok {
			bids[i].Lines = append(bids[i].Lines, l)
		}
	}
	return bids, lines.Err()
}

func scanLine(row pgx.Row) (model.BidLineItem, error) {
	var (
		l        model.BidLineItem
		price    string
		free     *string
		delivery *time.Time
	)
	if err := row.Scan(&l.ID, &l.BidID, &l.RequestedItemID, &price, &free, &delivery, &l.ExpiryDate); err != nil {
		return l, fmt.Errorf("scan bid line: %w", err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return l, fmt.Errorf("bid line %s price %q: %w", l.ID, price, err)
	}
	l.UnitPrice = p
	if free != nil {
		f, err := decimal.NewFromString(*free)
		if err != nil {
			return l, fmt.Errorf("bid line %s free units %q: %w", l.ID, *free, err)
		}
		l.FreeUnitsPercent = &f
	}
	if delivery != nil {
		l.DeliveryDate = *delivery
	}
	return l, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	var role string
	if err := row.Scan(&a.ID, &role, &a.Verified, &a.Admin, &a.Region, &a.CreatedAt, &a.Name, &a.Email, &a.Phone); err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	return a, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (model.Account, error) {
	sql, args, err := s.queryRow(psql.Select(accountColumns...).From("accounts").Where(sq.Eq{"id": id}))
	if err != nil {
		return model.Account{}, err
	}
	a, err := scanAccount(s.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (s *PostgresStore) listAccounts(ctx context.Context, b sq.SelectBuilder) ([]model.Account, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AccountsByID(ctx context.Context, ids []string) (map[string]model.Account, error) {
	out := make(map[string]model.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	accounts, err := s.listAccounts(ctx, psql.Select(accountColumns...).From("accounts").Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.listAccounts(ctx, psql.Select(accountColumns...).From("accounts").OrderBy("created_at", "id"))
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.query(ctx, psql.Select(subscriptionColumns...).From("subscriptions").OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var (
			sub       model.Subscription
			status    string
			trialEnds *time.Time
		)
		if err := rows.Scan(&sub.ID, &sub.AccountID, &status, &trialEnds, &sub.EndsAt, &sub.PaymentStatus); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Status = model.SubscriptionStatus(status)
		if trialEnds != nil {
			sub.TrialEndsAt = *trialEnds
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListActivity(ctx context.Context, since time.Time) ([]model.ActivityEvent, error) {
	rows, err := s.query(ctx, activityQuery(since))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Action, &e.Page, &e.At); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Descriptors(ctx context.Context, catalogIDs []string) (catalog.Map, error) {
	out := make(catalog.Map, len(catalogIDs))
	if len(catalogIDs) == 0 {
		return out, nil
	}
	rows, err := s.query(ctx, psql.Select("id", "name", "form", "strength").
		From("catalog_items").
		Where(sq.Eq{"id": catalogIDs}))
	if err != nil {
		return nil, fmt.Errorf("list descriptors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var d catalog.Descriptor
		if err := rows.Scan(&id, &d.Name, &d.Form, &d.Strength); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		out[id] = d
	}
	return out, rows.Err()
}
