package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	deliveryqueue "github.com/okian/tenderdesk/internal/adapters/mq/queue"
	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/adapters/sink"
	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/dedupe"
	"github.com/okian/tenderdesk/internal/domain/matcher"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/report"
	"github.com/okian/tenderdesk/pkg/logger"
	"github.com/okian/tenderdesk/pkg/metrics"
)

// Export describes a workbook written to the file sink.
type Export struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Size         int    `json:"size"`
	Placeholders int    `json:"placeholders"`
}

// summarize fetches the request and its bids and runs the engine over them.
func (s *Service) summarize(ctx context.Context, requestID string) (aggregate.RequestSummary, []string, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return aggregate.RequestSummary{}, nil, fmt.Errorf("request %s: %w", requestID, err)
	}
	items, err := s.store.ListItems(ctx, requestID)
	if err != nil {
		return aggregate.RequestSummary{}, nil, fmt.Errorf("items of %s: %w", requestID, err)
	}
	bids, err := s.store.ListBids(ctx, requestID)
	if err != nil {
		return aggregate.RequestSummary{}, nil, fmt.Errorf("bids of %s: %w", requestID, err)
	}

	set := matcher.Match(req, items, bids)
	summary := aggregate.Summarize(set)
	metrics.RecordSummary(len(summary.Orphans), len(summary.Invalid))

	catalogIDs := make([]string, 0, len(items))
	for _, it := range items {
		catalogIDs = append(catalogIDs, it.CatalogID)
	}
	return summary, catalogIDs, nil
}

// RequestSummary matches and aggregates the bids of one request.
func (s *Service) RequestSummary(ctx context.Context, requestID string) (aggregate.RequestSummary, error) {
	summary, _, err := s.summarize(ctx, requestID)
	if err != nil {
		return aggregate.RequestSummary{}, err
	}
	if n := len(summary.Invalid); n > 0 {
		s.log().Debug(ctx, "request has invalid bid lines",
			logger.String("request", requestID),
			logger.Int("invalid", n))
	}
	return summary, nil
}

// renderInput resolves everything a render needs before rendering starts.
func (s *Service) renderInput(ctx context.Context, requestID string) (report.Input, error) {
	summary, catalogIDs, err := s.summarize(ctx, requestID)
	if err != nil {
		return report.Input{}, err
	}
	req := summary.Request

	var requester *model.Account
	if !req.CreatedByOperator() {
		acc, err := s.store.GetAccount(ctx, *req.RequesterID)
		switch {
		case err == nil:
			requester = &acc
		case errors.Is(err, repository.ErrNotFound):
			s.log().Warn(ctx, "requester account not found",
				logger.String("request", req.ID),
				logger.String("account", *req.RequesterID))
		default:
			return report.Input{}, fmt.Errorf("requester of %s: %w", req.ID, err)
		}
	}

	vendorIDs := make([]string, 0, len(summary.Vendors))
	for _, v := range summary.Vendors {
		vendorIDs = append(vendorIDs, v.Vendor)
	}
	vendors, err := s.store.AccountsByID(ctx, vendorIDs)
	if err != nil {
		return report.Input{}, fmt.Errorf("vendors of %s: %w", req.ID, err)
	}

	descriptors, err := s.store.Descriptors(ctx, catalogIDs)
	if err != nil {
		return report.Input{}, fmt.Errorf("catalog of %s: %w", req.ID, err)
	}

	return report.Input{
		Request:       req,
		Requester:     requester,
		Summary:       summary,
		Vendors:       vendors,
		Catalog:       descriptors,
		PublicBaseURL: s.publicBaseURL,
		Now:           s.clock(),
	}, nil
}

// Workbook renders the spreadsheet of one request. The caller closes it.
func (s *Service) Workbook(ctx context.Context, requestID string) (*report.Workbook, error) {
	in, err := s.renderInput(ctx, requestID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	wb, err := report.RenderWorkbook(in)
	metrics.RecordRenderLatency(metrics.DocumentWorkbook, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("service", "render_workbook")
		return nil, err
	}
	metrics.RecordPlaceholders(metrics.DocumentWorkbook, wb.Placeholders)
	return wb, nil
}

// EmailPreview renders the summary email of a request without sending it.
func (s *Service) EmailPreview(ctx context.Context, requestID string, includeContacts bool) (report.Email, error) {
	in, err := s.renderInput(ctx, requestID)
	if err != nil {
		return report.Email{}, err
	}
	return s.renderEmail(in, includeContacts)
}

func (s *Service) renderEmail(in report.Input, includeContacts bool) (report.Email, error) {
	start := time.Now()
	e, err := report.RenderEmail(in, includeContacts)
	metrics.RecordRenderLatency(metrics.DocumentEmail, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("service", "render_email")
		return report.Email{}, err
	}
	metrics.RecordPlaceholders(metrics.DocumentEmail, e.Placeholders)
	return e, nil
}

// ExportWorkbook renders the workbook of a request and stores it in the file sink.
func (s *Service) ExportWorkbook(ctx context.Context, requestID string) (Export, error) {
	if s.files == nil {
		metrics.RecordExport(metrics.OutcomeRejected)
		return Export{}, ErrNoFileSink
	}

	wb, err := s.Workbook(ctx, requestID)
	if err != nil {
		metrics.RecordExport(metrics.OutcomeFailed)
		return Export{}, err
	}
	defer func() { _ = wb.Close() }()

	data, err := wb.Bytes()
	if err != nil {
		metrics.RecordExport(metrics.OutcomeFailed)
		return Export{}, err
	}
	location, err := s.files.Put(ctx, wb.FileName(), report.ContentTypeWorkbook, data)
	if err != nil {
		metrics.RecordExport(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("service", "export")
		return Export{}, fmt.Errorf("export %s: %w", wb.FileName(), err)
	}

	metrics.RecordExport(metrics.OutcomeSent)
	s.log().Info(ctx, "workbook exported",
		logger.String("request", requestID),
		logger.String("location", location))
	return Export{
		Name:         wb.FileName(),
		Location:     location,
		Size:         len(data),
		Placeholders: wb.Placeholders,
	}, nil
}

// QueueEmail schedules the summary email of a request for one recipient.
// The same request, recipient and contact choice is queued at most once
// while it is remembered; a repeat fails with ErrDuplicate.
func (s *Service) QueueEmail(ctx context.Context, requestID, to string, includeContacts bool) (model.Delivery, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		metrics.RecordDelivery(metrics.OutcomeRejected)
		return model.Delivery{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}

	s.mu.RLock()
	started, q, deduper := s.started, s.queue, s.deduper
	s.mu.RUnlock()
	if !started {
		return model.Delivery{}, ErrNotStarted
	}

	if _, err := s.store.GetRequest(ctx, requestID); err != nil {
		return model.Delivery{}, fmt.Errorf("request %s: %w", requestID, err)
	}

	key := dedupe.Key(requestID, addr.Address, includeContacts)
	if deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDelivery(metrics.OutcomeDuplicate)
		s.log().Debug(ctx, "duplicate delivery, skipping",
			logger.String("request", requestID),
			logger.String("to", addr.Address))
		return model.Delivery{}, ErrDuplicate
	}

	d := model.Delivery{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		To:              addr.Address,
		IncludeContacts: includeContacts,
		CreatedAt:       s.clock(),
	}
	if err := q.Enqueue(ctx, d); err != nil {
		deduper.Unrecord(ctx, key)
		metrics.RecordDelivery(metrics.OutcomeRejected)
		if errors.Is(err, deliveryqueue.ErrFull) || errors.Is(err, deliveryqueue.ErrClosed) {
			return model.Delivery{}, fmt.Errorf("%w: %v", ErrQueueFull, err)
		}
		return model.Delivery{}, err
	}

	metrics.RecordDelivery(metrics.OutcomeQueued)
	s.log().Info(ctx, "summary email queued",
		logger.String("delivery", d.ID),
		logger.String("request", requestID))
	return d, nil
}

// Deliver renders and sends one queued delivery. A failed delivery is
// forgotten by the deduper so that it can be queued again.
func (s *Service) Deliver(ctx context.Context, d model.Delivery) error {
	err := s.deliver(ctx, d)
	if err != nil {
		s.mu.RLock()
		deduper := s.deduper
		s.mu.RUnlock()
		if deduper != nil {
			deduper.Unrecord(ctx, dedupe.Key(d.RequestID, d.To, d.IncludeContacts))
		}
	}
	return err
}

func (s *Service) deliver(ctx context.Context, d model.Delivery) error {
	in, err := s.renderInput(ctx, d.RequestID)
	if err != nil {
		return err
	}
	e, err := s.renderEmail(in, d.IncludeContacts)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, sink.Message{
		To:       d.To,
		Subject:  e.Subject,
		HTMLBody: e.Body,
	})
}
