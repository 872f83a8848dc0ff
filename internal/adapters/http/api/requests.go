package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RequestsDependencies defines the request read operations.
type RequestsDependencies interface {
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]model.SourcingRequest, error)
	RequestSummary(ctx context.Context, requestID string) (aggregate.RequestSummary, error)
}

// RequestsHandler serves request listings and summaries.
type RequestsHandler struct {
	deps         RequestsDependencies
	defaultLimit int
	now          func() time.Time
}

// NewRequestsHandler creates a new requests handler.
func NewRequestsHandler(deps RequestsDependencies, defaultLimit int) *RequestsHandler {
	return &RequestsHandler{deps: deps, defaultLimit: defaultLimit, now: time.Now}
}

// HandleList handles GET /requests?status=open,closed&region=R&limit=N.
func (h *RequestsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_requests"
	q := r.URL.Query()

	filter := repository.RequestFilter{Region: q.Get("region"), Limit: h.defaultLimit}
	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, model.RequestStatus(s))
			}
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		filter.Limit = n
	}

	requests, err := h.deps.ListRequests(r.Context(), filter)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	now := h.now()
	out := make([]requestDTO, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestDTO(req, now))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSummary handles GET /requests/{id}/summary.
func (h *RequestsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_summary"
	summary, err := h.deps.RequestSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary, h.now()))
}
