package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/tenderdesk/internal/domain/analytics"
)

const (
	defaultActivityDays = 30
	maxActivityDays     = 366
)

// AnalyticsDependencies defines the population rollup operations.
type AnalyticsDependencies interface {
	Analytics(ctx context.Context, at time.Time) (analytics.Snapshot, error)
	ActivityByDay(ctx context.Context, since time.Time) (analytics.DayGrouping, error)
}

// AnalyticsHandler serves dashboard rollups.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
	now  func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps, now: time.Now}
}

// HandleSnapshot handles GET /analytics?at=RFC3339.
func (h *AnalyticsHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid at; must be RFC3339")))
			return
		}
		at = t
	}
	snap, err := h.deps.Analytics(r.Context(), at)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleActivity handles GET /analytics/activity?since=RFC3339 or ?days=N.
func (h *AnalyticsHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.activity"
	q := r.URL.Query()
	since := h.now().AddDate(0, 0, -defaultActivityDays)
	switch {
	case q.Get("since") != "":
		t, err := time.Parse(time.RFC3339, q.Get("since"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid since; must be RFC3339")))
			return
		}
		since = t
	case q.Get("days") != "":
		n, err := strconv.Atoi(q.Get("days"))
		if err != nil || n < 1 || n > maxActivityDays {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		since = h.now().AddDate(0, 0, -n)
	}

	grouping, err := h.deps.ActivityByDay(r.Context(), since)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if grouping.Days == nil {
		grouping.Days = []analytics.DayBucket{}
	}
	writeJSON(w, http.StatusOK, grouping)
}
