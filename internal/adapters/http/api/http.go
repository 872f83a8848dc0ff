// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/tenderdesk/internal/adapters/repository"
	service "github.com/okian/tenderdesk/internal/app"
	"github.com/okian/tenderdesk/internal/domain/aggregate"
	"github.com/okian/tenderdesk/internal/domain/analytics"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/report"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]model.SourcingRequest, error)
	RequestSummary(ctx context.Context, requestID string) (aggregate.RequestSummary, error)

	// Workbook renders a workbook the caller must close.
	Workbook(ctx context.Context, requestID string) (*report.Workbook, error)
	EmailPreview(ctx context.Context, requestID string, includeContacts bool) (report.Email, error)
	QueueEmail(ctx context.Context, requestID, to string, includeContacts bool) (model.Delivery, error)
	ExportWorkbook(ctx context.Context, requestID string) (service.Export, error)

	Analytics(ctx context.Context, at time.Time) (analytics.Snapshot, error)
	ActivityByDay(ctx context.Context, since time.Time) (analytics.DayGrouping, error)
}

// Server wires HTTP routes for the reporting API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	requestsHandler  *RequestsHandler
	documentsHandler *DocumentsHandler
	analyticsHandler *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		requestsHandler:  NewRequestsHandler(deps, defaultListLimit),
		documentsHandler: NewDocumentsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /requests", MetricsMiddleware(s.requestsHandler.HandleList, "requests"))
	mux.HandleFunc("GET /requests/{id}/summary", MetricsMiddleware(s.requestsHandler.HandleSummary, "summary"))

	mux.HandleFunc("GET /requests/{id}/workbook", MetricsMiddleware(s.documentsHandler.HandleWorkbook, "workbook"))
	mux.HandleFunc("GET /requests/{id}/email", MetricsMiddleware(s.documentsHandler.HandleEmailPreview, "email_preview"))
	mux.HandleFunc("POST /requests/{id}/email", MetricsMiddleware(s.documentsHandler.HandleQueueEmail, "email"))
	mux.HandleFunc("POST /requests/{id}/export", MetricsMiddleware(s.documentsHandler.HandleExport, "export"))

	mux.HandleFunc("GET /analytics", MetricsMiddleware(s.analyticsHandler.HandleSnapshot, "analytics"))
	mux.HandleFunc("GET /analytics/activity", MetricsMiddleware(s.analyticsHandler.HandleActivity, "activity"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
