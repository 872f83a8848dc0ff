package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/tenderdesk/internal/app"
	"github.com/okian/tenderdesk/internal/domain/model"
	"github.com/okian/tenderdesk/internal/domain/report"
)

// DocumentsDependencies defines the render and delivery operations.
type DocumentsDependencies interface {
	Workbook(ctx context.Context, requestID string) (*report.Workbook, error)
	EmailPreview(ctx context.Context, requestID string, includeContacts bool) (report.Email, error)
	QueueEmail(ctx context.Context, requestID, to string, includeContacts bool) (model.Delivery, error)
	ExportWorkbook(ctx context.Context, requestID string) (service.Export, error)
}

// DocumentsHandler serves rendered workbooks and summary emails.
type DocumentsHandler struct {
	deps DocumentsDependencies
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(deps DocumentsDependencies) *DocumentsHandler {
	return &DocumentsHandler{deps: deps}
}

// HandleWorkbook handles GET /requests/{id}/workbook.
func (h *DocumentsHandler) HandleWorkbook(w http.ResponseWriter, r *http.Request) {
	const op = "api.workbook"
	wb, err := h.deps.Workbook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	defer func() { _ = wb.Close() }()

	data, err := wb.Bytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", report.ContentTypeWorkbook)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": wb.FileName()}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Placeholders", strconv.Itoa(wb.Placeholders))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type emailPreviewResponse struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	Placeholders int    `json:"placeholders"`
}

// HandleEmailPreview handles GET /requests/{id}/email?contacts=bool&format=html.
func (h *DocumentsHandler) HandleEmailPreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.email_preview"
	contacts, err := boolParam(r, "contacts")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.EmailPreview(r.Context(), r.PathValue("id"), contacts)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(e.Body))
		return
	}
	writeJSON(w, http.StatusOK, emailPreviewResponse{Subject: e.Subject, Body: e.Body, Placeholders: e.Placeholders})
}

type queueEmailRequest struct {
	To              string `json:"to"`
	IncludeContacts bool   `json:"include_contacts"`
}

type queueEmailResponse struct {
	Status   string         `json:"status"`
	Delivery model.Delivery `json:"delivery"`
}

// HandleQueueEmail handles POST /requests/{id}/email.
func (h *DocumentsHandler) HandleQueueEmail(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue_email"
	var req queueEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.To) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing to")))
		return
	}

	d, err := h.deps.QueueEmail(r.Context(), r.PathValue("id"), req.To, req.IncludeContacts)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, queueEmailResponse{Status: "queued", Delivery: d})
}

// HandleExport handles POST /requests/{id}/export.
func (h *DocumentsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	exp, err := h.deps.ExportWorkbook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("invalid " + name + "; must be a boolean")
	}
	return v, nil
}
