package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/tenderdesk/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class per endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		code := strconv.Itoa(rec.status)
		elapsedMs := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsedMs)
		if class := errorClass(rec.status); class != "" {
			metrics.RecordErrorByComponent("http_"+endpoint, class)
		}
	}
}

// errorClass maps a status to the error label; "" means success.
func errorClass(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status >= http.StatusInternalServerError:
		return "server_error"
	}
	switch status {
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "client_error"
	}
}

// statusRecorder remembers the status written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
