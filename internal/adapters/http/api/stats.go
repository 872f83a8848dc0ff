package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports runtime counters of the reporting service.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

// HandleStats writes the provider's counters plus the time they were read.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := maps.Clone(h.provider.GetStats())
	if out == nil {
		out = map[string]any{}
	}
	out["time"] = h.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, out)
}
