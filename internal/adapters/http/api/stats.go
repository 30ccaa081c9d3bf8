package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Keys of the provider's flat stats that move into the sessions section.
const (
	statSessions        = "sessions"
	statSessionCapacity = "sessionCapacity"
	statSessionTTL      = "sessionTTL"
)

// sessionStats is the sessions section of GET /stats.
type sessionStats struct {
	Active   int    `json:"active"`
	Capacity int    `json:"capacity"`
	TTL      string `json:"ttl,omitempty"`
}

// statsResponse mirrors the OpenAPI schema for GET /stats.
type statsResponse struct {
	Service  map[string]interface{} `json:"service"`
	Sessions sessionStats           `json:"sessions"`
	Uptime   string                 `json:"uptime"`
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	since         time.Time
}

// NewStatsHandler creates a new stats handler. Uptime counts from here.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, since: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(h.collect())
}

// collect splits the provider's stats into the service and sessions sections.
func (h *StatsHandler) collect() statsResponse {
	resp := statsResponse{
		Service: map[string]interface{}{},
		Uptime:  time.Since(h.since).Round(time.Second).String(),
	}
	for k, v := range h.statsProvider.GetStats() {
		switch k {
		case statSessions:
			resp.Sessions.Active = toInt(v)
		case statSessionCapacity:
			resp.Sessions.Capacity = toInt(v)
		case statSessionTTL:
			resp.Sessions.TTL, _ = v.(string)
		default:
			resp.Service[k] = v
		}
	}
	return resp
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
