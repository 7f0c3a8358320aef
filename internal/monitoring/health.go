package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu         sync.RWMutex
	lastUpdate time.Time
	lastValue  float64
	isFeeding  bool
	errors     []string

	// staleAfter marks the feed degraded when no update arrives in time.
	staleAfter time.Duration
}

type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastUpdate time.Time `json:"last_update"`
	LastValue  float64   `json:"last_value"`
	IsFeeding  bool      `json:"is_feeding"`
	Uptime     string    `json:"uptime"`
	Errors     []string  `json:"errors,omitempty"`
}

func NewHealthChecker(staleAfter time.Duration) *HealthChecker {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &HealthChecker{
		errors:     make([]string, 0),
		staleAfter: staleAfter,
	}
}

// MarkUpdate records a portfolio update from the feed
func (h *HealthChecker) MarkUpdate(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUpdate = time.Now()
	h.lastValue = value
	h.isFeeding = true
}

// RecordError appends an error to the health report
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isFeeding || time.Since(h.lastUpdate) > h.staleAfter {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		LastUpdate: h.lastUpdate,
		LastValue:  h.lastValue,
		IsFeeding:  h.isFeeding,
		Uptime:     time.Since(startTime).String(),
		Errors:     h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
