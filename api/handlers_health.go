package api

import (
	"net/http"
	"time"
)

// Staleness thresholds turning a service KO in the detailed health view.
const (
	liveRatesStaleAfter = 5 * time.Minute
	marketCapStaleAfter = 25 * time.Hour
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.StatusDB(r.Context()); err != nil {
		s.sendJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "KO",
			"service": "database",
			"error":   err.Error(),
		})
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"service": "database",
		"version": Version,
	})
}

func (s *Server) handleHealthNoop(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type serviceStatus struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Since   string `json:"since,omitempty"`
}

// handleHealthDetail reports per-pipeline staleness. A sync older than
// its threshold turns the whole response into a 500 so probes alert.
func (s *Server) handleHealthDetail(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetMeta(r.Context())
	if err != nil {
		s.sendError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}

	now := time.Now()
	statuses := []serviceStatus{
		syncStatus("live-rates", meta.LastLiveRatesSync, now, liveRatesStaleAfter),
		syncStatus("marketcap", meta.LastMarketCapSync, now, marketCapStaleAfter),
	}

	code := http.StatusOK
	for _, status := range statuses {
		if status.Status != "OK" {
			code = http.StatusInternalServerError
		}
	}
	s.sendJSON(w, code, statuses)
}

func syncStatus(name string, lastSync time.Time, now time.Time, staleAfter time.Duration) serviceStatus {
	status := serviceStatus{Service: name, Status: "OK"}
	if lastSync.IsZero() || now.Sub(lastSync) > staleAfter {
		status.Status = "KO"
	}
	if !lastSync.IsZero() {
		status.Since = lastSync.UTC().Format(time.RFC3339)
	}
	return status
}
