// internal/api/health.go
package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	apperrors "provider-enrollment/internal/common/errors"
)

const readyTimeout = 2 * time.Second

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, healthBody{Status: "ok"})
}

// handleReady pings every registered dependency; any failure yields 503.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(s.deps.Checks))
	for name := range s.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	body := healthBody{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK
	for _, name := range names {
		if err := s.deps.Checks[name].Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", map[string]interface{}{
				"dependency": name,
				"error":      err,
			})
			body.Checks[name] = "unavailable"
			body.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body.Checks[name] = "ok"
	}
	apperrors.WriteJSON(w, status, body)
}
