package api

import (
	"fmt"
	"net/http"
)

// healthcheckHandler reports the environment and the state of the database
// and the cache. An unreachable database yields 503; the cache is optional.
func (s *Server) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.database.Ping(r.Context()); err != nil {
		s.serviceUnavailableResponse(w, r, fmt.Errorf("database ping: %w", err))
		return
	}

	cache := "disabled"
	if s.cache.Enabled() {
		cache = "up"
		if err := s.cache.Ping(r.Context()); err != nil {
			s.logError(r, fmt.Errorf("cache ping: %w", err))
			cache = "down"
		}
	}

	env := envelope{
		"status":      "available",
		"environment": s.config.Env,
		"database":    "up",
		"cache":       cache,
	}

	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
