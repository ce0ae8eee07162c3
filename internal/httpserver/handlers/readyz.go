package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports whether this instance can serve sessions. With Redis
// configured the instance is not ready while Redis is unreachable.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRedis(r.Context(), d).OK {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Reason: "redis unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
