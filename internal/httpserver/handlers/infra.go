package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/redis"
)

const probeTimeout = 2 * time.Second

type componentStatus struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	LivePages *int   `json:"live_pages,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra describes the health of every dependency.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := d.Pages.Count()
		components := map[string]componentStatus{
			"backend": checkBackend(r.Context(), d),
			"redis":   checkRedis(r.Context(), d),
			"pages":   {OK: true, LivePages: &live},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       overallMode(components),
			Components: components,
		})
	}
}

func overallMode(components map[string]componentStatus) string {
	if backend, ok := components["backend"]; ok && !backend.OK {
		return "critical" // nothing can be listed or saved
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}
	return "optimal"
}

func checkBackend(ctx context.Context, d deps.Deps) componentStatus {
	if d.Backend == nil {
		return componentStatus{OK: false, Error: "client not initialized"}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := d.Backend.Health(ctx); err != nil {
		return componentStatus{OK: false, Impact: "sign-in and bookmarks unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "memory",
			Impact: "sessions are local to this instance",
		}
	}

	if err := redis.Ping(ctx, d.RedisClient, probeTimeout); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sessions cannot be loaded or saved",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "shared"}
}
