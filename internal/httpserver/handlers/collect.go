package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

type collectResponse struct {
	Triggered bool `json:"triggered"`
	LivePages int  `json:"live_pages"`
}

// Collect asks the page collector to drop idle pages now.
func Collect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.CollectTrigger == nil {
			writeError(w, http.StatusServiceUnavailable, "collector not running")
			return
		}

		select {
		case d.CollectTrigger <- struct{}{}:
			d.Logger.Info("manual page collection requested",
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			writeJSON(w, http.StatusAccepted, collectResponse{Triggered: true, LivePages: d.Pages.Count()})
		default:
			writeJSON(w, http.StatusTooManyRequests, collectResponse{Triggered: false, LivePages: d.Pages.Count()})
		}
	}
}
