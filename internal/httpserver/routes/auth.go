package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:      d.AuthRateBurst,
			PerMinute:  d.AuthRatePerMin,
			MaxEntries: 10000,
			TrustProxy: d.TrustProxy,
		}))
		r.Use(mw.BrowserSession(d.CookieSecure, d.Logger))

		r.Get("/login", handlers.Login(d))
		r.Get("/callback", handlers.Callback(d))
		r.Post("/logout", handlers.Logout(d))
	})
}
