package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.BrowserSession(d.CookieSecure, d.Logger))

		r.Get("/", handlers.Dashboard(d))
		r.Post("/bookmarks", handlers.AddBookmark(d))
		r.Post("/bookmarks/{id}/delete", handlers.DeleteBookmark(d))
	})
}
