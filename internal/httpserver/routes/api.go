package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.BrowserSession(d.CookieSecure, d.Logger))

		r.Get("/session", handlers.Session(d))
		r.Get("/bookmarks", handlers.ListBookmarks(d))
		r.Post("/bookmarks", handlers.CreateBookmark(d))
		r.Delete("/bookmarks/{id}", handlers.DeleteBookmarkAPI(d))
	})
}
