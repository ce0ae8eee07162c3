package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Login starts the provider redirect flow. Local state is untouched; the
// page only changes once the callback reports the new session.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, release := syncedPage(d, r)
		defer release()
		target, err := p.SignIn(r.Context())
		if err != nil {
			d.Logger.Warn("sign-in could not start", logger.Error(err))
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// Callback receives the browser back from the provider.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sid := mw.SessionID(r.Context())

		switch {
		case q.Get("error") != "":
			d.Logger.Warn("provider rejected sign-in",
				logger.String("error", q.Get("error")),
				logger.String("description", q.Get("error_description")))
		case q.Get("code") == "":
			d.Logger.Debug("callback without code")
		default:
			if err := d.Callback.ExchangeCode(r.Context(), sid, q.Get("code")); err != nil {
				d.Logger.Warn("sign-in callback failed", logger.Error(err))
			}
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Logout ends the provider session.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		p, release := syncedPage(d, r)
		defer release()
		p.SignOut(r.Context())

		http.Redirect(w, r, formState(r).url(), http.StatusSeeOther)
	}
}
