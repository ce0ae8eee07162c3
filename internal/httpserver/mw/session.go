package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "marks_sid"

const sessionMaxAge = 365 * 24 * time.Hour

type (
	sessionKey    struct{}
	newSessionKey struct{}
)

// BrowserSession makes sure every request carries an opaque browser session
// id. A missing or malformed cookie is replaced with a fresh uuid.
func BrowserSession(secure bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, issued := "", false
			if c, err := r.Cookie(SessionCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sid = id.String()
				}
			}

			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("issued browser session", logger.String("sid", sid))
				issued = true
			}

			ctx := WithSessionID(r.Context(), sid)
			if issued {
				ctx = context.WithValue(ctx, newSessionKey{}, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionID stores sid in ctx.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// SessionID returns the browser session id set by BrowserSession, or "".
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// IsNewSession reports whether the session id was issued by this request.
// Such a browser cannot have signed in yet.
func IsNewSession(ctx context.Context) bool {
	issued, _ := ctx.Value(newSessionKey{}).(bool)
	return issued
}
