package auth

import "github.com/MrSnakeDoc/marks/internal/domain"

// EventType names an auth state change.
type EventType string

const (
	InitialSession EventType = "INITIAL_SESSION"
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is one notification of the auth state stream. Session is nil when
// no user is signed in.
type Event struct {
	Type    EventType       `json:"type"`
	Session *domain.Session `json:"session,omitempty"`
}

// User returns the event's user, or nil.
func (e Event) User() *domain.User {
	if e.Session == nil {
		return nil
	}
	u := e.Session.User
	return &u
}
