package domain

import "time"

// User is the signed-in identity as reported by the auth provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the provider session persisted for one browser.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Theme is the cosmetic color scheme flag. It is never persisted.
type Theme bool

const (
	Light Theme = false
	Dark  Theme = true
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme { return !t }

// ParseTheme reads the query value used by the page ("dark" or anything else).
func ParseTheme(s string) Theme { return Theme(s == "dark") }

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}
