package dashboard

import "github.com/MrSnakeDoc/marks/internal/domain"

// Gate holds the single nullable current user of a page.
type Gate struct {
	user *domain.User
}

// Apply replaces the current user with u (nil clears it). It reports
// whether a user is now present whose identity differs from the previous
// one, which is what triggers a list load.
func (g *Gate) Apply(u *domain.User) bool {
	prev := g.user
	if u == nil {
		g.user = nil
		return false
	}

	next := *u
	g.user = &next
	return prev == nil || prev.ID != next.ID
}

// User returns a copy of the current user, or nil.
func (g *Gate) User() *domain.User {
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}
