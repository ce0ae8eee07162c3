package dashboard

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// State is the page-level state machine:
// SignedOut -> Loading (a user arrives) -> Ready (list received) -> SignedOut.
// Mutations pass through Loading while the list is reloaded.
type State int

const (
	SignedOut State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "signed_out"
	}
}

// Auth is the auth provider as seen by a page.
type Auth interface {
	CurrentUser(ctx context.Context, sid string) (*domain.User, error)
	OnAuthStateChange(sid string, fn func(auth.Event)) auth.Subscription
	SignInWithOAuth(ctx context.Context, sid string) (string, error)
	SignOut(ctx context.Context, sid string) error
	AccessToken(ctx context.Context, sid string) (string, error)
}

// Bookmarks is the remote bookmarks table.
type Bookmarks interface {
	List(ctx context.Context, accessToken string) ([]domain.Bookmark, error)
	Insert(ctx context.Context, accessToken string, draft domain.Draft, userID string) error
	Delete(ctx context.Context, accessToken string, id domain.ID) error
}

// Snapshot is a consistent copy of the page state used for rendering.
type Snapshot struct {
	User      *domain.User
	State     State
	Bookmarks []domain.Bookmark
}

// Page is the dashboard of one browser session.
//
// Backend failures are logged and swallowed: the page reflects whatever
// state resulted, the same way the list is simply empty after a failed
// fetch.
type Page struct {
	sid    string
	auth   Auth
	table  Bookmarks
	logger logger.Logger

	mu        sync.Mutex
	gate      Gate
	state     State
	bookmarks []domain.Bookmark
	pending   bool // a list load was triggered and has not run yet
	sub       auth.Subscription
}

func New(sid string, a Auth, table Bookmarks, log logger.Logger) *Page {
	return &Page{
		sid:       sid,
		auth:      a,
		table:     table,
		logger:    log.With(logger.String("sid", sid)),
		bookmarks: []domain.Bookmark{},
	}
}

// Init subscribes to auth state changes and applies a one-time snapshot of
// the current user. A failed snapshot leaves the user absent.
func (p *Page) Init(ctx context.Context) {
	sub := p.auth.OnAuthStateChange(p.sid, p.handleEvent)
	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()

	user, err := p.auth.CurrentUser(ctx, p.sid)
	if err != nil {
		p.logger.Debug("initial user snapshot failed",
			logger.Error(err))
		return
	}
	p.apply(user)
}

// Close unsubscribes the page from the auth stream.
func (p *Page) Close() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (p *Page) handleEvent(ev auth.Event) {
	p.logger.Debug("auth state change",
		logger.String("event", string(ev.Type)))
	p.apply(ev.User())
}

// apply is the only place where the current user changes.
func (p *Page) apply(u *domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := p.gate.Apply(u)
	if p.gate.User() == nil {
		p.state = SignedOut
		p.pending = false
		return
	}
	if changed {
		p.state = Loading
		p.pending = true
	}
}

// User returns the signed-in user, or nil.
func (p *Page) User() *domain.User {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.gate.User()
}

func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Snapshot copies the current state.
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]domain.Bookmark, len(p.bookmarks))
	copy(list, p.bookmarks)
	return Snapshot{User: p.gate.User(), State: p.state, Bookmarks: list}
}

// Sync runs a list load triggered by a user transition. Handlers call it
// before rendering. Nothing is requested while signed out.
func (p *Page) Sync(ctx context.Context) {
	p.mu.Lock()
	run := p.pending && p.gate.User() != nil
	p.pending = false
	p.mu.Unlock()

	if run {
		p.Refresh(ctx)
	}
}

// Refresh replaces the whole list with a fresh fetch, or with an empty
// list when the fetch fails. Every mutation goes through here.
func (p *Page) Refresh(ctx context.Context) {
	p.mu.Lock()
	if p.gate.User() != nil {
		p.state = Loading
	}
	p.mu.Unlock()

	list, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("failed to load bookmarks",
			logger.Error(err))
	}
	if list == nil {
		list = []domain.Bookmark{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// A response arriving after sign-out still replaces the list; the
	// signed-out view never shows it.
	p.bookmarks = list
	if p.gate.User() != nil {
		p.state = Ready
	}
}

func (p *Page) fetch(ctx context.Context) ([]domain.Bookmark, error) {
	token, err := p.auth.AccessToken(ctx, p.sid)
	if err != nil {
		return nil, err
	}
	return p.table.List(ctx, token)
}

// Add inserts a bookmark for the current user and reloads the list.
// An empty title or url is a no-op that returns ErrValidation without any
// backend call. The insert outcome is not checked before the reload.
func (p *Page) Add(ctx context.Context, draft domain.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	user := p.User()
	if user == nil {
		return &domain.AuthError{Op: "add bookmark", Err: auth.ErrNoSession}
	}

	token, err := p.auth.AccessToken(ctx, p.sid)
	if err == nil {
		err = p.table.Insert(ctx, token, draft.Normalized(), user.ID)
	}
	if err != nil {
		p.logger.Warn("failed to add bookmark",
			logger.String("user_id", user.ID),
			logger.Error(err))
	}

	p.Refresh(ctx)
	return nil
}

// Delete removes a bookmark by id and reloads the list.
func (p *Page) Delete(ctx context.Context, id domain.ID) {
	token, err := p.auth.AccessToken(ctx, p.sid)
	if err == nil {
		err = p.table.Delete(ctx, token, id)
	}
	if err != nil {
		p.logger.Warn("failed to delete bookmark",
			logger.String("id", id.String()),
			logger.Error(err))
	}

	p.Refresh(ctx)
}

// View is the filtered projection of the current list.
func (p *Page) View(query string, filter domain.CategoryFilter) []domain.Bookmark {
	return domain.Filter(p.Snapshot().Bookmarks, query, filter)
}

// SignIn returns the URL that starts the OAuth flow. The page state only
// changes once the provider reports the new session.
func (p *Page) SignIn(ctx context.Context) (string, error) {
	return p.auth.SignInWithOAuth(ctx, p.sid)
}

// SignOut asks the provider to end the session. The page is cleared by the
// resulting SIGNED_OUT notification, not here.
func (p *Page) SignOut(ctx context.Context) {
	if err := p.auth.SignOut(ctx, p.sid); err != nil {
		p.logger.Warn("sign out failed",
			logger.Error(err))
	}
}
