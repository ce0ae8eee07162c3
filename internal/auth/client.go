package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	DefaultProvider      = "google"
	DefaultSessionTTL    = 7 * 24 * time.Hour
	DefaultVerifierTTL   = 10 * time.Minute
	DefaultRefreshMargin = time.Minute
)

// refreshTimeout bounds a shared refresh once it is detached from its caller.
const refreshTimeout = 15 * time.Second

// API is the subset of the backend auth endpoints the client needs.
type API interface {
	AuthorizeURL(provider, redirectTo, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
	Logout(ctx context.Context, accessToken string) error
}

// Options configures the auth client.
type Options struct {
	Provider      string        // OAuth provider handed to the backend (default: google)
	RedirectURL   string        // absolute callback URL, ex: https://marks.example.com/auth/callback
	SessionTTL    time.Duration // how long a persisted session survives without use
	VerifierTTL   time.Duration // how long a sign-in may stay pending
	RefreshMargin time.Duration // refresh access tokens this long before they expire
}

func (o Options) withDefaults() Options {
	if o.Provider == "" {
		o.Provider = DefaultProvider
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.VerifierTTL <= 0 {
		o.VerifierTTL = DefaultVerifierTTL
	}
	if o.RefreshMargin < 0 {
		o.RefreshMargin = 0
	}
	return o
}

// Client keeps the provider session of every browser and emits auth state
// changes. The dashboard never touches sessions directly: it requests
// sign-in and sign-out and learns the outcome from OnAuthStateChange.
type Client struct {
	api     API
	store   Store
	hub     *Hub
	pub     Publisher
	tokens  *TokenInspector
	opts    Options
	logger  logger.Logger
	now     func() time.Time
	refresh singleflight.Group
}

// NewClient wires the client. pub may be nil, in which case events are
// only delivered to local subscribers through hub.
func NewClient(api API, store Store, hub *Hub, pub Publisher, tokens *TokenInspector, opts Options, log logger.Logger) *Client {
	if pub == nil {
		pub = hub
	}
	if tokens == nil {
		tokens = NewTokenInspector("")
	}
	return &Client{
		api:    api,
		store:  store,
		hub:    hub,
		pub:    pub,
		tokens: tokens,
		opts:   opts.withDefaults(),
		logger: log,
		now:    time.Now,
	}
}

// OnAuthStateChange subscribes fn to the auth events of sid.
func (c *Client) OnAuthStateChange(sid string, fn func(Event)) Subscription {
	return c.hub.Subscribe(sid, fn)
}

// CurrentUser returns a fresh snapshot of the signed-in user, or nil.
func (c *Client) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	session, err := c.session(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	return c.api.GetUser(ctx, session.AccessToken)
}

// AccessToken returns a usable access token for sid, refreshing it first
// when it is about to expire.
func (c *Client) AccessToken(ctx context.Context, sid string) (string, error) {
	session, err := c.session(ctx, sid)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// SignInWithOAuth starts the redirect flow and returns the URL to send the
// browser to. No local state changes until the callback completes.
func (c *Client) SignInWithOAuth(ctx context.Context, sid string) (string, error) {
	verifier := oauth2.GenerateVerifier()
	if err := c.store.SaveVerifier(ctx, sid, verifier, c.opts.VerifierTTL); err != nil {
		return "", &domain.AuthError{Op: "sign in", Err: err}
	}
	challenge := oauth2.S256ChallengeFromVerifier(verifier)
	return c.api.AuthorizeURL(c.opts.Provider, c.opts.RedirectURL, challenge), nil
}

// ExchangeCode completes the redirect flow: it trades the callback code for
// a session, persists it and emits SIGNED_IN.
func (c *Client) ExchangeCode(ctx context.Context, sid, code string) error {
	if code == "" {
		return &domain.AuthError{Op: "exchange code", Err: errors.New("missing code")}
	}
	verifier, err := c.store.TakeVerifier(ctx, sid)
	if err != nil {
		return &domain.AuthError{Op: "exchange code", Err: err}
	}
	if verifier == "" {
		return &domain.AuthError{Op: "exchange code", Err: errors.New("no sign-in pending for this browser")}
	}

	session, err := c.api.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return err
	}
	if err := c.store.SaveSession(ctx, sid, session, c.opts.SessionTTL); err != nil {
		return &domain.AuthError{Op: "exchange code", Err: err}
	}

	c.logger.Info("user signed in",
		logger.String("user_id", session.User.ID))
	c.emit(ctx, sid, Event{Type: SignedIn, Session: session})
	return nil
}

// SignOut asks the provider to end the session, forgets it locally and
// emits SIGNED_OUT. The remote logout is best effort.
func (c *Client) SignOut(ctx context.Context, sid string) error {
	var logoutErr error
	session, err := c.store.LoadSession(ctx, sid)
	if err == nil {
		logoutErr = c.api.Logout(ctx, session.AccessToken)
	}

	if err := c.store.DeleteSession(ctx, sid); err != nil {
		return &domain.AuthError{Op: "sign out", Err: err}
	}
	c.emit(ctx, sid, Event{Type: SignedOut})

	if logoutErr != nil {
		return fmt.Errorf("remote logout: %w", logoutErr)
	}
	return nil
}

// session loads the stored session and refreshes it when needed.
func (c *Client) session(ctx context.Context, sid string) (*domain.Session, error) {
	session, err := c.store.LoadSession(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, &domain.AuthError{Op: "load session", Err: ErrNoSession}
		}
		return nil, &domain.AuthError{Op: "load session", Err: err}
	}

	expiresAt := session.ExpiresAt
	if exp, err := c.tokens.Expiry(session.AccessToken); err == nil {
		expiresAt = exp
	} else {
		c.logger.Debug("falling back to stored expiry",
			logger.String("reason", err.Error()))
	}

	if c.now().Add(c.opts.RefreshMargin).Before(expiresAt) {
		return session, nil
	}

	// The refresh is shared by every caller of sid, so it must not die with
	// the request that happened to start it.
	ch := c.refresh.DoChan(sid, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refreshSession(rctx, sid, session)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Session), nil
	}
}

func (c *Client) refreshSession(ctx context.Context, sid string, old *domain.Session) (*domain.Session, error) {
	session, err := c.api.Refresh(ctx, old.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			// The refresh token is no longer accepted: the user is signed out.
			c.logger.Warn("session refresh rejected, signing out",
				logger.String("user_id", old.User.ID),
				logger.Error(err))
			_ = c.store.DeleteSession(ctx, sid)
			c.emit(ctx, sid, Event{Type: SignedOut})
		}
		return nil, err
	}

	if err := c.store.SaveSession(ctx, sid, session, c.opts.SessionTTL); err != nil {
		return nil, &domain.AuthError{Op: "refresh session", Err: err}
	}
	c.emit(ctx, sid, Event{Type: TokenRefreshed, Session: session})
	return session, nil
}

func (c *Client) emit(ctx context.Context, sid string, ev Event) {
	if err := c.pub.Publish(ctx, sid, ev); err != nil {
		c.logger.Warn("failed to publish auth event",
			logger.String("event", string(ev.Type)),
			logger.Error(err))
	}
}
