package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const authPath = "/auth/v1"

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u userResponse) toUser() (domain.User, error) {
	if u.ID == "" {
		return domain.User{}, fmt.Errorf("%w: user without id", domain.ErrShape)
	}
	return domain.User{ID: u.ID, Email: u.Email}, nil
}

func (t tokenResponse) toSession(now time.Time) (*domain.Session, error) {
	if t.AccessToken == "" || t.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token response without tokens", domain.ErrShape)
	}
	user, err := t.User.toUser()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	if t.ExpiresAt > 0 {
		expiresAt = time.Unix(t.ExpiresAt, 0)
	}

	return &domain.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expiresAt.UTC(),
		User:         user,
	}, nil
}

// AuthorizeURL returns the URL the browser is redirected to in order to
// start the OAuth flow with provider. challenge is the PKCE S256 challenge.
func (c *Client) AuthorizeURL(provider, redirectTo, challenge string) string {
	query := url.Values{}
	query.Set("provider", provider)
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	if challenge != "" {
		query.Set("code_challenge", challenge)
		query.Set("code_challenge_method", "s256")
	}
	return c.endpoint(authPath+"/authorize", query)
}

// ExchangeCode trades the callback code and the PKCE verifier for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*domain.Session, error) {
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	return c.token(ctx, "pkce", body, "exchange code")
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return c.token(ctx, "refresh_token", body, "refresh session")
}

func (c *Client) token(ctx context.Context, grant string, body any, op string) (*domain.Session, error) {
	query := url.Values{}
	query.Set("grant_type", grant)

	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/token", query, "", body)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := c.do(req, op, func(r io.Reader) error { return decodeLoose(r, &resp) }); err != nil {
		return nil, authError(op, err)
	}

	session, err := resp.toSession(time.Now())
	if err != nil {
		return nil, authError(op, err)
	}
	return session, nil
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, authPath+"/user", nil, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var resp userResponse
	if err := c.do(req, "get user", func(r io.Reader) error { return decodeLoose(r, &resp) }); err != nil {
		return nil, authError("get user", err)
	}

	user, err := resp.toUser()
	if err != nil {
		return nil, authError("get user", err)
	}
	return &user, nil
}

// Logout ends the session the access token belongs to.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, authPath+"/logout", nil, accessToken, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, "logout", nil); err != nil {
		return authError("logout", err)
	}
	return nil
}

// Health pings the auth service.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, authPath+"/health", nil, "", nil)
	if err != nil {
		return err
	}
	return c.do(req, "health", nil)
}

// authError turns rejected credentials into AuthError and keeps transport
// failures as they are.
func authError(op string, err error) error {
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.Status >= 400 && netErr.Status < 500 {
		return &domain.AuthError{Op: op, Err: err}
	}
	if errors.Is(err, domain.ErrShape) {
		return &domain.AuthError{Op: op, Err: err}
	}
	return err
}
