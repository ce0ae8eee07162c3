package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

const (
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// Options configures the backend client.
type Options struct {
	BaseURL    string        // project URL, ex: https://xyz.supabase.co
	AnonKey    string        // public anon key sent as apikey on every request
	Timeout    time.Duration // per-request timeout (default: 10s)
	HTTPClient *http.Client  // optional, for tests
}

// Client talks to the hosted backend-as-a-service: its auth endpoints
// under /auth/v1 and its bookmarks table under /rest/v1.
type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client
}

// New validates options and builds a client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if opts.AnonKey == "" {
		return nil, errors.New("backend anon key is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend base URL scheme %q", base.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, anonKey: opts.AnonKey, http: hc}, nil
}

// endpoint joins path and query onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, token string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	return req, nil
}

// do executes req and hands the body of a 2xx response to decode (if set).
func (c *Client) do(req *http.Request, op string, decode func(io.Reader) error) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(errorMessage(resp.Body))}
	}

	if decode == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decode(resp.Body); err != nil {
		return &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// errorMessage extracts the most useful text from an error body.
// Auth endpoints use msg/error_description, the table endpoint uses message.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, s := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
			if s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "empty error response"
}

// decodeStrict decodes a JSON value and rejects unknown fields.
func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, domain.ErrShape) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrShape, err)
	}
	return nil
}

// decodeLoose decodes a JSON value, ignoring fields the client does not use.
func decodeLoose(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrShape, err)
	}
	return nil
}
