package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Table is the name of the bookmarks table exposed by the backend.
const Table = "bookmarks"

const tablePath = "/rest/v1/" + Table

// insertRow is the payload of an insert request.
type insertRow struct {
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Category domain.Category `json:"category"`
	UserID   string          `json:"user_id"`
}

// List selects every row visible to the token's user, newest first.
// Row scoping is the backend's access policy; no user filter is sent.
func (c *Client) List(ctx context.Context, accessToken string) ([]domain.Bookmark, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")

	req, err := c.newRequest(ctx, http.MethodGet, tablePath, query, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var rows []domain.Bookmark
	err = c.do(req, "list bookmarks", func(r io.Reader) error {
		if err := decodeStrict(r, &rows); err != nil {
			return err
		}
		for _, row := range rows {
			if err := row.Check(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []domain.Bookmark{}
	}
	return rows, nil
}

// Insert creates one row owned by userID.
func (c *Client) Insert(ctx context.Context, accessToken string, draft domain.Draft, userID string) error {
	draft = draft.Normalized()
	body := []insertRow{{
		Title:    draft.Title,
		URL:      draft.URL,
		Category: draft.Category,
		UserID:   userID,
	}}

	req, err := c.newRequest(ctx, http.MethodPost, tablePath, nil, accessToken, body)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	return c.do(req, "insert bookmark", nil)
}

// Delete removes the row with the given id.
func (c *Client) Delete(ctx context.Context, accessToken string, id domain.ID) error {
	if id == "" {
		return fmt.Errorf("%w: empty bookmark id", domain.ErrValidation)
	}
	query := url.Values{}
	query.Set("id", "eq."+id.String())

	req, err := c.newRequest(ctx, http.MethodDelete, tablePath, query, accessToken, nil)
	if err != nil {
		return err
	}

	return c.do(req, "delete bookmark", nil)
}
