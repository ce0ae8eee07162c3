package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Bookmark is a user-owned record of a title, URL and category.
//
// Rows are created and owned by the backend: ID and CreatedAt are assigned
// remotely at insert time, and the backend's row-level policy guarantees
// every row belongs to exactly one user.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (assigned by the backend)
	// ─────────────────────────────

	// ID is opaque. The backend may hand it out as a uuid or a number.
	ID ID `json:"id"`

	// ─────────────────────────────
	// User-provided fields
	// ─────────────────────────────

	// Title is the non-empty display text.
	Title string `json:"title"`

	// URL is the destination link, opened in a new browsing context.
	URL string `json:"url"`

	// Category is one of Categories().
	Category Category `json:"category"`

	// ─────────────────────────────
	// Ownership & ordering
	// ─────────────────────────────

	// UserID is set at creation from the current session.
	UserID string `json:"user_id"`

	// CreatedAt is only used for the default descending order.
	CreatedAt time.Time `json:"created_at"`
}

// Check reports whether a row received from the backend has the shape a
// Bookmark requires.
func (b Bookmark) Check() error {
	switch {
	case b.ID == "":
		return fmt.Errorf("%w: bookmark without id", ErrShape)
	case b.Title == "":
		return fmt.Errorf("%w: bookmark %s without title", ErrShape, b.ID)
	case b.URL == "":
		return fmt.Errorf("%w: bookmark %s without url", ErrShape, b.ID)
	case !b.Category.Valid():
		return fmt.Errorf("%w: bookmark %s has unknown category %q", ErrShape, b.ID, b.Category)
	case b.UserID == "":
		return fmt.Errorf("%w: bookmark %s without user_id", ErrShape, b.ID)
	case b.CreatedAt.IsZero():
		return fmt.Errorf("%w: bookmark %s without created_at", ErrShape, b.ID)
	}
	return nil
}

// ID is an opaque row identifier.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: invalid id: %v", ErrShape, err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: invalid id %s", ErrShape, data)
	}
	*id = ID(n.String())
	return nil
}

// Draft holds the add-form fields before they are sent to the backend.
type Draft struct {
	Title    string
	URL      string
	Category Category
}

// Validate is a client-side check only: title and url must be non-empty.
// Whitespace counts as content.
func (d Draft) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if d.URL == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	return nil
}

// Normalized returns the draft with its category defaulted.
func (d Draft) Normalized() Draft {
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	return d
}
