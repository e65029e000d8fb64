// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package todo implements per-user to-do items with strict ownership.
package todo

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/tickit/tickit/pkg/errutil"
)

// MaxTextLength is the longest item text accepted, in characters.
const MaxTextLength = 500

// Client-facing failures.
var (
	ErrItemNotFound = errutil.NewPublic(errutil.KindNotFound, "Todo item not found")
	ErrNotOwner     = errutil.NewPublic(errutil.KindAuthorization, "Not authorized to access this item")
)

// Item is a single to-do entry. UserID never changes after creation.
type Item struct {
	ID        int64
	UserID    int64
	Text      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NormalizeText validates text and returns it with surrounding whitespace
// removed. Text longer than MaxTextLength or blank after trimming is rejected.
func NormalizeText(text string) (string, error) {
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", oops.Code("TODO_INVALID_TEXT").
			With("max", MaxTextLength).
			Wrap(errutil.NewFieldError("text", "String should have at most 500 characters"))
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", oops.Code("TODO_INVALID_TEXT").
			Wrap(errutil.NewFieldError("text", "Text cannot be empty"))
	}
	return trimmed, nil
}

// ItemRepository manages item persistence.
type ItemRepository interface {
	// Create inserts item with Completed=false and fills in ID and CreatedAt.
	Create(ctx context.Context, item *Item) error

	// ListByOwner returns every item of userID, highest ID first.
	ListByOwner(ctx context.Context, userID int64) ([]*Item, error)

	// GetByID returns ErrItemNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Item, error)

	// UpdateCompletion sets the completed flag and updated_at, returning the
	// stored row. Returns ErrItemNotFound if absent.
	UpdateCompletion(ctx context.Context, id int64, completed bool, at time.Time) (*Item, error)

	// Delete removes the row. Returns ErrItemNotFound if absent.
	Delete(ctx context.Context, id int64) error
}
