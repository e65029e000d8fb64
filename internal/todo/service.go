// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package todo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Service is the ownership-checked item store. Every operation is scoped to
// the acting user's items.
type Service struct {
	items  ItemRepository
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for modification timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(items ItemRepository, opts ...ServiceOption) (*Service, error) {
	if items == nil {
		return nil, oops.Code("TODO_CONFIG_INVALID").Errorf("item repository is required")
	}
	s := &Service{items: items, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create stores a new incomplete item for userID.
func (s *Service) Create(ctx context.Context, userID int64, text string) (*Item, error) {
	normalized, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	item := &Item{UserID: userID, Text: normalized}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, oops.Code("TODO_CREATE_FAILED").
			With("user_id", userID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "todo created", "user_id", userID, "item_id", item.ID)
	return item, nil
}

// ListAll returns every item owned by userID, newest first.
func (s *Service) ListAll(ctx context.Context, userID int64) ([]*Item, error) {
	items, err := s.items.ListByOwner(ctx, userID)
	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

// SetCompletion changes the completed flag of an item owned by userID.
func (s *Service) SetCompletion(ctx context.Context, userID, itemID int64, completed bool) (*Item, error) {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return nil, err
	}

	item, err := s.items.UpdateCompletion(ctx, itemID, completed, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, oops.Code("TODO_NOT_FOUND").With("item_id", itemID).Wrap(ErrItemNotFound)
		}
		return nil, oops.Code("TODO_UPDATE_FAILED").
			With("user_id", userID).
			With("item_id", itemID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "todo updated", "user_id", userID, "item_id", itemID, "completed", completed)
	return item, nil
}

// Delete permanently removes an item owned by userID.
func (s *Service) Delete(ctx context.Context, userID, itemID int64) error {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return oops.Code("TODO_NOT_FOUND").With("item_id", itemID).Wrap(ErrItemNotFound)
		}
		return oops.Code("TODO_DELETE_FAILED").
			With("user_id", userID).
			With("item_id", itemID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "todo deleted", "user_id", userID, "item_id", itemID)
	return nil
}

// owned loads itemID and checks it belongs to userID. Existence is checked
// first: a missing id is always not-found, whoever asks.
func (s *Service) owned(ctx context.Context, userID, itemID int64) (*Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, oops.Code("TODO_NOT_FOUND").With("item_id", itemID).Wrap(ErrItemNotFound)
		}
		return nil, oops.Code("TODO_GET_FAILED").
			With("item_id", itemID).
			Wrap(err)
	}
	if item.UserID != userID {
		s.logger.WarnContext(ctx, "todo access denied", "user_id", userID, "item_id", itemID)
		return nil, oops.Code("TODO_NOT_OWNER").
			With("user_id", userID).
			With("item_id", itemID).
			Wrap(ErrNotOwner)
	}
	return item, nil
}
