// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package postgres implements todo.ItemRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/tickit/tickit/internal/store"
	"github.com/tickit/tickit/internal/todo"
)

const itemColumns = `id, user_id, text, completed, created_at, updated_at`

// ItemRepository implements todo.ItemRepository using PostgreSQL.
type ItemRepository struct {
	pool store.Pool
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(pool store.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// Create inserts item as incomplete and fills in ID and CreatedAt.
func (r *ItemRepository) Create(ctx context.Context, item *todo.Item) error {
	item.Completed = false
	err := r.pool.QueryRow(ctx, `
		INSERT INTO todo_items (user_id, text, completed)
		VALUES ($1, $2, false)
		RETURNING id, created_at
	`, item.UserID, item.Text).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return oops.Code("ITEM_CREATE_FAILED").
			With("operation", "insert item").
			With("user_id", item.UserID).
			Wrap(err)
	}
	return nil
}

// ListByOwner returns the items of userID ordered by descending ID.
func (r *ItemRepository) ListByOwner(ctx context.Context, userID int64) ([]*todo.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM todo_items
		WHERE user_id = $1
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").
			With("operation", "list items").
			With("user_id", userID).
			Wrap(err)
	}
	defer rows.Close()

	items := make([]*todo.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, oops.Code("ITEM_LIST_FAILED").
				With("operation", "scan item").
				With("user_id", userID).
				Wrap(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").
			With("operation", "iterate items").
			With("user_id", userID).
			Wrap(err)
	}
	return items, nil
}

// GetByID retrieves an item regardless of owner.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*todo.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM todo_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id).Wrap(todo.ErrItemNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").
			With("operation", "get item by id").
			With("id", id).
			Wrap(err)
	}
	return item, nil
}

// UpdateCompletion sets completed and updated_at, leaving text and
// created_at untouched.
func (r *ItemRepository) UpdateCompletion(ctx context.Context, id int64, completed bool, at time.Time) (*todo.Item, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE todo_items SET completed = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+itemColumns, id, completed, at)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id).Wrap(todo.ErrItemNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_UPDATE_FAILED").
			With("operation", "update completion").
			With("id", id).
			Wrap(err)
	}
	return item, nil
}

// Delete hard-deletes an item.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM todo_items WHERE id = $1`, id)
	if err != nil {
		return oops.Code("ITEM_DELETE_FAILED").
			With("operation", "delete item").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ITEM_NOT_FOUND").With("id", id).Wrap(todo.ErrItemNotFound)
	}
	return nil
}

// scanItem scans one row. Errors, including pgx.ErrNoRows, are returned unwrapped.
func scanItem(row pgx.Row) (*todo.Item, error) {
	var item todo.Item
	err := row.Scan(&item.ID, &item.UserID, &item.Text, &item.Completed, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the operation code
	}
	return &item, nil
}

var _ todo.ItemRepository = (*ItemRepository)(nil)
