// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package mocks provides a testify mock of todo.ItemRepository.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tickit/tickit/internal/todo"
)

// MockItemRepository is a mock of todo.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

// NewMockItemRepository creates a mock that asserts its expectations at cleanup.
func NewMockItemRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockItemRepository {
	m := &MockItemRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockItemRepository) Create(ctx context.Context, item *todo.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) ListByOwner(ctx context.Context, userID int64) ([]*todo.Item, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]*todo.Item)
	return items, args.Error(1)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id int64) (*todo.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*todo.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) UpdateCompletion(ctx context.Context, id int64, completed bool, at time.Time) (*todo.Item, error) {
	args := m.Called(ctx, id, completed, at)
	item, _ := args.Get(0).(*todo.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ todo.ItemRepository = (*MockItemRepository)(nil)
