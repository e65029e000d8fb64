// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

//go:build integration

package store_test

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/tickit/tickit/internal/auth"
	authpg "github.com/tickit/tickit/internal/auth/postgres"
	"github.com/tickit/tickit/internal/store"
	"github.com/tickit/tickit/internal/todo"
	todopg "github.com/tickit/tickit/internal/todo/postgres"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(migrator.Close()).To(Succeed()) })
		Expect(migrator.Down()).To(Succeed())
	})

	It("starts at version 0 with every migration pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(Equal([]uint{1, 2}))
		Expect(status.UpToDate()).To(BeFalse())
	})

	It("applies, steps, and reverts migrations", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "a second Up is a no-op")

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Steps(1)).To(Succeed())
		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("forces a version and reports it as pending-aware status", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Force(1)).To(Succeed())

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(Equal(uint(1)))
		Expect(status.Name).To(Equal("000001_create_users"))
		Expect(status.Pending).To(Equal([]uint{2}))
		Expect(status.PendingName).To(Equal([]string{"000002_create_todo_items"}))

		Expect(migrator.Force(2)).To(Succeed())
		status, err = migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.UpToDate()).To(BeTrue())
	})
})

func connectPool() *pgxpool.Pool {
	pool, err := store.Open(suiteCtx, connStr, store.WithConnectAttempts(3), store.WithConnectBackoff(100*time.Millisecond))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	DeferCleanup(pool.Close)
	return pool
}

var _ = Describe("Repositories", Ordered, func() {
	var (
		pool  *pgxpool.Pool
		users *authpg.UserRepository
		items *todopg.ItemRepository
	)

	BeforeAll(func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool = connectPool()
		users = authpg.NewUserRepository(pool)
		items = todopg.NewItemRepository(pool)
	})

	BeforeEach(func() {
		_, err := pool.Exec(suiteCtx, `TRUNCATE todo_items, users RESTART IDENTITY CASCADE`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("passes the health check", func() {
		Expect(store.Check(suiteCtx, pool)).To(Succeed())
	})

	It("enforces case-insensitive username uniqueness at the index", func() {
		Expect(users.Create(suiteCtx, &auth.User{Username: "alice", PasswordHash: "h", CreatedAt: time.Now()})).To(Succeed())

		err := users.Create(suiteCtx, &auth.User{Username: "ALICE", PasswordHash: "h", CreatedAt: time.Now()})
		Expect(errors.Is(err, auth.ErrUsernameTaken)).To(BeTrue(), "got %v", err)

		found, err := users.GetByUsername(suiteCtx, "Alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Username).To(Equal("alice"))
	})

	It("updates completion without touching text or creation time", func() {
		owner := &auth.User{Username: "bob", PasswordHash: "h", CreatedAt: time.Now()}
		Expect(users.Create(suiteCtx, owner)).To(Succeed())

		item := &todo.Item{UserID: owner.ID, Text: "milk", CreatedAt: time.Now().UTC()}
		Expect(items.Create(suiteCtx, item)).To(Succeed())

		at := time.Now().UTC()
		updated, err := items.UpdateCompletion(suiteCtx, item.ID, true, at)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Completed).To(BeTrue())
		Expect(updated.Text).To(Equal("milk"))
		Expect(updated.CreatedAt).To(BeTemporally("~", item.CreatedAt, time.Millisecond))
		Expect(updated.UpdatedAt).NotTo(BeNil())
	})

	It("deletes a user's items along with the user", func() {
		owner := &auth.User{Username: "carol", PasswordHash: "h", CreatedAt: time.Now()}
		Expect(users.Create(suiteCtx, owner)).To(Succeed())
		for _, text := range []string{"a", "b", "c"} {
			Expect(items.Create(suiteCtx, &todo.Item{UserID: owner.ID, Text: text, CreatedAt: time.Now()})).To(Succeed())
		}

		Expect(users.Delete(suiteCtx, owner.ID)).To(Succeed())

		left, err := items.ListByOwner(suiteCtx, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(left).To(BeEmpty())

		_, err = users.GetByID(suiteCtx, owner.ID)
		Expect(errors.Is(err, auth.ErrUserNotFound)).To(BeTrue())
		Expect(errors.Is(users.Delete(suiteCtx, owner.ID), auth.ErrUserNotFound)).To(BeTrue())
	})

	It("rejects items for unknown owners through the foreign key", func() {
		err := items.Create(suiteCtx, &todo.Item{UserID: 4242, Text: "orphan", CreatedAt: time.Now()})
		Expect(err).To(HaveOccurred())
	})
})
