// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/require"

	"github.com/tickit/tickit/internal/auth"
	"github.com/tickit/tickit/internal/httpapi"
	"github.com/tickit/tickit/internal/observability"
	"github.com/tickit/tickit/internal/todo"
)

const testSecret = "httpapi-test-secret-0123456789abcdef"

// memStore backs both repositories so deleting a user drops its items.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*auth.User
	items  map[int64]*todo.Item
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*auth.User{}, items: map[int64]*todo.Item{}}
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return oops.Code("USER_USERNAME_TAKEN").Wrap(auth.ErrUsernameTaken)
		}
	}
	r.s.nextID++
	user.ID = r.s.nextID
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrUserNotFound)
	}
	out := *u
	return &out, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrUserNotFound)
}

func (r memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrUserNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrUserNotFound)
	}
	for itemID, item := range r.s.items {
		if item.UserID == id {
			delete(r.s.items, itemID)
		}
	}
	delete(r.s.users, id)
	return nil
}

type memItems struct{ s *memStore }

func (r memItems) Create(_ context.Context, item *todo.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	item.ID = r.s.nextID
	stored := *item
	r.s.items[item.ID] = &stored
	return nil
}

func (r memItems) ListByOwner(_ context.Context, userID int64) ([]*todo.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*todo.Item
	for _, item := range r.s.items {
		if item.UserID == userID {
			c := *item
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *todo.Item) int { return int(b.ID - a.ID) })
	return out, nil
}

func (r memItems) GetByID(_ context.Context, id int64) (*todo.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, oops.Code("ITEM_NOT_FOUND").Wrap(todo.ErrItemNotFound)
	}
	c := *item
	return &c, nil
}

func (r memItems) UpdateCompletion(_ context.Context, id int64, completed bool, at time.Time) (*todo.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, oops.Code("ITEM_NOT_FOUND").Wrap(todo.ErrItemNotFound)
	}
	item.Completed = completed
	item.UpdatedAt = &at
	c := *item
	return &c, nil
}

func (r memItems) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return oops.Code("ITEM_NOT_FOUND").Wrap(todo.ErrItemNotFound)
	}
	delete(r.s.items, id)
	return nil
}

// fakePinger is a database whose health is set by the test.
type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type apiFixture struct {
	handler  http.Handler
	store    *memStore
	registry *auth.AccountRegistry
	tokens   *auth.JWTService
	metrics  *observability.Metrics
	logs     *bytes.Buffer
}

type fixtureOption func(*httpapi.Deps)

func withDB(p fakePinger) fixtureOption {
	return func(d *httpapi.Deps) { d.DB = p }
}

func withItems(items httpapi.ItemStore) fixtureOption {
	return func(d *httpapi.Deps) { d.Items = items }
}

func newFixture(t *testing.T, opts ...fixtureOption) *apiFixture {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mem := newMemStore()
	users := memUsers{s: mem}
	hasher := auth.NewArgon2idHasher()

	tokens, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	registry, err := auth.NewAccountRegistry(users, hasher, auth.WithLogger(logger))
	require.NoError(t, err)
	authenticator, err := auth.NewSessionAuthenticator(users, hasher, tokens, auth.WithLogger(logger))
	require.NoError(t, err)
	resolver, err := auth.NewIdentityResolver(tokens, users, auth.WithLogger(logger))
	require.NoError(t, err)
	items, err := todo.NewService(memItems{s: mem}, todo.WithLogger(logger))
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	deps := httpapi.Deps{
		Registry:      registry,
		Authenticator: authenticator,
		Resolver:      resolver,
		Items:         items,
		Metrics:       metrics,
		Logger:        logger,
		Version:       "1.2.3",
		CORSOrigins:   []string{"http://localhost:*"},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	handler, err := httpapi.NewHandler(deps)
	require.NoError(t, err)
	return &apiFixture{
		handler:  handler,
		store:    mem,
		registry: registry,
		tokens:   tokens,
		metrics:  metrics,
		logs:     logs,
	}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), "body: %s", r.body)
	return out
}

func (r response) list(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), "body: %s", r.body)
	return out
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return response{status: rec.Code, header: rec.Header(), body: rec.Body.Bytes()}
}

func (f *apiFixture) register(t *testing.T, username, password string) int64 {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.status, "body: %s", resp.body)
	return int64(resp.json(t)["id"].(float64))
}

func (f *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	return resp.json(t)["access_token"].(string)
}

// signup registers and logs in, returning a bearer token.
func (f *apiFixture) signup(t *testing.T, username string) string {
	t.Helper()
	f.register(t, username, "password123")
	return f.login(t, username, "password123")
}

func (f *apiFixture) createItem(t *testing.T, token, text string) int64 {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/todos", token, map[string]string{"text": text})
	require.Equal(t, http.StatusCreated, resp.status, "body: %s", resp.body)
	return int64(resp.json(t)["id"].(float64))
}
