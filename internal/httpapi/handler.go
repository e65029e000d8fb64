// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/tickit/tickit/internal/auth"
	"github.com/tickit/tickit/internal/observability"
	"github.com/tickit/tickit/internal/store"
	"github.com/tickit/tickit/internal/todo"
	"github.com/tickit/tickit/pkg/errutil"
)

// AccountRegistrar creates accounts.
type AccountRegistrar interface {
	Register(ctx context.Context, username, password string) (*auth.User, error)
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// IdentityResolver maps a bearer token to its user.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.User, error)
}

// ItemStore is the owner-scoped item service.
type ItemStore interface {
	Create(ctx context.Context, userID int64, text string) (*todo.Item, error)
	ListAll(ctx context.Context, userID int64) ([]*todo.Item, error)
	SetCompletion(ctx context.Context, userID, itemID int64, completed bool) (*todo.Item, error)
	Delete(ctx context.Context, userID, itemID int64) error
}

// Deps are the collaborators of the API handler. Metrics, DB and Logger are
// optional; a nil DB reports the database as healthy.
type Deps struct {
	Registry      AccountRegistrar
	Authenticator Authenticator
	Resolver      IdentityResolver
	Items         ItemStore
	DB            store.Pinger
	Metrics       *observability.Metrics
	Logger        *slog.Logger
	Version       string
	CORSOrigins   []string
}

// Handler serves the JSON API.
type Handler struct {
	registry      AccountRegistrar
	authenticator Authenticator
	resolver      IdentityResolver
	items         ItemStore
	db            store.Pinger
	metrics       *observability.Metrics
	logger        *slog.Logger
	version       string
}

// NewHandler builds the API with its middleware chain applied.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Registry == nil || deps.Authenticator == nil || deps.Resolver == nil || deps.Items == nil {
		return nil, oops.Code("HTTPAPI_CONFIG_INVALID").Errorf("registry, authenticator, resolver and items are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cors, err := newCORSPolicy(deps.CORSOrigins)
	if err != nil {
		return nil, oops.Code("HTTPAPI_CONFIG_INVALID").With("field", "cors_origins").Wrap(err)
	}

	h := &Handler{
		registry:      deps.Registry,
		authenticator: deps.Authenticator,
		resolver:      deps.Resolver,
		items:         deps.Items,
		db:            deps.DB,
		metrics:       deps.Metrics,
		logger:        logger,
		version:       deps.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/todos", h.handleCreateItem)
	mux.HandleFunc("GET /api/todos", h.handleListItems)
	mux.HandleFunc("PATCH /api/todos/{id}", h.handleSetCompletion)
	mux.HandleFunc("DELETE /api/todos/{id}", h.handleDeleteItem)

	var chain http.Handler = mux
	chain = recoverPanics(chain, logger)
	chain = cors.wrap(chain)
	chain = instrument(chain, logger, deps.Metrics)
	return chain, nil
}

type credentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (c credentialsRequest) validate() error {
	if c.Username == nil {
		return missing("username")
	}
	if c.Password == nil {
		return missing("password")
	}
	return nil
}

type createItemRequest struct {
	Text *string `json:"text"`
}

type setCompletionRequest struct {
	Completed *bool `json:"completed"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        tokenUser `json:"user"`
}

type itemResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func newItemResponse(item *todo.Item) itemResponse {
	return itemResponse{
		ID:        item.ID,
		UserID:    item.UserID,
		Text:      item.Text,
		Completed: item.Completed,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "To-Do App API is running",
		"version": h.version,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "healthy"
	if h.db != nil {
		if err := store.Check(r.Context(), h.db); err != nil {
			h.logger.WarnContext(r.Context(), "database health check failed", "error", err)
			database = "unhealthy"
		}
	}

	// Always 200. Readiness gating is /healthz/readiness on the metrics listener.
	status := "healthy"
	if database != "healthy" {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"components": map[string]string{
			"api":      "healthy",
			"database": database,
		},
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, h.recordAuth("register"))
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, err, h.recordAuth("register"))
		return
	}

	user, err := h.registry.Register(r.Context(), *req.Username, *req.Password)
	if err != nil {
		h.fail(w, r, err, h.recordAuth("register"))
		return
	}
	h.metrics.RecordAuth("register", outcomeSuccess)
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, h.recordAuth("login"))
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, err, h.recordAuth("login"))
		return
	}

	result, err := h.authenticator.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		h.fail(w, r, err, h.recordAuth("login"))
		return
	}
	h.metrics.RecordAuth("login", outcomeSuccess)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		User:        tokenUser{ID: result.UserID, Username: result.Username},
	})
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	record := h.recordItem("create")
	user, err := h.authenticate(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}

	var req createItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, record)
		return
	}
	if req.Text == nil {
		h.fail(w, r, missing("text"), record)
		return
	}

	item, err := h.items.Create(r.Context(), user.ID, *req.Text)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}
	record(outcomeSuccess)
	writeJSON(w, http.StatusCreated, newItemResponse(item))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	record := h.recordItem("list")
	user, err := h.authenticate(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}

	items, err := h.items.ListAll(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newItemResponse(item))
	}
	record(outcomeSuccess)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSetCompletion(w http.ResponseWriter, r *http.Request) {
	record := h.recordItem("update")
	user, err := h.authenticate(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}

	var req setCompletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, record)
		return
	}
	if req.Completed == nil {
		h.fail(w, r, missing("completed"), record)
		return
	}

	item, err := h.items.SetCompletion(r.Context(), user.ID, id, *req.Completed)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}
	record(outcomeSuccess)
	writeJSON(w, http.StatusOK, newItemResponse(item))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	record := h.recordItem("delete")
	user, err := h.authenticate(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err, record)
		return
	}

	if err := h.items.Delete(r.Context(), user.ID, id); err != nil {
		h.fail(w, r, err, record)
		return
	}
	record(outcomeSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// authenticate resolves the bearer token of r.
func (h *Handler) authenticate(r *http.Request) (*auth.User, error) {
	user, err := h.resolver.Resolve(r.Context(), bearerToken(r))
	if err != nil {
		return nil, err //nolint:wrapcheck // resolver errors carry their own codes
	}
	return user, nil
}

// bearerToken returns the credentials of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

const outcomeSuccess = "success"

// outcome is the metrics label for err.
func outcome(err error) string {
	switch errutil.KindOf(err) {
	case errutil.KindValidation:
		return "invalid"
	case errutil.KindConflict:
		return "conflict"
	case errutil.KindAuthentication:
		return "unauthenticated"
	case errutil.KindAuthorization:
		return "forbidden"
	case errutil.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (h *Handler) recordAuth(event string) func(string) {
	return func(o string) { h.metrics.RecordAuth(event, o) }
}

func (h *Handler) recordItem(operation string) func(string) {
	return func(o string) { h.metrics.RecordItemOp(operation, o) }
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, record func(string)) {
	record(outcome(err))
	h.writeError(w, r, err)
}
