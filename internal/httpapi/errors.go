// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/tickit/tickit/internal/auth"
	"github.com/tickit/tickit/pkg/errutil"
)

const internalErrorDetail = "Internal server error"

// issue is one entry of a validation error body.
type issue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// requestError reports input the handler rejected before calling a service.
type requestError struct {
	issues []issue
}

func newRequestError(loc []any, msg, typ string) *requestError {
	return &requestError{issues: []issue{{Loc: loc, Msg: msg, Type: typ}}}
}

func (e *requestError) Error() string {
	if len(e.issues) == 0 {
		return "invalid request"
	}
	return e.issues[0].Msg
}

func (e *requestError) Unwrap() error {
	return errutil.ErrValidation
}

type detailBody struct {
	Detail any `json:"detail"`
}

// writeError renders err. Only client-safe messages are ever written; any
// unclassified error is logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: reqErr.issues})
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, detailBody{Detail: "Request body too large"})
		return
	}

	switch errutil.KindOf(err) {
	case errutil.KindValidation:
		if fe, ok := errutil.FieldErrorOf(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: []issue{{
				Loc:  []any{"body", fe.Field},
				Msg:  fe.Message,
				Type: "value_error",
			}}})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: publicMessage(err, http.StatusUnprocessableEntity)})
	case errutil.KindConflict:
		writeJSON(w, http.StatusConflict, detailBody{Detail: publicMessage(err, http.StatusConflict)})
	case errutil.KindAuthentication:
		if errors.Is(err, auth.ErrMissingToken) {
			writeJSON(w, http.StatusForbidden, detailBody{Detail: publicMessage(err, http.StatusForbidden)})
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, detailBody{Detail: publicMessage(err, http.StatusUnauthorized)})
	case errutil.KindAuthorization:
		writeJSON(w, http.StatusForbidden, detailBody{Detail: publicMessage(err, http.StatusForbidden)})
	case errutil.KindNotFound:
		writeJSON(w, http.StatusNotFound, detailBody{Detail: publicMessage(err, http.StatusNotFound)})
	default:
		errutil.LogError(r.Context(), h.logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusInternalServerError, detailBody{Detail: internalErrorDetail})
	}
}

func publicMessage(err error, status int) string {
	if msg, ok := errutil.PublicMessage(err); ok {
		return msg
	}
	return http.StatusText(status)
}
