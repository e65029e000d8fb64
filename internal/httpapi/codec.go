// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// maxBodyBytes bounds request bodies; the largest valid body is an item text.
const maxBodyBytes = 64 << 10

// decodeJSON reads a single JSON object from r into dst. Shape errors are
// returned as *requestError so they render as 422 with a body location.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return err
	case errors.Is(err, io.EOF):
		return newRequestError([]any{"body"}, "Field required", "missing")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return newRequestError([]any{"body"}, "JSON decode error", "json_invalid")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return newRequestError([]any{"body"}, "Input should be a valid dictionary", "dict_type")
		}
		loc := []any{"body"}
		for _, part := range strings.Split(typeErr.Field, ".") {
			loc = append(loc, part)
		}
		msg, typ := typeMismatch(typeErr.Type)
		return newRequestError(loc, msg, typ)
	default:
		return newRequestError([]any{"body"}, "JSON decode error", "json_invalid")
	}
}

func typeMismatch(want reflect.Type) (string, string) {
	for want.Kind() == reflect.Pointer {
		want = want.Elem()
	}
	switch want.Kind() {
	case reflect.Bool:
		return "Input should be a valid boolean", "bool_type"
	case reflect.String:
		return "Input should be a valid string", "string_type"
	case reflect.Int, reflect.Int64:
		return "Input should be a valid integer", "int_type"
	default:
		return "Input has an invalid type", "type_error"
	}
}

// missing returns a "Field required" error for a body field.
func missing(field string) error {
	return newRequestError([]any{"body", field}, "Field required", "missing")
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, newRequestError([]any{"path", "id"},
			"Input should be a valid integer, unable to parse string as an integer", "int_parsing")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response write failed", "status", status, "error", err)
	}
}
