// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package httpapi exposes the account and to-do services as a JSON HTTP API.
//
// Routes:
//
//	POST   /api/auth/register   create an account
//	POST   /api/auth/login      exchange credentials for a bearer token
//	POST   /api/todos           create an item            (bearer)
//	GET    /api/todos           list own items            (bearer)
//	PATCH  /api/todos/{id}      set the completed flag    (bearer)
//	DELETE /api/todos/{id}      delete an item            (bearer)
//	GET    /                    service banner
//	GET    /health              database health
//
// Every failure is rendered by one function, writeError, which maps the
// errutil kind of the error to a status code.
package httpapi
