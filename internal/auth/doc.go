// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package auth provides the authentication and authorization core of Tickit.
//
// # Primitives
//
//   - PasswordHasher - salted one-way password digests (Argon2idHasher)
//   - TokenIssuer - signed, time-limited bearer tokens (JWTService)
//
// # Services
//
// Service types coordinate domain operations and are created with New*
// constructors that validate their dependencies:
//   - AccountRegistry - registration with case-insensitive username uniqueness
//   - SessionAuthenticator - credential verification producing a bearer token
//   - IdentityResolver - maps a presented bearer token to a stored User
//
// All failures are oops errors wrapping one of the errutil kind sentinels,
// so callers at the transport boundary can classify them with errutil.KindOf.
package auth
