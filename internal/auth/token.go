// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the validity period of an access token when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenType is the OAuth-style token type reported to clients.
const TokenType = "bearer"

// Identity is the verified content of a bearer token.
type Identity struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

// TokenIssuer issues and validates bearer tokens.
type TokenIssuer interface {
	// Issue signs a token for the user that expires ttl from now.
	// A non-positive ttl uses the issuer's default.
	Issue(userID int64, username string, ttl time.Duration) (token string, expiresAt time.Time, err error)

	// Validate verifies signature and expiry and extracts the identity.
	// Every failure wraps ErrInvalidToken.
	Validate(token string) (Identity, error)
}

// tokenClaims is the JWT payload: sub carries the decimal user id.
type tokenClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTService implements TokenIssuer with HS256-signed JWTs. Tokens are
// stateless: there is no revocation, a token stays valid until it expires.
type JWTService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// JWTOption configures a JWTService.
type JWTOption func(*JWTService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(s *JWTService) {
		s.now = now
	}
}

// NewJWTService creates a JWTService signing with secret.
func NewJWTService(secret string, defaultTTL time.Duration, opts ...JWTOption) (*JWTService, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_TOKEN_CONFIG_INVALID").Errorf("token signing secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	s := &JWTService{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token carrying the user id as subject and the username.
func (s *JWTService) Issue(userID int64, username string, ttl time.Duration) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("user_id", userID).
			Errorf("user id must be positive")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	return signed, expiresAt, nil
}

// Validate parses token, checking the HMAC signature and the exp claim.
func (s *JWTService) Validate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, oops.Code("AUTH_TOKEN_MISSING").Wrap(ErrMissingToken)
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, oops.Code(tokenErrorCode(err)).
			With("reason", err.Error()).
			Wrap(ErrInvalidToken)
	}

	if claims.Subject == "" {
		return Identity{}, oops.Code("AUTH_TOKEN_SUBJECT_MISSING").Wrap(ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, oops.Code("AUTH_TOKEN_SUBJECT_INVALID").
			With("subject", claims.Subject).
			Wrap(ErrInvalidToken)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Identity{
		UserID:    userID,
		Username:  claims.Username,
		ExpiresAt: expiresAt,
	}, nil
}

func tokenErrorCode(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "AUTH_TOKEN_EXPIRED"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return "AUTH_TOKEN_SIGNATURE_INVALID"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "AUTH_TOKEN_MALFORMED"
	default:
		return "AUTH_TOKEN_INVALID"
	}
}

var _ TokenIssuer = (*JWTService)(nil)
