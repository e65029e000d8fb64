// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickit/tickit/internal/auth"
	"github.com/tickit/tickit/pkg/errutil"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  string
	}{
		{"valid lowercase", "alice", ""},
		{"valid mixed case", "Alice_99", ""},
		{"digits only", "123", ""},
		{"leading underscore", "_bob", ""},
		{"minimum length", "abc", ""},
		{"maximum length", strings.Repeat("a", 50), ""},
		{"empty", "", "at least 3"},
		{"too short", "ab", "at least 3"},
		{"too long", strings.Repeat("a", 51), "at most 50"},
		{"hyphen", "bad-name", "only letters"},
		{"space", "bad name", "only letters"},
		{"non ascii letter", "zoë_user", "only letters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
			errutil.AssertKind(t, err, errutil.KindValidation)
			fe, ok := errutil.FieldErrorOf(err)
			require.True(t, ok)
			assert.Equal(t, "username", fe.Field)
			assert.Contains(t, fe.Message, tt.wantErr)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("password123"))
	assert.NoError(t, auth.ValidatePassword("12345678"))

	err := auth.ValidatePassword("short")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	fe, ok := errutil.FieldErrorOf(err)
	require.True(t, ok)
	assert.Equal(t, "password", fe.Field)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", auth.NormalizeUsername("Alice"))
	assert.Equal(t, "bob_1", auth.NormalizeUsername("BOB_1"))
	assert.Equal(t, auth.NormalizeUsername("X"), auth.NormalizeUsername("x"))
}
