package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", ErrTransientStorage, true},
		{"wrapped transient", fmt.Errorf("presign: %w", ErrTransientStorage), true},
		{"already viewed", ErrAlreadyViewed, false},
		{"expired", ErrExpired, false},
		{"denied", ErrPermissionDenied, false},
		{"rate limited", ErrRateLimited, false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrPermissionDenied, "permission_denied"},
		{fmt.Errorf("claim: %w", ErrAlreadyViewed), "already_viewed"},
		{ErrExpired, "expired"},
		{ErrRateLimited, "rate_limited"},
		{ErrTransientStorage, "transient_storage"},
		{ErrorNotFound, "not_found"},
		{ErrorValidation, "validation"},
		{ErrInvalidToken, "unauthenticated"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestFromCode_InvertsCode(t *testing.T) {
	for _, err := range []error{ErrPermissionDenied, ErrAlreadyViewed, ErrExpired, ErrRateLimited,
		ErrTransientStorage, ErrorNotFound, ErrorValidation} {
		assert.ErrorIs(t, FromCode(Code(err)), err)
	}
	assert.NoError(t, FromCode("ok"))
	assert.ErrorIs(t, FromCode("nonsense"), ErrorInternal)
}
