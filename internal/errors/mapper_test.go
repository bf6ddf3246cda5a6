package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{PermissionDenied("cannot read ~/.ssh/id_rsa"), "ErrPermissionDenied"},
		{InvalidInput("bad flag"), "ErrInvalidInput"},
		{NotFound("task"), "ErrNotFound"},
		{Conflict("lock held"), "ErrConflict"},
		{Transient("HTTP 429"), "ErrTransient"},
		{Internal("boom"), "ErrInternal"},
		{errors.New("plain"), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.err))
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsRetryable(Transient("server error: HTTP 503")))
	assert.False(t, IsRetryable(InvalidInput("client error: HTTP 400")))
	assert.False(t, IsRetryable(PermissionDenied("unauthorized")))
}

func TestWrapPreservesCategory(t *testing.T) {
	err := Wrap(Transient("timeout"), "create post")
	assert.True(t, IsCategory(err, ErrTransient))
	assert.Nil(t, Wrap(nil, "noop"))
	assert.Equal(t, "create post: timeout: transient error", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "invalid input", err: InvalidInput("bad flag"), want: 2},
		{name: "permission denied", err: PermissionDenied("blocked"), want: 3},
		{name: "not found", err: NotFound("missing"), want: 4},
		{name: "conflict", err: Conflict("locked"), want: 5},
		{name: "wrapped conflict", err: Wrap(Conflict("locked"), "schedule"), want: 5},
		{name: "transient", err: Transient("HTTP 503"), want: 75},
		{name: "plain", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
