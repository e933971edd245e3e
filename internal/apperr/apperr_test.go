package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	base := New(KindNotFound, "GetTestByID", "test abc not found")
	wrapped := fmt.Errorf("handler: %w", base)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindPersistence, "CreateTest", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "CreateTest: connection reset", err.Error())
	assert.Nil(t, Wrap(KindPersistence, "noop", nil))
}

func TestUseFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"quota", Wrap(KindQuotaExceeded, "llm", errors.New("429")), true},
		{"rate limited", ErrRateLimited, true},
		{"unconfigured", New(KindUnconfigured, "llm", "no api key"), true},
		{"backend", New(KindBackend, "llm", "insufficient quota mentioned in text"), false},
		{"plain error", errors.New("quota"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UseFallback(tt.err))
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestCanceled(t *testing.T) {
	assert.NoError(t, Canceled(context.Background(), "op"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Canceled(ctx, "GenerateQuestions")
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, UseFallback(err))
}
