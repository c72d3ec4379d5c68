package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{"status 429", errors.New("slow down"), 429, ErrorTypeRateLimit, true},
		{"status 401", errors.New("nope"), 401, ErrorTypeAuth, false},
		{"status 503", errors.New("busy"), 503, ErrorTypeTransient, true},
		{"status 400", errors.New("bad"), 400, ErrorTypeBadPrompt, false},
		{"rate limit text", errors.New("Rate limit exceeded"), 0, ErrorTypeRateLimit, true},
		{"refused", errors.New("dial tcp: connection refused"), 0, ErrorTypeTransient, true},
		{"missing model", errors.New(`model "llama3:8b" not found, try pulling it first`), 0, ErrorTypeBadPrompt, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), 0, ErrorTypeTransient, true},
		{"other", errors.New("something odd"), 0, ErrorTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.status, "test")
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.IsRetryable())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyKeepsExistingClassification(t *testing.T) {
	orig := NewError(ErrorTypeEmptyResponse, "empty")
	wrapped := fmt.Errorf("outer: %w", orig)

	got := Classify(wrapped, 500, "test")
	assert.Same(t, orig, got)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(NewError(ErrorTypeAuth, "bad key")))
	assert.False(t, IsRetryable(NewServiceUnavailableError(errors.New("x"), 3)))
	assert.True(t, Is(NewServiceUnavailableError(errors.New("x"), 3), ErrorTypeServiceUnavailable))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}
