package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorHandler_HandleCommandError 测试命令错误处理
func TestErrorHandler_HandleCommandError(t *testing.T) {
	tests := []struct {
		name               string
		err                error
		expectedMessage    string
		expectedSuggestion string
		expectedExitCode   int
		expectedRetry      bool
	}{
		{
			name:             "nil error",
			err:              nil,
			expectedExitCode: ExitCodeSuccess,
		},
		{
			name:               "deadline exceeded",
			err:                fmt.Errorf("pull: %w", context.DeadlineExceeded),
			expectedMessage:    "Request timed out",
			expectedSuggestion: "--timeout",
			expectedExitCode:   ExitCodeTimeout,
			expectedRetry:      true,
		},
		{
			name:               "unauthorized response",
			err:                &ResponseError{Endpoint: "/git/pull", StatusCode: 403, Message: "forbidden"},
			expectedMessage:    "Git server returned status 403",
			expectedSuggestion: "token",
			expectedExitCode:   ExitCodeResponseError,
		},
		{
			name:             "server error response",
			err:              &ResponseError{Endpoint: "/git/pull", StatusCode: 502},
			expectedMessage:  "Git server returned status 502",
			expectedExitCode: ExitCodeResponseError,
			expectedRetry:    true,
		},
		{
			name:               "network error",
			err:                &NetworkError{Endpoint: "/git/push", Cause: errors.New("dial tcp: connection refused")},
			expectedMessage:    "Network error occurred",
			expectedSuggestion: "base URL",
			expectedExitCode:   ExitCodeNetworkError,
			expectedRetry:      true,
		},
		{
			name:             "operation failure",
			err:              New(ErrTypeOperation, "Pull failed"),
			expectedMessage:  "Pull failed",
			expectedExitCode: ExitCodeOperationFailed,
		},
		{
			name:             "canceled",
			err:              New(ErrTypeCanceled, "Push failed"),
			expectedMessage:  "Push failed",
			expectedExitCode: ExitCodeCanceled,
		},
		{
			name:               "config error",
			err:                ErrNoBaseURL,
			expectedMessage:    "server base URL is not set",
			expectedSuggestion: "GITPANE_BASE_URL",
			expectedExitCode:   ExitCodeConfigError,
		},
		{
			name:             "generic error",
			err:              fmt.Errorf("something went wrong"),
			expectedMessage:  "Error: something went wrong",
			expectedExitCode: ExitCodeGenericError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewErrorHandler()
			ce := handler.HandleCommandError(tt.err)

			assert.Equal(t, tt.expectedMessage, ce.Message)
			assert.Contains(t, ce.Suggestion, tt.expectedSuggestion)
			assert.Equal(t, tt.expectedExitCode, ce.ExitCode)
			assert.Equal(t, tt.expectedRetry, ce.IsRetryable)
		})
	}
}

// TestErrorHandler_FormatError 测试错误格式化
func TestErrorHandler_FormatError(t *testing.T) {
	handler := NewErrorHandler()
	output := handler.FormatError(CommandError{
		Message:    "Git server returned status 500",
		Details:    "internal error",
		Suggestion: "Try again later",
		ExitCode:   ExitCodeResponseError,
	})

	assert.Contains(t, output, "Error: Git server returned status 500")
	assert.Contains(t, output, "Details: internal error")
	assert.Contains(t, output, "Try again later")

	output = handler.FormatError(CommandError{Message: "Something went wrong"})
	assert.Contains(t, output, "Error: Something went wrong")
	assert.NotContains(t, output, "Details:")
}

// TestErrorHandler_WrapError 测试错误包装
func TestErrorHandler_WrapError(t *testing.T) {
	handler := NewErrorHandler()

	assert.Nil(t, handler.WrapError(nil, "ignored"))

	base := errors.New("file not found")
	wrapped := handler.WrapError(base, "reading config")
	assert.True(t, strings.HasPrefix(wrapped.Error(), "reading config:"))
	assert.ErrorIs(t, wrapped, base)
}
