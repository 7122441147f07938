package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorHandler 错误处理器
type ErrorHandler struct{}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// HandleCommandError 将命令返回的错误转换为结构化的错误信息
func (h *ErrorHandler) HandleCommandError(err error) CommandError {
	if err == nil {
		return CommandError{ExitCode: ExitCodeSuccess}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CommandError{
			Message:     "Request timed out",
			Details:     err.Error(),
			Suggestion:  "Check the git server is reachable or raise --timeout",
			ExitCode:    ExitCodeTimeout,
			IsRetryable: true,
		}
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		ce := CommandError{
			Message:  fmt.Sprintf("Git server returned status %d", respErr.StatusCode),
			Details:  respErr.Message,
			ExitCode: ExitCodeResponseError,
		}
		switch respErr.StatusCode {
		case 401, 403:
			ce.Suggestion = "Check the server token (--token or GITPANE_TOKEN)"
		case 404:
			ce.Suggestion = "Check the server has the git extension enabled"
		default:
			if respErr.StatusCode >= 500 {
				ce.IsRetryable = true
			}
		}
		return ce
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return CommandError{
			Message:     "Network error occurred",
			Details:     netErr.Cause.Error(),
			Suggestion:  "Check the server base URL and that the server is running",
			ExitCode:    ExitCodeNetworkError,
			IsRetryable: true,
		}
	}

	var gpErr *GitpaneError
	if errors.As(err, &gpErr) {
		ce := CommandError{
			Message:     gpErr.Message,
			Suggestion:  gpErr.Suggestion,
			IsRetryable: gpErr.Retryable,
		}
		if gpErr.Cause != nil {
			ce.Details = gpErr.Cause.Error()
		}
		switch gpErr.Type {
		case ErrTypeOperation, ErrTypeAuth:
			ce.ExitCode = ExitCodeOperationFailed
		case ErrTypeCanceled:
			ce.ExitCode = ExitCodeCanceled
		case ErrTypeConfig:
			ce.ExitCode = ExitCodeConfigError
		case ErrTypeNetwork:
			ce.ExitCode = ExitCodeNetworkError
		case ErrTypeResponse:
			ce.ExitCode = ExitCodeResponseError
		case ErrTypeTimeout:
			ce.ExitCode = ExitCodeTimeout
		default:
			ce.ExitCode = ExitCodeGenericError
		}
		return ce
	}

	return CommandError{
		Message:  fmt.Sprintf("Error: %s", err.Error()),
		ExitCode: ExitCodeGenericError,
	}
}

// FormatError 格式化错误信息为用户友好的输出
func (h *ErrorHandler) FormatError(ce CommandError) string {
	var sb strings.Builder

	// 错误消息（红色）
	sb.WriteString(color.RedString("Error: %s\n", ce.Message))

	if ce.Details != "" {
		sb.WriteString(color.YellowString("Details: %s\n", ce.Details))
	}

	if ce.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(ce.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WrapError 包装错误，添加上下文信息
func (h *ErrorHandler) WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
