package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType int

const (
	// ErrTypeUnknown 未知错误
	ErrTypeUnknown ErrorType = iota
	// ErrTypeNetwork 传输层错误（DNS、连接重置等）
	ErrTypeNetwork
	// ErrTypeResponse 后端返回非 200 或响应体无法解析
	ErrTypeResponse
	// ErrTypeOperation git 命令返回非零 code
	ErrTypeOperation
	// ErrTypeAuth 认证相关错误
	ErrTypeAuth
	// ErrTypeCanceled 用户取消
	ErrTypeCanceled
	// ErrTypeConfig 配置相关错误
	ErrTypeConfig
	// ErrTypeValidation 验证错误
	ErrTypeValidation
	// ErrTypeTimeout 超时错误
	ErrTypeTimeout
)

// String returns a short lowercase name used in log fields.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNetwork:
		return "network"
	case ErrTypeResponse:
		return "response"
	case ErrTypeOperation:
		return "operation"
	case ErrTypeAuth:
		return "auth"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeConfig:
		return "config"
	case ErrTypeValidation:
		return "validation"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// GitpaneError 统一错误结构
type GitpaneError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Retryable  bool
	Suggestion string
}

// Error 实现 error 接口
func (e *GitpaneError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *GitpaneError) Unwrap() error {
	return e.Cause
}

// WithSuggestion 添加解决建议
func (e *GitpaneError) WithSuggestion(suggestion string) *GitpaneError {
	e.Suggestion = suggestion
	return e
}

// IsRetryable 检查错误是否可重试
func (e *GitpaneError) IsRetryable() bool {
	return e.Retryable
}

// New 创建新的 GitpaneError
func New(errType ErrorType, message string) *GitpaneError {
	return &GitpaneError{
		Type:    errType,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(errType ErrorType, message string, cause error) *GitpaneError {
	return &GitpaneError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewRetryable 创建可重试错误
func NewRetryable(errType ErrorType, message string) *GitpaneError {
	return &GitpaneError{
		Type:      errType,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable 包装可重试错误
func WrapRetryable(errType ErrorType, message string, cause error) *GitpaneError {
	return &GitpaneError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// ResponseError is returned when the backend answers with a status other
// than 200. Message is the "message" field of a JSON error body, or the raw
// body text when the body is not JSON.
type ResponseError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// NetworkError wraps a transport fault (DNS, refused connection, reset...).
type NetworkError struct {
	Endpoint string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// 预定义的常见错误
var (
	// 仓库相关错误
	ErrNotGitRepo = New(ErrTypeOperation, "current path is not inside a git repository").WithSuggestion("run 'gitpane init' or choose another path")

	// 网络相关错误
	ErrNetworkTimeout = NewRetryable(ErrTypeTimeout, "request to git server timed out").WithSuggestion("check the server is running or raise --timeout")

	// 配置相关错误
	ErrConfigNotFound = New(ErrTypeConfig, "config file not found")
	ErrConfigParse    = New(ErrTypeConfig, "failed to parse config file").WithSuggestion("check the file is valid YAML or JSON")
	ErrNoBaseURL      = New(ErrTypeConfig, "server base URL is not set").WithSuggestion("set server.base_url in the config, GITPANE_BASE_URL, or --base-url")

	// 验证错误
	ErrInvalidInput     = New(ErrTypeValidation, "invalid input")
	ErrMissingParameter = New(ErrTypeValidation, "missing required parameter")
)

// Is 检查是否为特定错误
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As 尝试转换为特定错误类型
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetType 获取错误类型
func GetType(err error) ErrorType {
	var gpErr *GitpaneError
	if errors.As(err, &gpErr) {
		return gpErr.Type
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return ErrTypeResponse
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ErrTypeNetwork
	}
	return ErrTypeUnknown
}

// IsRetryable 检查错误是否可重试
func IsRetryable(err error) bool {
	var gpErr *GitpaneError
	if errors.As(err, &gpErr) {
		return gpErr.IsRetryable()
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// GetSuggestion 获取错误建议
func GetSuggestion(err error) string {
	var gpErr *GitpaneError
	if errors.As(err, &gpErr) {
		return gpErr.Suggestion
	}
	return ""
}

// FormatError 格式化错误输出
func FormatError(err error) string {
	var gpErr *GitpaneError
	if !errors.As(err, &gpErr) {
		return err.Error()
	}

	msg := gpErr.Error()
	if gpErr.Suggestion != "" {
		msg += fmt.Sprintf("\n💡 %s", gpErr.Suggestion)
	}
	return msg
}
