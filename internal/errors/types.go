package errors

// Exit codes for different error types
const (
	ExitCodeSuccess         = 0
	ExitCodeGenericError    = 1
	ExitCodeOperationFailed = 2
	ExitCodeCanceled        = 3
	ExitCodeNetworkError    = 4
	ExitCodeResponseError   = 5
	ExitCodeConfigError     = 6
	ExitCodeTimeout         = 124 // Standard timeout exit code
)

// CommandError 包含命令执行失败时展示给用户的信息
type CommandError struct {
	Message     string // 用户友好的错误消息
	Details     string // 详细的错误信息（可选）
	Suggestion  string // 建议的解决方案
	ExitCode    int    // 退出码
	IsRetryable bool   // 是否可以重试
}
