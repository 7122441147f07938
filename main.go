package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/penwyp/gitpane/cmd"
	"github.com/penwyp/gitpane/internal/errors"
)

// main 为 CLI 入口，调用 cmd.ExecuteContext。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	// 超时返回 124，其余按错误类型映射退出码
	handler := errors.NewErrorHandler()
	ce := handler.HandleCommandError(err)
	_, _ = fmt.Fprint(os.Stderr, handler.FormatError(ce))
	os.Exit(ce.ExitCode)
}
