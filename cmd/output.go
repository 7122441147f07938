package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/internal/errors"
)

// renderStatusBar 渲染带样式的状态条
func renderStatusBar(message string, isSuccess bool) string {
	var style lipgloss.Style
	if isSuccess {
		style = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)
	} else {
		style = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // Blue
			Bold(true)
	}

	// 创建进度指示符
	indicator := "▶"
	if isSuccess {
		indicator = "✓"
	}
	return style.Render(indicator + " " + message)
}

// renderTable 渲染统一风格的表格
func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("245"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			// 第 0 行为表头，数据行从 1 开始
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func writeln(w io.Writer, a ...interface{}) {
	_, _ = fmt.Fprintln(w, a...)
}

// checkCode 将 git 命令的非零 code 转换为错误
func checkCode(operation string, code int, message string) error {
	if code == 0 {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("exit code %d", code)
	}
	return errors.New(errors.ErrTypeOperation, fmt.Sprintf("%s failed: %s", operation, message))
}

// checkRaw 检查原始响应，body 不是 {code, message} 时视为成功
func checkRaw(operation string, raw *client.RawResponse) error {
	res, err := raw.Result()
	if err != nil {
		return nil
	}
	return checkCode(operation, res.Code, res.Message)
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
