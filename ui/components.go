package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// UIColors 定义统一的颜色主题
type UIColors struct {
	Gray   lipgloss.Color
	Blue   lipgloss.Color
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Red    lipgloss.Color
	White  lipgloss.Color
	Black  lipgloss.Color
	Orange lipgloss.Color
}

// DefaultColors 返回默认的颜色主题
func DefaultColors() UIColors {
	return UIColors{
		Gray:   lipgloss.Color("245"),
		Blue:   lipgloss.Color("39"),
		Green:  lipgloss.Color("42"),
		Yellow: lipgloss.Color("220"),
		Red:    lipgloss.Color("196"),
		White:  lipgloss.Color("255"),
		Black:  lipgloss.Color("0"),
		Orange: lipgloss.Color("208"),
	}
}

// UIStyles 定义统一的样式
type UIStyles struct {
	Colors   UIColors
	Border   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Path     lipgloss.Style
	Branch   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Progress lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
}

// DefaultStyles 返回默认的样式集
func DefaultStyles() UIStyles {
	colors := DefaultColors()
	return UIStyles{
		Colors:   colors,
		Border:   lipgloss.NewStyle().Foreground(colors.Blue),
		Title:    lipgloss.NewStyle().Foreground(colors.White).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(colors.Gray),
		Path:     lipgloss.NewStyle().Foreground(colors.White).Bold(true),
		Branch:   lipgloss.NewStyle().Foreground(colors.Orange),
		Success:  lipgloss.NewStyle().Foreground(colors.Green),
		Warning:  lipgloss.NewStyle().Foreground(colors.Yellow),
		Error:    lipgloss.NewStyle().Foreground(colors.Red),
		Progress: lipgloss.NewStyle().Foreground(colors.Yellow),
		Label:    lipgloss.NewStyle().Foreground(colors.Gray).Width(10),
		Focused:  lipgloss.NewStyle().Foreground(colors.Blue).Bold(true),
	}
}

// truncateContent 按显示宽度截断，支持 CJK 字符
func truncateContent(content string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(content) <= maxWidth {
		return content
	}

	var result strings.Builder
	for _, r := range content {
		if lipgloss.Width(result.String()+string(r)) > maxWidth {
			break
		}
		result.WriteRune(r)
	}
	return result.String()
}

// wordWrap 包装文本，保留段落换行
func wordWrap(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}

	paragraphs := strings.Split(s, "\n")
	wrapped := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		if strings.TrimSpace(paragraph) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		wrapped = append(wrapped, wrapParagraph(paragraph, width))
	}
	return strings.Join(wrapped, "\n")
}

// wrapParagraph 按词换行，超长的词单独成行后截断
func wrapParagraph(paragraph string, width int) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(paragraph) {
		if lipgloss.Width(word) > width {
			word = truncateContent(word, width)
		}
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case lipgloss.Width(line.String()+" "+word) <= width:
			line.WriteString(" " + word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// Button 表示一个可交互的按钮
type Button struct {
	Hint       string
	Text       string
	HintStyle  lipgloss.Style
	TextStyle  lipgloss.Style
	SelectedBg lipgloss.Color
}

// RenderButton 渲染单个按钮
func RenderButton(b Button, isSelected bool) string {
	hStyle := b.HintStyle
	tStyle := b.TextStyle

	if isSelected {
		colors := DefaultColors()
		fgColor := colors.Black
		// 红色背景上白色文字更清晰
		if b.SelectedBg == colors.Red {
			fgColor = colors.White
		}
		hStyle = hStyle.Copy().Background(b.SelectedBg).Foreground(fgColor)
		tStyle = tStyle.Copy().Background(b.SelectedBg).Foreground(fgColor)
	}

	if b.Hint == "" {
		return tStyle.Padding(0, 1).Render(b.Text)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		hStyle.Padding(0, 1).Render(b.Hint),
		tStyle.Padding(0, 1).Render(b.Text),
	)
}

// renderButtons 渲染按钮组，selected 为 -1 表示没有选中项
func renderButtons(buttons []Button, selected int) string {
	rendered := make([]string, 0, len(buttons))
	for i, btn := range buttons {
		rendered = append(rendered, RenderButton(btn, i == selected))
	}
	return strings.Join(rendered, "  ")
}

// CalculateContentWidth 计算响应式内容宽度
func CalculateContentWidth(terminalWidth int) int {
	const (
		minWidth = 60
		maxWidth = 120
		margin   = 4
	)

	availableWidth := terminalWidth - margin
	if availableWidth < minWidth {
		return minWidth
	}
	if availableWidth > maxWidth {
		return maxWidth
	}
	return availableWidth
}

// renderBox 渲染带标题的边框容器
func renderBox(title, content string, width int, styles UIStyles) string {
	border := styles.Border
	titleText := styles.Title.Render(" " + title + " ")
	titlePadding := width - lipgloss.Width(titleText)
	if titlePadding < 0 {
		titlePadding = 0
	}

	header := border.Render("┌") +
		border.Render(strings.Repeat("─", titlePadding/2)) +
		titleText +
		border.Render(strings.Repeat("─", titlePadding-titlePadding/2)) +
		border.Render("┐")

	var body []string
	for _, line := range strings.Split(content, "\n") {
		body = append(body, renderLine(line, width, border))
	}

	footer := border.Render("└" + strings.Repeat("─", width) + "┘")
	return strings.Join([]string{header, strings.Join(body, "\n"), footer}, "\n")
}

// renderLine 渲染单行内容，超出宽度时截断
func renderLine(content string, width int, border lipgloss.Style) string {
	if lipgloss.Width(content) > width {
		content = truncateContent(content, width-3) + "..."
	}
	padding := width - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}
	return border.Render("│") + content + strings.Repeat(" ", padding) + border.Render("│")
}
