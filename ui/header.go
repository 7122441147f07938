package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/collector"
	"github.com/penwyp/gitpane/retry"
)

// Backend is the API surface the header needs: repository context for the
// label and the remote operations behind the buttons.
type Backend interface {
	retry.RemoteClient
	collector.GitAPI
}

// BackendChangedMsg replaces the backend, for example after the config file
// changed the server URL.
type BackendChangedMsg struct {
	Backend Backend
}

// HeaderModel is the repository header: "<folder> / <branch>" plus the
// Pull, Push and Refresh buttons. Remote operations run through the retry
// controller in a command goroutine; its dialogs are rendered here.
type HeaderModel struct {
	ctx        context.Context
	path       string
	backend    Backend
	controller *retry.Controller
	logger     *zap.Logger

	spinner spinner.Model
	styles  UIStyles
	width   int

	repo       *collector.Context
	repoErr    error
	collecting bool
	running    string // 正在执行的远程操作，空表示空闲

	status      string
	statusStyle lipgloss.Style

	credentials      *CredentialsDialog
	credentialsReply chan<- credentialsReply
	errorDialog      *ErrorDialog
	errorReply       chan<- struct{}

	quitting bool
}

// NewHeaderModel 创建 header 模型，logger 可以为 nil
func NewHeaderModel(ctx context.Context, path string, backend Backend, controller *retry.Controller, logger *zap.Logger) *HeaderModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Line
	styles := DefaultStyles()
	sp.Style = styles.Progress

	return &HeaderModel{
		ctx:        ctx,
		path:       path,
		backend:    backend,
		controller: controller,
		logger:     logger,
		spinner:    sp,
		styles:     styles,
	}
}

// Init 启动 spinner 并收集仓库信息
func (m *HeaderModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

// Update 处理消息
func (m *HeaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case credentialsRequestMsg:
		m.credentials = NewCredentialsDialog(msg.prompt)
		m.credentialsReply = msg.reply
		return m, textinput.Blink

	case errorRequestMsg:
		m.errorDialog = NewErrorDialog(msg.title, msg.body)
		m.errorReply = msg.reply
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case repoCollectedMsg:
		m.collecting = false
		m.repo = msg.repo
		m.repoErr = msg.err
		if msg.err != nil && !errors.Is(msg.err, collector.ErrNotGitRepository) {
			m.logger.Warn("Failed to collect repository context",
				zap.String("path", m.path), zap.Error(msg.err))
		}
		return m, nil

	case flowDoneMsg:
		return m, m.finishFlow(msg)

	case BackendChangedMsg:
		m.backend = msg.Backend
		m.logger.Info("Backend changed, refreshing")
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// 其余消息交给打开的凭据对话框，例如光标闪烁
	if m.credentials != nil {
		return m, m.credentials.Update(msg)
	}
	return m, nil
}

func (m *HeaderModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.closeDialogs()
		m.quitting = true
		return m, tea.Quit
	}

	// 对话框打开时按键全部交给对话框
	if m.credentials != nil {
		cmd := m.credentials.Update(msg)
		if m.credentials.Done() {
			value, ok := m.credentials.Result()
			m.credentialsReply <- credentialsReply{value: value, ok: ok}
			m.credentials, m.credentialsReply = nil, nil
		}
		return m, cmd
	}
	if m.errorDialog != nil {
		m.errorDialog.Update(msg)
		if m.errorDialog.Done() {
			m.errorReply <- struct{}{}
			m.errorDialog, m.errorReply = nil, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "p":
		return m, m.startFlow("pull")
	case "P":
		return m, m.startFlow("push")
	case "r":
		if m.running != "" {
			return m, nil
		}
		return m, m.refresh()
	}
	return m, nil
}

// closeDialogs 以取消的方式关闭对话框，让等待中的流程退出
func (m *HeaderModel) closeDialogs() {
	if m.credentials != nil {
		m.credentialsReply <- credentialsReply{}
		m.credentials, m.credentialsReply = nil, nil
	}
	if m.errorDialog != nil {
		m.errorReply <- struct{}{}
		m.errorDialog, m.errorReply = nil, nil
	}
}

func (m *HeaderModel) refresh() tea.Cmd {
	if m.collecting {
		return nil
	}
	m.collecting = true
	return collectCmd(m.ctx, collector.New(m.backend), m.path)
}

// startFlow 启动远程操作，已有操作在执行时忽略
func (m *HeaderModel) startFlow(name string) tea.Cmd {
	if m.running != "" || m.repo == nil {
		return nil
	}

	var op retry.Operation
	switch name {
	case "pull":
		op = retry.PullOperation(m.backend, m.repo.CurrentPath)
	case "push":
		op = retry.PushOperation(m.backend, m.repo.CurrentPath)
	default:
		return nil
	}

	m.running = name
	m.status = ""
	m.logger.Debug("Starting remote operation",
		zap.String("operation", name), zap.String("path", m.repo.CurrentPath))
	return tea.Batch(m.spinner.Tick, flowCmd(m.ctx, m.controller, op))
}

func (m *HeaderModel) finishFlow(msg flowDoneMsg) tea.Cmd {
	m.running = ""
	// 流程因 context 结束时可能留下未回答的对话框
	m.closeDialogs()
	switch {
	case msg.err != nil:
		m.status = fmt.Sprintf("✗ %s interrupted: %v", title(msg.outcome.Operation), msg.err)
		m.statusStyle = m.styles.Error
		return nil
	case msg.outcome.State == retry.StateSuccess:
		m.status = "✓ " + successText(msg.outcome)
		m.statusStyle = m.styles.Success
		return m.refresh()
	case msg.outcome.State == retry.StateCancelled:
		m.status = "⚠ " + msg.outcome.Title
		m.statusStyle = m.styles.Warning
		return nil
	default:
		m.status = "✗ " + msg.outcome.Title
		m.statusStyle = m.styles.Error
		return nil
	}
}

func successText(out retry.Outcome) string {
	if out.Result != nil && strings.TrimSpace(out.Result.Message) != "" {
		return firstLine(out.Result.Message)
	}
	return title(out.Operation) + " completed"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View 渲染 header 与当前对话框
func (m *HeaderModel) View() string {
	if m.quitting {
		return ""
	}

	width := CalculateContentWidth(m.width)
	inner := width - 2

	var lines []string
	lines = append(lines, " "+m.renderLabel())
	if m.repo != nil {
		lines = append(lines, " "+m.renderSummary())
	}
	lines = append(lines, "")
	lines = append(lines, " "+m.renderButtons())

	switch {
	case m.running != "":
		lines = append(lines, " "+m.spinner.View()+" "+m.styles.Progress.Render(runningText(m.running)))
	case m.status != "":
		lines = append(lines, " "+m.statusStyle.Render(m.status))
	case m.collecting:
		lines = append(lines, " "+m.spinner.View()+" "+m.styles.Muted.Render("Refreshing…"))
	}

	view := renderBox("gitpane", strings.Join(lines, "\n"), inner, m.styles)

	switch {
	case m.credentials != nil:
		view += "\n" + m.credentials.View(width)
	case m.errorDialog != nil:
		view += "\n" + m.errorDialog.View(width)
	}
	return view + "\n"
}

func runningText(op string) string {
	switch op {
	case "pull":
		return "Pulling…"
	case "push":
		return "Pushing…"
	default:
		return "Working…"
	}
}

func (m *HeaderModel) renderLabel() string {
	if m.repo == nil {
		switch {
		case errors.Is(m.repoErr, collector.ErrNotGitRepository):
			return m.styles.Path.Render(m.path) + " " + m.styles.Muted.Render("(not a git repository)")
		case m.repoErr != nil:
			return m.styles.Path.Render(m.path) + " " + m.styles.Error.Render("("+m.repoErr.Error()+")")
		default:
			return m.styles.Path.Render(m.path)
		}
	}

	label := m.repo.Label()
	if i := strings.LastIndex(label, " / "); i >= 0 {
		label = m.styles.Path.Render(label[:i]) + m.styles.Muted.Render(" / ") + m.styles.Branch.Render(label[i+3:])
	}
	if m.repo.Upstream != "" {
		label += m.styles.Muted.Render(" → " + m.repo.Upstream)
	}
	return label
}

func (m *HeaderModel) renderSummary() string {
	s := m.repo.Status
	if !s.HasChanges() {
		return m.styles.Success.Render("working tree clean")
	}
	parts := []string{
		fmt.Sprintf("%d staged", s.Staged),
		fmt.Sprintf("%d changed", s.Unstaged),
		fmt.Sprintf("%d untracked", s.Untracked),
	}
	summary := m.styles.Muted.Render(strings.Join(parts, " · "))
	if s.Conflicts > 0 {
		summary += " " + m.styles.Error.Render(fmt.Sprintf("%d conflicts", s.Conflicts))
	}
	return summary
}

func (m *HeaderModel) renderButtons() string {
	colors := m.styles.Colors
	hint := lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true)
	text := lipgloss.NewStyle().Foreground(colors.White)
	if m.running != "" || m.repo == nil {
		text = m.styles.Muted
	}

	buttons := []Button{
		{Hint: "[p]", Text: "Pull", HintStyle: hint, TextStyle: text, SelectedBg: colors.Blue},
		{Hint: "[P]", Text: "Push", HintStyle: hint, TextStyle: text, SelectedBg: colors.Blue},
		{Hint: "[r]", Text: "Refresh", HintStyle: hint, TextStyle: lipgloss.NewStyle().Foreground(colors.White), SelectedBg: colors.Blue},
	}
	selected := -1
	switch m.running {
	case "pull":
		selected = 0
	case "push":
		selected = 1
	}
	return renderButtons(buttons, selected)
}

// Busy 返回是否有远程操作在执行
func (m *HeaderModel) Busy() bool { return m.running != "" }

// Repository 返回最近一次收集到的仓库信息
func (m *HeaderModel) Repository() *collector.Context { return m.repo }

// ---------------- tea.Msg 定义 ----------------

type repoCollectedMsg struct {
	repo *collector.Context
	err  error
}

type flowDoneMsg struct {
	outcome retry.Outcome
	err     error
}

// ---------------- Cmd 实现 --------------------

func collectCmd(ctx context.Context, col *collector.Collector, path string) tea.Cmd {
	return func() tea.Msg {
		repo, err := col.Collect(ctx, path)
		return repoCollectedMsg{repo: repo, err: err}
	}
}

func flowCmd(ctx context.Context, controller *retry.Controller, op retry.Operation) tea.Cmd {
	return func() tea.Msg {
		out, _, err := controller.Trigger(ctx, op)
		if out.Operation == "" {
			out.Operation = op.Name
			out.Title = op.Title
		}
		return flowDoneMsg{outcome: out, err: err}
	}
}
