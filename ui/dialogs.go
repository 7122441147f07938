package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/gitpane/internal/credential"
	"github.com/penwyp/gitpane/retry"
)

// DismissText 是错误对话框唯一按钮的文字
const DismissText = "DISMISS"

// 凭据对话框的焦点顺序
const (
	focusUsername = iota
	focusPassword
	focusCancel
	focusOK
	focusCount
)

// CredentialsDialog 是用户名密码表单，提交后给出 URI 编码的 JSON
type CredentialsDialog struct {
	prompt   retry.Prompt
	username textinput.Model
	password textinput.Model
	focus    int
	styles   UIStyles

	done  bool
	ok    bool
	value string
}

// NewCredentialsDialog 创建凭据对话框，有预填用户名时焦点直接落在密码框
func NewCredentialsDialog(p retry.Prompt) *CredentialsDialog {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 256
	username.SetValue(p.Username)

	password := textinput.New()
	password.Placeholder = "password or token"
	password.CharLimit = 1024
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	d := &CredentialsDialog{
		prompt:   p,
		username: username,
		password: password,
		styles:   DefaultStyles(),
	}
	if p.Username != "" {
		d.setFocus(focusPassword)
	} else {
		d.setFocus(focusUsername)
	}
	return d
}

func (d *CredentialsDialog) setFocus(f int) {
	d.focus = (f + focusCount) % focusCount
	d.username.Blur()
	d.password.Blur()
	switch d.focus {
	case focusUsername:
		d.username.Focus()
	case focusPassword:
		d.password.Focus()
	}
}

// Update 处理按键，对话框关闭后忽略后续输入
func (d *CredentialsDialog) Update(msg tea.Msg) tea.Cmd {
	if d.done {
		return nil
	}
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return d.updateInputs(msg)
	}

	switch key.String() {
	case "esc":
		d.finish(false)
		return nil
	case "tab", "down":
		d.setFocus(d.focus + 1)
		return textinput.Blink
	case "shift+tab", "up":
		d.setFocus(d.focus - 1)
		return textinput.Blink
	case "left", "h":
		if d.focus == focusOK {
			d.setFocus(focusCancel)
			return nil
		}
	case "right", "l":
		if d.focus == focusCancel {
			d.setFocus(focusOK)
			return nil
		}
	case "enter":
		switch d.focus {
		case focusUsername:
			d.setFocus(focusPassword)
			return textinput.Blink
		case focusCancel:
			d.finish(false)
		default:
			d.finish(true)
		}
		return nil
	}
	return d.updateInputs(msg)
}

func (d *CredentialsDialog) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	d.username, cmd = d.username.Update(msg)
	cmds = append(cmds, cmd)
	d.password, cmd = d.password.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (d *CredentialsDialog) finish(ok bool) {
	d.done = true
	d.username.Blur()
	d.password.Blur()
	if !ok {
		return
	}
	value, err := credential.Encode(credential.Credential{
		Username: d.username.Value(),
		Password: d.password.Value(),
	})
	if err != nil {
		return
	}
	d.ok = true
	d.value = value
}

// Done 返回对话框是否已关闭
func (d *CredentialsDialog) Done() bool { return d.done }

// Result 返回表单值，ok 为 false 表示用户取消
func (d *CredentialsDialog) Result() (value string, ok bool) {
	return d.value, d.ok
}

// View 渲染对话框
func (d *CredentialsDialog) View(width int) string {
	inner := width - 2
	var b strings.Builder

	b.WriteString(" " + wordWrap(d.prompt.Body, inner-2))
	b.WriteString("\n")
	if d.prompt.Host != "" {
		b.WriteString(" " + d.styles.Muted.Render("Remote: "+d.prompt.Host) + "\n")
	}
	if d.prompt.Error != "" {
		b.WriteString(" " + d.styles.Error.Render("✗ "+d.prompt.Error) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(" " + d.fieldLabel("Username", focusUsername) + d.username.View() + "\n")
	b.WriteString(" " + d.fieldLabel("Password", focusPassword) + d.password.View() + "\n")
	b.WriteString("\n")

	colors := d.styles.Colors
	buttons := []Button{
		{Text: "Cancel", TextStyle: d.styles.Muted, SelectedBg: colors.Red},
		{Text: "OK", TextStyle: d.styles.Success, SelectedBg: colors.Green},
	}
	selected := -1
	switch d.focus {
	case focusCancel:
		selected = 0
	case focusOK:
		selected = 1
	}
	b.WriteString(" " + renderButtons(buttons, selected))

	return renderBox(d.prompt.Title, b.String(), inner, d.styles)
}

func (d *CredentialsDialog) fieldLabel(text string, field int) string {
	if d.focus == field {
		return d.styles.Focused.Copy().Width(10).Render(text)
	}
	return d.styles.Label.Render(text)
}

// ErrorDialog 显示操作失败信息，只有一个 DISMISS 按钮
type ErrorDialog struct {
	title  string
	body   string
	styles UIStyles
	done   bool
}

// NewErrorDialog 创建错误对话框，body 可以为空
func NewErrorDialog(title, body string) *ErrorDialog {
	return &ErrorDialog{title: title, body: body, styles: DefaultStyles()}
}

// Update 处理按键
func (d *ErrorDialog) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "esc", " ", "d":
			d.done = true
		}
	}
	return nil
}

// Done 返回对话框是否已关闭
func (d *ErrorDialog) Done() bool { return d.done }

// View 渲染对话框
func (d *ErrorDialog) View(width int) string {
	inner := width - 2
	var lines []string
	if d.body != "" {
		for _, line := range strings.Split(wordWrap(d.body, inner-2), "\n") {
			lines = append(lines, " "+d.styles.Error.Render(line))
		}
		lines = append(lines, "")
	}
	dismiss := Button{Text: DismissText, TextStyle: d.styles.Title, SelectedBg: d.styles.Colors.Blue}
	lines = append(lines, " "+RenderButton(dismiss, true))
	return renderBox(d.title, strings.Join(lines, "\n"), inner, d.styles)
}
