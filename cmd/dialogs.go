package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/penwyp/gitpane/internal/credential"
	"github.com/penwyp/gitpane/retry"
	"github.com/penwyp/gitpane/ui"
)

// terminalDialogs implements retry.Dialogs for the non-interactive
// subcommands. Without a terminal on stdin the credentials prompt counts as
// cancelled.
type terminalDialogs struct {
	out         io.Writer
	interactive bool
	ask         func(qs []*survey.Question, answers interface{}) error
}

func newTerminalDialogs(cmd *cobra.Command) retry.Dialogs {
	return &terminalDialogs{
		out:         cmd.OutOrStdout(),
		interactive: stdinIsTerminal(),
		ask: func(qs []*survey.Question, answers interface{}) error {
			return survey.Ask(qs, answers)
		},
	}
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type credentialAnswers struct {
	Username string `survey:"username"`
	Password string `survey:"password"`
}

func (d *terminalDialogs) PromptCredentials(ctx context.Context, p retry.Prompt) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if !d.interactive {
		writeln(d.out, dialogStyles.warning.Render("⚠ "+p.Title+": stdin is not a terminal, cannot ask for credentials"))
		return "", false, nil
	}

	writeln(d.out, dialogStyles.title.Render(p.Title))
	writeln(d.out, p.Body)
	if p.Host != "" {
		writeln(d.out, dialogStyles.muted.Render("Remote: "+p.Host))
	}
	if p.Error != "" {
		writeln(d.out, dialogStyles.error.Render("✗ "+p.Error))
	}

	qs := []*survey.Question{
		{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username", Default: p.Username},
			Validate: survey.Required,
		},
		{
			Name:   "password",
			Prompt: &survey.Password{Message: "Password"},
		},
	}
	var answers credentialAnswers
	if err := d.ask(qs, &answers); err != nil {
		if stderrors.Is(err, terminal.InterruptErr) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("credentials prompt failed: %w", err)
	}

	value, err := credential.Encode(credential.Credential{
		Username: answers.Username,
		Password: answers.Password,
	})
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ShowError 在终端打印失败对话框，不等待确认
func (d *terminalDialogs) ShowError(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lines := []string{dialogStyles.title.Render(title)}
	if body != "" {
		lines = append(lines, "", dialogStyles.error.Render(body))
	}
	lines = append(lines, "", dialogStyles.muted.Render("["+ui.DismissText+"]"))
	writeln(d.out, dialogStyles.box.Render(strings.Join(lines, "\n")))
	return nil
}

var dialogStyles = struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
	box     lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true),
	muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	warning: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1),
}
