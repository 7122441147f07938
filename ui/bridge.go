package ui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/gitpane/retry"
)

// ErrNoProgram 表示对话框桥接尚未绑定到运行中的程序
var ErrNoProgram = errors.New("dialog bridge is not attached to a program")

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramDialogs implements retry.Dialogs on top of a bubbletea program.
// The retry flow runs in a command goroutine; each dialog call sends a
// request message to the program and blocks on the reply channel.
type ProgramDialogs struct {
	mu     sync.RWMutex
	sender Sender
}

var _ retry.Dialogs = (*ProgramDialogs)(nil)

// NewProgramDialogs 创建对话框桥接，sender 可以稍后通过 Attach 设置
func NewProgramDialogs(sender Sender) *ProgramDialogs {
	return &ProgramDialogs{sender: sender}
}

// Attach 绑定程序，程序需要先于对话框桥接创建模型，因此分两步
func (d *ProgramDialogs) Attach(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sender = sender
}

func (d *ProgramDialogs) send(msg tea.Msg) error {
	d.mu.RLock()
	sender := d.sender
	d.mu.RUnlock()
	if sender == nil {
		return ErrNoProgram
	}
	sender.Send(msg)
	return nil
}

// PromptCredentials opens the credentials dialog and waits for the answer.
func (d *ProgramDialogs) PromptCredentials(ctx context.Context, p retry.Prompt) (string, bool, error) {
	reply := make(chan credentialsReply, 1)
	if err := d.send(credentialsRequestMsg{prompt: p, reply: reply}); err != nil {
		return "", false, err
	}
	select {
	case r := <-reply:
		return r.value, r.ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// ShowError opens the dismiss-only dialog and waits until it closes.
func (d *ProgramDialogs) ShowError(ctx context.Context, title, body string) error {
	reply := make(chan struct{}, 1)
	if err := d.send(errorRequestMsg{title: title, body: body, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------- tea.Msg 定义 ----------------

type credentialsReply struct {
	value string
	ok    bool
}

type credentialsRequestMsg struct {
	prompt retry.Prompt
	reply  chan<- credentialsReply
}

type errorRequestMsg struct {
	title string
	body  string
	reply chan<- struct{}
}
