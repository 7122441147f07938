// Package retry runs a remote git operation and, when the remote rejects it
// for lack of authentication, asks the user for credentials and retries the
// same call with them until it succeeds, fails for another reason, or the
// user cancels.
//
// The flow is an explicit state machine driven by a single loop:
//
//	Idle → Requesting → Success
//	                  → Failed
//	                  → AuthRequired → PromptingCredentials → Retrying → Requesting
//	                                                        → Cancelled
//
// There is no retry cap. Each submitted credential is attached to exactly
// one call and dropped afterwards.
package retry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/internal/credential"
	"github.com/penwyp/gitpane/internal/errors"
)

// State 表示重试流程所处的状态
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateAuthRequired
	StatePromptingCredentials
	StateRetrying
	StateSuccess
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateAuthRequired:
		return "auth_required"
	case StatePromptingCredentials:
		return "prompting_credentials"
	case StateRetrying:
		return "retrying"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the flow ends in s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateCancelled
}

// Dialog texts shown by the flow.
const (
	CredentialsTitle            = "Git credentials required"
	CredentialsBody             = "Enter credentials for remote repository"
	IncorrectCredentialsMessage = "Incorrect username or password."
)

// Auth-failure codes returned by the backend for each operation.
const (
	PullAuthFailureCode  = 1
	PushAuthFailureCode  = 128
	CloneAuthFailureCode = 128
)

// authFailureMarkers are the git messages that, together with the
// operation's auth-failure code, mean credentials are missing or wrong.
var authFailureMarkers = []string{
	"could not read Username",
	"Auth or timeout error",
}

// Call performs one attempt of a remote operation. auth is nil on the first
// attempt.
type Call func(ctx context.Context, auth *credential.Credential) (*client.Result, error)

// Operation describes a remote operation the flow can drive.
type Operation struct {
	Name            string // pull, push, clone
	Key             string // 去重键，同一 Key 的并发触发合并为一次流程
	Title           string // 失败对话框标题，例如 "Pull failed"
	AuthFailureCode int
	Host            string // 可选，凭据对话框中展示的远程主机
	Username        string // 可选，凭据对话框预填的用户名
	Call            Call
}

// IsAuthFailure reports whether res asks for credentials.
func (op Operation) IsAuthFailure(res *client.Result) bool {
	if res == nil || res.Code != op.AuthFailureCode {
		return false
	}
	for _, marker := range authFailureMarkers {
		if strings.Contains(res.Message, marker) {
			return true
		}
	}
	return false
}

// RemoteClient is the part of the API client the remote operations need.
type RemoteClient interface {
	Pull(ctx context.Context, path string, auth *credential.Credential) (*client.Result, error)
	Push(ctx context.Context, path string, auth *credential.Credential) (*client.Result, error)
	Clone(ctx context.Context, path, cloneURL string, auth *credential.Credential) (*client.Result, error)
}

// PullOperation pulls the repository at path.
func PullOperation(c RemoteClient, path string) Operation {
	return Operation{
		Name:            "pull",
		Key:             "pull:" + path,
		Title:           "Pull failed",
		AuthFailureCode: PullAuthFailureCode,
		Call: func(ctx context.Context, auth *credential.Credential) (*client.Result, error) {
			return c.Pull(ctx, path, auth)
		},
	}
}

// PushOperation pushes the repository at path.
func PushOperation(c RemoteClient, path string) Operation {
	return Operation{
		Name:            "push",
		Key:             "push:" + path,
		Title:           "Push failed",
		AuthFailureCode: PushAuthFailureCode,
		Call: func(ctx context.Context, auth *credential.Credential) (*client.Result, error) {
			return c.Push(ctx, path, auth)
		},
	}
}

// CloneOperation clones cloneURL into path. host is shown in the
// credentials prompt when non-empty.
func CloneOperation(c RemoteClient, path, cloneURL, host string) Operation {
	return Operation{
		Name:            "clone",
		Key:             "clone:" + path + ":" + cloneURL,
		Title:           "Clone failed",
		AuthFailureCode: CloneAuthFailureCode,
		Host:            host,
		Call: func(ctx context.Context, auth *credential.Credential) (*client.Result, error) {
			return c.Clone(ctx, path, cloneURL, auth)
		},
	}
}

// Prompt is what the credentials dialog shows.
type Prompt struct {
	Title    string
	Body     string
	Error    string // 非空表示上一次提交的凭据被拒绝
	Host     string
	Username string // 预填用户名
}

// Dialogs opens the modal dialogs of the flow. Implementations block until
// the user answers. At most one dialog is open at a time because the flow
// awaits each call before the next.
type Dialogs interface {
	// PromptCredentials returns the submitted form value (URI-encoded JSON
	// of {username, password}) and ok=false when the user cancels.
	PromptCredentials(ctx context.Context, p Prompt) (value string, ok bool, err error)
	// ShowError shows a dismiss-only dialog.
	ShowError(ctx context.Context, title, body string) error
}

// Outcome 描述一次流程的最终结果
type Outcome struct {
	Operation string
	Title     string
	State     State
	Attempts  int
	Result    *client.Result // 最后一次调用的结果
	Body      string         // 失败对话框正文
	Cause     error          // 客户端错误或凭据解析错误
}

// ToError converts a failed or cancelled outcome into an error for callers
// that report through exit codes.
func (o Outcome) ToError() error {
	switch o.State {
	case StateSuccess:
		return nil
	case StateCancelled:
		return errors.New(errors.ErrTypeCanceled, o.Title+": credentials prompt cancelled")
	default:
		if o.Cause != nil {
			return errors.Wrap(errors.GetType(o.Cause), o.Title, o.Cause)
		}
		msg := o.Title
		if o.Body != "" {
			msg += ": " + o.Body
		}
		return errors.New(errors.ErrTypeOperation, msg)
	}
}

// Option 配置 Controller
type Option func(*Controller)

// WithObserver registers fn to be called on every state transition.
func WithObserver(fn func(op Operation, s State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLogger sets the logger used for transition tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller drives authenticated-retry flows.
type Controller struct {
	dialogs  Dialogs
	logger   *zap.Logger
	observer func(op Operation, s State)
	group    singleflight.Group
}

// NewController 创建 Controller
func NewController(dialogs Dialogs, opts ...Option) *Controller {
	c := &Controller{
		dialogs: dialogs,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger runs op unless a flow with the same key is already in flight, in
// which case the caller joins that flow and receives its outcome. shared
// reports whether the outcome was shared with another caller.
func (c *Controller) Trigger(ctx context.Context, op Operation) (out Outcome, shared bool, err error) {
	v, err, shared := c.group.Do(op.Key, func() (interface{}, error) {
		return c.Run(ctx, op)
	})
	out, _ = v.(Outcome)
	return out, shared, err
}

// Run drives op to a terminal state. The returned error is non-nil only
// when ctx ends or a dialog cannot be shown; operation failures and
// cancellation are reported through the Outcome after their dialog closes.
func (c *Controller) Run(ctx context.Context, op Operation) (Outcome, error) {
	f := &flow{
		op:  op,
		out: Outcome{Operation: op.Name, Title: op.Title},
	}

	state := StateIdle
	for !state.Terminal() {
		next, err := c.step(ctx, f, state)
		if err != nil {
			f.out.State = state
			c.logger.Debug("Flow aborted",
				zap.String("operation", op.Name),
				zap.Stringer("state", state),
				zap.Error(err))
			return f.out, err
		}
		c.transition(op, state, next)
		state = next
	}
	f.out.State = state

	switch state {
	case StateFailed:
		if err := c.dialogs.ShowError(ctx, op.Title, f.out.Body); err != nil {
			return f.out, err
		}
	case StateCancelled:
		// 取消与失败使用相同的对话框，正文为空
		if err := c.dialogs.ShowError(ctx, op.Title, ""); err != nil {
			return f.out, err
		}
	}
	return f.out, nil
}

// flow 保存单次流程的可变数据
type flow struct {
	op      Operation
	auth    *credential.Credential
	retried bool
	out     Outcome
}

func (c *Controller) step(ctx context.Context, f *flow, state State) (State, error) {
	switch state {
	case StateIdle:
		return StateRequesting, nil

	case StateRequesting:
		if err := ctx.Err(); err != nil {
			return state, err
		}
		f.out.Attempts++
		res, err := f.op.Call(ctx, f.auth)
		// 凭据只用于一次调用
		f.auth = nil
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return state, ctxErr
			}
			f.out.Cause = err
			f.out.Body = err.Error()
			return StateFailed, nil
		}
		f.out.Result = res
		switch {
		case res.Code == 0:
			return StateSuccess, nil
		case f.op.IsAuthFailure(res):
			return StateAuthRequired, nil
		default:
			f.out.Body = res.Message
			return StateFailed, nil
		}

	case StateAuthRequired:
		return StatePromptingCredentials, nil

	case StatePromptingCredentials:
		prompt := Prompt{
			Title:    CredentialsTitle,
			Body:     CredentialsBody,
			Host:     f.op.Host,
			Username: f.op.Username,
		}
		if f.retried {
			prompt.Error = IncorrectCredentialsMessage
		}
		value, ok, err := c.dialogs.PromptCredentials(ctx, prompt)
		if err != nil {
			return state, err
		}
		if !ok {
			return StateCancelled, nil
		}
		cred, err := credential.Decode(value)
		if err != nil {
			f.out.Cause = err
			f.out.Body = err.Error()
			return StateFailed, nil
		}
		f.auth = &cred
		return StateRetrying, nil

	case StateRetrying:
		f.retried = true
		return StateRequesting, nil
	}

	return state, fmt.Errorf("retry: no transition from %s", state)
}

func (c *Controller) transition(op Operation, from, to State) {
	c.logger.Debug("Flow transition",
		zap.String("operation", op.Name),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	if c.observer != nil {
		c.observer(op, to)
	}
}
