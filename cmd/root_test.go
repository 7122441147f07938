package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/internal/config"
	"github.com/penwyp/gitpane/internal/credential"
	"github.com/penwyp/gitpane/internal/errors"
	"github.com/penwyp/gitpane/retry"
)

// ---------------- Mock 实现 ----------------

type request struct {
	path string
	body map[string]interface{}
}

type reply struct {
	status int
	body   string
}

// fakeBackend 按 endpoint 返回预设响应；同一 endpoint 的多个响应依次使用，最后一个重复使用
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string][]reply
	requests  []request
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{responses: map[string][]reply{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := map[string]interface{}{}
		_ = json.Unmarshal(raw, &body)

		fb.mu.Lock()
		fb.requests = append(fb.requests, request{path: r.URL.Path, body: body})
		queue := fb.responses[r.URL.Path]
		resp := reply{status: http.StatusNotFound, body: `{"message":"no handler"}`}
		if len(queue) > 0 {
			resp = queue[0]
			if len(queue) > 1 {
				fb.responses[r.URL.Path] = queue[1:]
			}
		}
		fb.mu.Unlock()

		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (f *fakeBackend) on(endpoint string, bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bodies {
		f.responses[endpoint] = append(f.responses[endpoint], reply{status: http.StatusOK, body: b})
	}
}

func (f *fakeBackend) calls(endpoint string) []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []request
	for _, r := range f.requests {
		if r.path == endpoint {
			out = append(out, r)
		}
	}
	return out
}

// scriptedDialogs 依次返回预设的凭据回答，并记录打开过的对话框
type scriptedDialogs struct {
	mu      sync.Mutex
	answers []credential.Credential // 空 Username 表示取消
	prompts []retry.Prompt
	shown   [][2]string
}

func (d *scriptedDialogs) PromptCredentials(_ context.Context, p retry.Prompt) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts = append(d.prompts, p)
	if len(d.answers) == 0 || d.answers[0].Username == "" {
		return "", false, nil
	}
	next := d.answers[0]
	d.answers = d.answers[1:]
	value, err := credential.Encode(next)
	return value, true, err
}

func (d *scriptedDialogs) ShowError(_ context.Context, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, [2]string{title, body})
	return nil
}

type harness struct {
	t          *testing.T
	backend    *fakeBackend
	server     *httptest.Server
	configPath string
	dialogs    *scriptedDialogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{config.EnvBaseURL, config.EnvToken, config.EnvTimeout, config.EnvAuthorName, config.EnvAuthorEmail} {
		t.Setenv(key, "")
	}
	fb, srv := newFakeBackend(t)
	return &harness{
		t:          t,
		backend:    fb,
		server:     srv,
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		dialogs:    &scriptedDialogs{},
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	a := &app{
		logger:  zap.NewNop(),
		dialogs: func(*cobra.Command) retry.Dialogs { return h.dialogs },
	}
	root := newRootCommand(a)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{
		"--config", h.configPath,
		"--base-url", h.server.URL,
		"--path", "/home/ann/project/src",
	}, args...))
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

const topLevelOK = `{"code":0,"top_repo_path":"/home/ann/project"}`

// ------------------------------------------------

func TestPull_Success(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointPull, `{"code":0,"message":"Already up to date."}`)

	out, err := h.run("pull")
	require.NoError(t, err)
	assert.Contains(t, out, "Pulling...")
	assert.Contains(t, out, "Already up to date.")
	assert.Empty(t, h.dialogs.prompts)

	calls := h.backend.calls(client.EndpointPull)
	require.Len(t, calls, 1)
	assert.Equal(t, "/home/ann/project/src", calls[0].body["current_path"])
	assert.NotContains(t, calls[0].body, "auth")
}

func TestPull_RetriesWithCredentials(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointPull,
		`{"code":1,"message":"fatal: could not read Username for 'https://github.com': terminal prompts disabled"}`,
		`{"code":0,"message":"Fast-forward"}`,
	)
	h.dialogs.answers = []credential.Credential{{Username: "ann", Password: "s3cret"}}

	out, err := h.run("pull")
	require.NoError(t, err)
	assert.Contains(t, out, "Retrying with credentials...")
	assert.Contains(t, out, "Fast-forward")

	require.Len(t, h.dialogs.prompts, 1)
	assert.Equal(t, retry.CredentialsTitle, h.dialogs.prompts[0].Title)
	assert.Empty(t, h.dialogs.prompts[0].Error)

	calls := h.backend.calls(client.EndpointPull)
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]interface{}{"username": "ann", "password": "s3cret"}, calls[1].body["auth"])
}

func TestPush_CancelReportsCanceled(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointPush, `{"code":128,"message":"fatal: Auth or timeout error"}`)

	_, err := h.run("push")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeCanceled, errors.GetType(err))
	assert.Equal(t, errors.ExitCodeCanceled, errors.NewErrorHandler().HandleCommandError(err).ExitCode)
	assert.Equal(t, [][2]string{{"Push failed", ""}}, h.dialogs.shown)
}

func TestPush_NonAuthFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointPush, `{"code":1,"message":"rejected: non-fast-forward"}`)

	_, err := h.run("push")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeOperation, errors.GetType(err))
	assert.Empty(t, h.dialogs.prompts, "code 1 is not an auth failure for push")
	assert.Equal(t, [][2]string{{"Push failed", "rejected: non-fast-forward"}}, h.dialogs.shown)
}

func TestPull_ServerError(t *testing.T) {
	h := newHarness(t)
	h.backend.mu.Lock()
	h.backend.responses[client.EndpointPull] = []reply{{status: http.StatusInternalServerError, body: `{"message":"boom"}`}}
	h.backend.mu.Unlock()

	_, err := h.run("pull")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeResponse, errors.GetType(err))
	require.Len(t, h.dialogs.shown, 1)
	assert.Equal(t, "Pull failed", h.dialogs.shown[0][0])
	assert.Contains(t, h.dialogs.shown[0][1], "boom")
}

func TestClone_PrefillsConfiguredUsername(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("config", "set-remote", "git.example.com", "ann")
	require.NoError(t, err)

	h.backend.on(client.EndpointClone,
		`{"code":128,"message":"fatal: could not read Username for 'https://git.example.com'"}`,
		`{"code":0}`,
	)
	h.dialogs.answers = []credential.Credential{{Username: "ann", Password: "tok"}}

	out, err := h.run("clone", "https://git.example.com/team/widgets.git")
	require.NoError(t, err)
	assert.Contains(t, out, "Cloned into /home/ann/project/src/widgets")

	require.Len(t, h.dialogs.prompts, 1)
	assert.Equal(t, "ann", h.dialogs.prompts[0].Username)
	assert.Equal(t, "git.example.com", h.dialogs.prompts[0].Host)

	calls := h.backend.calls(client.EndpointClone)
	require.Len(t, calls, 2)
	assert.Equal(t, "https://git.example.com/team/widgets.git", calls[0].body["clone_url"])
}

func TestClone_InvalidURL(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("clone", "ftp://example.com/o/r")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeValidation, errors.GetType(err))
	assert.Empty(t, h.backend.calls(client.EndpointClone))
}

func TestStatus_Table(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointStatus, `{"code":0,"files":[
		{"x":"M","y":" ","to":"main.go","from":"main.go"},
		{"x":"R","y":" ","to":"new.go","from":"old.go"},
		{"x":"?","y":"?","to":"notes.txt","from":"notes.txt"}
	]}`)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "old.go → new.go")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "2 staged, 0 changed, 1 untracked, 0 conflicts")
}

func TestStatus_Clean(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointStatus, `{"code":0,"files":[]}`)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Working tree clean")
}

func TestLogAndBranch(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointLog, `{"code":0,"commits":[
		{"commit":"a1b2c3d4e5f6","author":"Ann","date":"2 days ago","commit_msg":"Add parser\n\nbody","pre_commit":""}
	]}`)
	h.backend.on(client.EndpointBranch, `{"code":0,"branches":[
		{"is_current_branch":true,"is_remote_branch":false,"name":"main","upstream":"origin/main","top_commit":"a1b2c3d4e5f6","tag":""},
		{"is_current_branch":false,"is_remote_branch":true,"name":"origin/dev","upstream":"","top_commit":"ffff","tag":""}
	]}`)

	out, err := h.run("log")
	require.NoError(t, err)
	assert.Contains(t, out, "a1b2c3d")
	assert.NotContains(t, out, "a1b2c3d4")
	assert.Contains(t, out, "Add parser")
	assert.NotContains(t, out, "body")

	out, err = h.run("branch")
	require.NoError(t, err)
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "origin/main")
	assert.NotContains(t, out, "origin/dev")

	out, err = h.run("branch", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "origin/dev")
}

func TestShow_DetailedLog(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointDetailedLog, `{"code":0,"modified_file_note":"2 files changed","modified_files_count":"2",
		"number_of_insertions":"5","number_of_deletions":"1","modified_files":[
		{"modified_file_path":"src/a.go","modified_file_name":"a.go","insertion":"4","deletion":"1"}
	]}`)

	out, err := h.run("show", "a1b2c3d")
	require.NoError(t, err)
	assert.Contains(t, out, "src/a.go")
	assert.Contains(t, out, "2 files changed, 5 insertions(+), 1 deletions(-)")

	calls := h.backend.calls(client.EndpointDetailedLog)
	require.Len(t, calls, 1)
	assert.Equal(t, "a1b2c3d", calls[0].body["selected_hash"])
}

func TestTopLevelAndPrefix(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointShowTopLevel, topLevelOK)
	h.backend.on(client.EndpointShowPrefix, `{"code":0,"under_repo_path":"src/"}`)

	out, err := h.run("toplevel")
	require.NoError(t, err)
	assert.Equal(t, "/home/ann/project\n", out)

	out, err = h.run("prefix")
	require.NoError(t, err)
	assert.Equal(t, "src/\n", out)
}

func TestTopLevel_NotRepository(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointShowTopLevel, `{"code":128,"message":"fatal: not a git repository"}`)

	_, err := h.run("toplevel")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotGitRepo)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointAllHistory, `{"code":0,"data":{
		"show_top_level":{"code":0,"top_repo_path":"/home/ann/project"},
		"branch":{"code":0,"branches":[{"is_current_branch":true,"name":"main"}]},
		"log":{"code":0,"commits":[{"commit":"abc","author":"Ann","date":"now","commit_msg":"init"}]},
		"status":{"code":0,"files":[{"x":" ","y":"M","to":"a.go","from":"a.go"}]}
	}}`)

	out, err := h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "Repository: /home/ann/project")
	assert.Contains(t, out, "Branch:     main")
	assert.Contains(t, out, "0 staged, 1 changed, 0 untracked")
	assert.Contains(t, out, "init")
}

func TestCommit_UsesAuthorFromEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvAuthorName, "Ann")
	t.Setenv(config.EnvAuthorEmail, "ann@example.com")
	h.backend.on(client.EndpointShowTopLevel, topLevelOK)
	h.backend.on(client.EndpointCommit, `{"code":0}`)

	_, err := h.run("commit", "-m", "Fix parser")
	require.NoError(t, err)

	calls := h.backend.calls(client.EndpointCommit)
	require.Len(t, calls, 1)
	assert.Equal(t, "Fix parser", calls[0].body["commit_msg"])
	assert.Equal(t, "/home/ann/project", calls[0].body["top_repo_path"])
	assert.Equal(t, "Ann", calls[0].body["author_name"])
	assert.Equal(t, "ann@example.com", calls[0].body["author_email"])
}

func TestWorktreeCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		endpoint string
		response string
		wantBody map[string]interface{}
		wantOut  string
	}{
		{
			name:     "add file",
			args:     []string{"add", "a.go"},
			endpoint: client.EndpointAdd,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{"add_all": false, "filename": "a.go", "top_repo_path": "/home/ann/project"},
			wantOut:  "Staged",
		},
		{
			name:     "add all",
			args:     []string{"add", "--all"},
			endpoint: client.EndpointAdd,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{"add_all": true, "filename": "", "top_repo_path": "/home/ann/project"},
			wantOut:  "Staged",
		},
		{
			name:     "add untracked",
			args:     []string{"add-untracked"},
			endpoint: client.EndpointAddAllUntracked,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{"top_repo_path": "/home/ann/project"},
			wantOut:  "Staged untracked files",
		},
		{
			name:     "create branch",
			args:     []string{"checkout", "-b", "feature"},
			endpoint: client.EndpointCheckout,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{
				"checkout_branch": true, "new_check": true, "branchname": "feature",
				"checkout_all": false, "filename": "", "top_repo_path": "/home/ann/project",
			},
			wantOut: "Created and switched to feature",
		},
		{
			name:     "discard file",
			args:     []string{"checkout", "--file", "a.go"},
			endpoint: client.EndpointCheckout,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{
				"checkout_branch": false, "new_check": false, "branchname": "",
				"checkout_all": false, "filename": "a.go", "top_repo_path": "/home/ann/project",
			},
			wantOut: "Discarded changes to a.go",
		},
		{
			name:     "reset all",
			args:     []string{"reset", "--all"},
			endpoint: client.EndpointReset,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{"reset_all": true, "filename": "", "top_repo_path": "/home/ann/project"},
			wantOut:  "Unstaged",
		},
		{
			name:     "reset to commit",
			args:     []string{"reset-to-commit", "a1b2c3d4e5"},
			endpoint: client.EndpointResetToCommit,
			response: `{"code":0}`,
			wantBody: map[string]interface{}{"commit_id": "a1b2c3d4e5", "top_repo_path": "/home/ann/project"},
			wantOut:  "Reset to a1b2c3d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.on(client.EndpointShowTopLevel, topLevelOK)
			h.backend.on(tt.endpoint, tt.response)

			out, err := h.run(tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)

			calls := h.backend.calls(tt.endpoint)
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantBody, calls[0].body)
		})
	}
}

func TestDeleteCommit_CommitsAfterRevert(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointShowTopLevel, topLevelOK)
	h.backend.on(client.EndpointDeleteCommit, `{"code":0}`)
	h.backend.on(client.EndpointCommit, `{"code":0}`)

	_, err := h.run("delete-commit", "a1b2c3d4e5")
	require.NoError(t, err)

	commits := h.backend.calls(client.EndpointCommit)
	require.Len(t, commits, 1)
	assert.Equal(t, "Revert a1b2c3d", commits[0].body["commit_msg"])
}

func TestWorktreeCommands_Validation(t *testing.T) {
	tests := [][]string{
		{"add"},
		{"reset"},
		{"checkout"},
		{"commit"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness(t)
			h.backend.on(client.EndpointShowTopLevel, topLevelOK)

			_, err := h.run(args...)
			require.Error(t, err)
			assert.Equal(t, errors.ErrTypeValidation, errors.GetType(err))
		})
	}
}

func TestWorktreeCommands_OperationFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointShowTopLevel, topLevelOK)
	h.backend.on(client.EndpointCheckout, `{"code":1,"message":"error: pathspec 'nope' did not match"}`)

	_, err := h.run("checkout", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeOperation, errors.GetType(err))
	assert.Contains(t, err.Error(), "did not match")
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	h.backend.on(client.EndpointInit, `{"code":0}`)

	out, err := h.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized repository in /home/ann/project/src")
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("config", "init")
	require.NoError(t, err)
	_, err = os.Stat(h.configPath)
	require.NoError(t, err)

	_, err = h.run("config", "init")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeConfig, errors.GetType(err))

	_, err = h.run("config", "set-server", "http://nb.internal:8888", "--server-token", "secret", "--server-timeout", "45s")
	require.NoError(t, err)
	_, err = h.run("config", "set-remote", "github.com", "ann")
	require.NoError(t, err)

	manager, err := config.NewManager(h.configPath)
	require.NoError(t, err)
	cfg, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://nb.internal:8888", cfg.Server.BaseURL)
	assert.Equal(t, "secret", cfg.Server.Token)
	assert.Equal(t, "45s", cfg.Server.Timeout)
	assert.Equal(t, "ann", cfg.Remotes["github.com"].Username)

	// 只改地址时保留 token
	_, err = h.run("config", "set-server", "http://nb.internal:9999")
	require.NoError(t, err)
	cfg, err = manager.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Server.Token)

	out, err := h.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "secret")
	// --base-url 覆盖文件中的地址
	assert.Contains(t, out, h.server.URL)

	out, err = h.run("config", "remotes")
	require.NoError(t, err)
	assert.Contains(t, out, "github.com")
	assert.Contains(t, out, "ann")

	out, err = h.run("config", "remotes", "https://github.com/o/r.git", "git@gitlab.com:o/r.git", "https://bitbucket.org/o/r")
	require.NoError(t, err)
	assert.Contains(t, out, "Prefilled")
	assert.Contains(t, out, "SSH key, no prompt")
	assert.Contains(t, out, "Not prefilled")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("version")
	require.NoError(t, err)
	assert.Equal(t, GetVersionString()+"\n", out)

	out, err = h.run("--version")
	require.NoError(t, err)
	assert.Contains(t, out, "gitpane version")
}

func TestSetup_InvalidServerTimeout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.configPath, []byte("server:\n  base_url: http://localhost:8888\n  timeout: soon\n"), 0o600))

	_, err := h.run("status")
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeConfig, errors.GetType(err))
	assert.Contains(t, err.Error(), "invalid server timeout")
	assert.Empty(t, h.backend.calls(client.EndpointStatus))

	// --timeout 覆盖文件中的无效值
	h.backend.on(client.EndpointStatus, `{"code":0,"files":[]}`)
	_, err = h.run("--timeout", "10s", "status")
	require.NoError(t, err)
}

func TestEffectiveConfig_FlagsOverrideEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvBaseURL, "http://from-env:1")
	t.Setenv(config.EnvToken, "env-token")

	a := &app{logger: zap.NewNop()}
	root := newRootCommand(a)
	root.SetArgs([]string{"--config", h.configPath, "--base-url", "http://from-flag:2", "--timeout", "5s", "config", "show"})
	root.SetOut(io.Discard)
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "http://from-flag:2", a.cfg.Server.BaseURL)
	assert.Equal(t, "env-token", a.cfg.Server.Token)
	assert.Equal(t, "5s", a.cfg.Server.Timeout)
	assert.Equal(t, "http://from-flag:2", a.client.BaseURL())
}
