package collector

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/gitpane/client"
)

// Collector 通过 git API 收集当前目录所在仓库的上下文信息。
// 所有方法均以 context 控制生命周期。
type Collector struct {
	api GitAPI
}

// New 创建 Collector 实例。
func New(api GitAPI) *Collector {
	return &Collector{api: api}
}

// ErrNotGitRepository 表示路径不在 git 仓库中。
var ErrNotGitRepository = fmt.Errorf("not a git repository")

// 控制字符，展示前移除以免终端转义序列进入标签
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)

// sanitizeOutput 清理输出中的控制字符
func sanitizeOutput(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// Context describes where a path sits in its repository.
type Context struct {
	CurrentPath string
	TopRepoPath string
	Prefix      string // 相对仓库根目录的路径，根目录为空
	Branch      string // 分离 HEAD 时为空
	Upstream    string
	Status      FileStatusSummary
}

// Label renders "<last segment of current path> / <branch>" for the header.
func (c *Context) Label() string {
	name := path.Base(strings.TrimRight(c.CurrentPath, "/"))
	if name == "." || name == "/" || name == "" {
		name = c.CurrentPath
	}
	branch := c.Branch
	if branch == "" {
		branch = "HEAD"
	}
	return name + " / " + branch
}

// Collect 并发请求 top level、prefix、branch 与 status。
// 当 path 不在仓库中时返回 ErrNotGitRepository。
func (c *Collector) Collect(ctx context.Context, currentPath string) (*Context, error) {
	var (
		top    *client.ShowTopLevelResult
		prefix *client.ShowPrefixResult
		branch *client.BranchResult
		status *client.StatusResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		top, err = c.api.ShowTopLevel(gctx, currentPath)
		if err != nil {
			return fmt.Errorf("show_top_level failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prefix, err = c.api.ShowPrefix(gctx, currentPath)
		if err != nil {
			return fmt.Errorf("show_prefix failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		branch, err = c.api.Branch(gctx, currentPath)
		if err != nil {
			return fmt.Errorf("branch failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		status, err = c.api.Status(gctx, currentPath)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if top.Code != 0 || top.TopRepoPath == "" {
		return nil, ErrNotGitRepository
	}

	repo := &Context{
		CurrentPath: currentPath,
		TopRepoPath: strings.TrimSpace(top.TopRepoPath),
	}
	if prefix.Code == 0 {
		repo.Prefix = strings.TrimSpace(prefix.UnderRepoPath)
	}
	if branch.Code == 0 {
		if current, ok := branch.CurrentBranch(); ok {
			repo.Branch = BranchName(current.Name)
			repo.Upstream = current.Upstream
		}
	}
	if status.Code == 0 {
		repo.Status = Summarize(status.Files)
	}
	return repo, nil
}

// BranchName prepares a branch name reported by the backend for display.
// 后端在分离 HEAD 时会返回类似 "(HEAD detached at abc123)" 的名称，按空处理。
func BranchName(name string) string {
	name = strings.TrimSpace(sanitizeOutput(name))
	if strings.HasPrefix(name, "(") {
		return ""
	}
	return name
}

// Summarize 按暂存区、工作区、未跟踪与冲突统计文件。
// X 为暂存区状态，Y 为工作区状态，"??" 表示未跟踪。
func Summarize(files []client.StatusFile) FileStatusSummary {
	var s FileStatusSummary
	for _, f := range files {
		s.Files++
		x, y := statusLetter(f.X), statusLetter(f.Y)
		switch {
		case x == '?' && y == '?':
			s.Untracked++
			continue
		case isConflict(x, y):
			s.Conflicts++
			continue
		}
		if x != ' ' {
			s.Staged++
		}
		if y != ' ' {
			s.Unstaged++
		}
	}
	return s
}

func statusLetter(s string) byte {
	if s == "" {
		return ' '
	}
	return s[0]
}

// isConflict 匹配 porcelain 中的未合并组合：DD AU UD UA DU AA UU
func isConflict(x, y byte) bool {
	if x == 'U' || y == 'U' {
		return true
	}
	return (x == 'D' && y == 'D') || (x == 'A' && y == 'A')
}
