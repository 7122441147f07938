package collector

import (
	"context"

	"github.com/penwyp/gitpane/client"
)

// GitAPI is the part of the git API client the collector reads from.
//
// Each method corresponds to one backend endpoint:
// - ShowTopLevel: /git/show_top_level
// - ShowPrefix: /git/show_prefix
// - Branch: /git/branch
// - Status: /git/status
//
// Example usage:
//
//	c := collector.New(apiClient)
//	repo, err := c.Collect(ctx, "/home/jovyan/project/src")
//	if errors.Is(err, collector.ErrNotGitRepository) {
//		// offer git init
//	}
type GitAPI interface {
	ShowTopLevel(ctx context.Context, path string) (*client.ShowTopLevelResult, error)
	ShowPrefix(ctx context.Context, path string) (*client.ShowPrefixResult, error)
	Branch(ctx context.Context, path string) (*client.BranchResult, error)
	Status(ctx context.Context, path string) (*client.StatusResult, error)
}

// FileStatusSummary counts the entries of a status result by area.
// A file with both index and work tree changes counts as staged and unstaged.
type FileStatusSummary struct {
	Staged    int
	Unstaged  int
	Untracked int
	Conflicts int
	Files     int // 不同文件总数
}

// HasChanges reports whether anything is staged, modified or untracked.
func (s FileStatusSummary) HasChanges() bool {
	return s.Files > 0
}
