package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/collector"
	"github.com/penwyp/gitpane/internal/errors"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.Status(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := checkCode("status", res.Code, res.Message); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			summary := collector.Summarize(res.Files)
			if !summary.HasChanges() {
				writeln(w, "Working tree clean")
				return nil
			}
			rows := make([][]string, 0, len(res.Files))
			for _, f := range res.Files {
				name := f.To
				if f.From != "" && f.From != f.To {
					name = f.From + " → " + f.To
				}
				rows = append(rows, []string{f.X, f.Y, name})
			}
			writeln(w, renderTable([]string{"X", "Y", "File"}, rows))
			writeln(w, fmt.Sprintf("%d staged, %d changed, %d untracked, %d conflicts",
				summary.Staged, summary.Unstaged, summary.Untracked, summary.Conflicts))
			return nil
		},
	}
}

func newLogCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.Log(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := checkCode("log", res.Code, res.Message); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderCommits(res.Commits, limit))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n commits (0 = all)")
	return cmd
}

func renderCommits(commits []client.CommitInfo, limit int) string {
	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, []string{shortHash(c.Commit), c.Author, c.Date, firstLine(c.CommitMsg)})
	}
	return renderTable([]string{"Commit", "Author", "Date", "Message"}, rows)
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show HASH",
		Short: "Show the files a commit modified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.DetailedLog(cmd.Context(), args[0], path)
			if err != nil {
				return err
			}
			if err := checkCode("detailed_log", res.Code, res.Message); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if note := strings.TrimSpace(res.ModifiedFileNote); note != "" {
				writeln(w, note)
			}
			rows := make([][]string, 0, len(res.ModifiedFiles))
			for _, f := range res.ModifiedFiles {
				rows = append(rows, []string{f.ModifiedFilePath, "+" + f.Insertion, "-" + f.Deletion})
			}
			writeln(w, renderTable([]string{"File", "Insertions", "Deletions"}, rows))
			writeln(w, fmt.Sprintf("%s files changed, %s insertions(+), %s deletions(-)",
				orZero(res.ModifiedFilesCount), orZero(res.NumberOfInsertions), orZero(res.NumberOfDeletions)))
			return nil
		},
	}
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}

func newBranchCommand(a *app) *cobra.Command {
	var showRemote bool
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.Branch(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := checkCode("branch", res.Code, res.Message); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderBranches(res.Branches, showRemote))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showRemote, "remote", "r", false, "include remote branches")
	return cmd
}

func renderBranches(branches []client.Branch, showRemote bool) string {
	rows := make([][]string, 0, len(branches))
	for _, b := range branches {
		if b.IsRemoteBranch && !showRemote {
			continue
		}
		current := ""
		if b.IsCurrentBranch {
			current = "*"
		}
		rows = append(rows, []string{current, b.Name, b.Upstream, shortHash(b.TopCommit), b.Tag})
	}
	return renderTable([]string{"", "Branch", "Upstream", "Commit", "Tag"}, rows)
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show repository, branch, log and status in one request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.AllHistory(cmd.Context(), path)
			if err != nil {
				return err
			}
			if res.Code != 0 || res.Data == nil || res.Data.ShowTopLevel == nil || res.Data.ShowTopLevel.Code != 0 {
				return errors.ErrNotGitRepo
			}

			w := cmd.OutOrStdout()
			data := res.Data
			writeln(w, "Repository: "+strings.TrimSpace(data.ShowTopLevel.TopRepoPath))
			if data.Branch != nil {
				if current, ok := data.Branch.CurrentBranch(); ok {
					writeln(w, "Branch:     "+current.Name)
				}
			}
			if data.Status != nil {
				s := collector.Summarize(data.Status.Files)
				writeln(w, fmt.Sprintf("Changes:    %d staged, %d changed, %d untracked", s.Staged, s.Unstaged, s.Untracked))
			}
			if data.Log != nil && len(data.Log.Commits) > 0 {
				writeln(w, renderCommits(data.Log.Commits, 10))
			}
			return nil
		},
	}
}

func newTopLevelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toplevel",
		Short: "Print the repository root of --path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			top, err := a.topRepo(cmd.Context(), path)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), top)
			return nil
		},
	}
}

func newPrefixCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prefix",
		Short: "Print --path relative to its repository root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			res, err := a.client.ShowPrefix(cmd.Context(), path)
			if err != nil {
				return err
			}
			if res.Code != 0 {
				return errors.ErrNotGitRepo
			}
			writeln(cmd.OutOrStdout(), strings.TrimSpace(res.UnderRepoPath))
			return nil
		},
	}
}

// topRepo 查询仓库根目录，不在仓库中时返回 ErrNotGitRepo
func (a *app) topRepo(ctx context.Context, path string) (string, error) {
	res, err := a.client.ShowTopLevel(ctx, path)
	if err != nil {
		return "", err
	}
	top := strings.TrimSpace(res.TopRepoPath)
	if res.Code != 0 || top == "" {
		return "", errors.ErrNotGitRepo
	}
	return top, nil
}
