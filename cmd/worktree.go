package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/internal/errors"
)

// repoCommand 解析仓库根目录后执行 fn，用于需要 top_repo_path 的接口
func (a *app) repoCommand(fn func(cmd *cobra.Command, args []string, top string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path, err := a.repoPath(nil)
		if err != nil {
			return err
		}
		top, err := a.topRepo(cmd.Context(), path)
		if err != nil {
			return err
		}
		return fn(cmd, args, top)
	}
}

func newAddCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "add [FILE]",
		Short: "Stage a file, or every change with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.repoCommand(func(cmd *cobra.Command, args []string, top string) error {
			if !all && len(args) == 0 {
				return errors.New(errors.ErrTypeValidation, "missing FILE or --all")
			}
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			raw, err := a.client.Add(cmd.Context(), all, file, top)
			if err != nil {
				return err
			}
			if err := checkRaw("add", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Staged", true))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "A", false, "stage every change")
	return cmd
}

func newAddUntrackedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-untracked",
		Short: "Stage every untracked file",
		Args:  cobra.NoArgs,
		RunE: a.repoCommand(func(cmd *cobra.Command, _ []string, top string) error {
			res, err := a.client.AddAllUntracked(cmd.Context(), top)
			if err != nil {
				return err
			}
			if err := checkCode("add_all_untracked", res.Code, res.Message); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Staged untracked files", true))
			return nil
		}),
	}
}

func newCheckoutCommand(a *app) *cobra.Command {
	var (
		create bool
		all    bool
		file   string
	)
	cmd := &cobra.Command{
		Use:   "checkout [BRANCH]",
		Short: "Switch or create a branch, or discard changes",
		Long: `Switch to BRANCH, create it with -b, discard every work tree change with
--all, or discard the changes of one file with --file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.repoCommand(func(cmd *cobra.Command, args []string, top string) error {
			opts := client.CheckoutOptions{TopRepoPath: top}
			var done string
			switch {
			case len(args) == 1:
				opts.CheckoutBranch = true
				opts.NewCheck = create
				opts.BranchName = args[0]
				done = "Switched to " + args[0]
				if create {
					done = "Created and switched to " + args[0]
				}
			case all:
				opts.CheckoutAll = true
				done = "Discarded all changes"
			case file != "":
				opts.Filename = file
				done = "Discarded changes to " + file
			default:
				return errors.New(errors.ErrTypeValidation, "missing BRANCH, --all or --file")
			}

			raw, err := a.client.Checkout(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := checkRaw("checkout", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar(done, true))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&create, "new", "b", false, "create the branch")
	cmd.Flags().BoolVar(&all, "all", false, "discard every work tree change")
	cmd.Flags().StringVar(&file, "file", "", "discard the changes of one file")
	return cmd
}

func newCommitCommand(a *app) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the staged changes",
		Args:  cobra.NoArgs,
		RunE: a.repoCommand(func(cmd *cobra.Command, _ []string, top string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New(errors.ErrTypeValidation, "missing commit message").WithSuggestion("pass a message with -m")
			}
			res, err := a.client.Commit(cmd.Context(), message, top, a.cfg.Author.Name, a.cfg.Author.Email)
			if err != nil {
				return err
			}
			if err := checkCode("commit", res.Code, res.Message); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Committed successfully", true))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func newResetCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [FILE]",
		Short: "Unstage a file, or everything with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.repoCommand(func(cmd *cobra.Command, args []string, top string) error {
			if !all && len(args) == 0 {
				return errors.New(errors.ErrTypeValidation, "missing FILE or --all")
			}
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			raw, err := a.client.Reset(cmd.Context(), all, file, top)
			if err != nil {
				return err
			}
			if err := checkRaw("reset", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Unstaged", true))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "A", false, "unstage everything")
	return cmd
}

func newDeleteCommitCommand(a *app) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "delete-commit COMMIT",
		Short: "Revert COMMIT and commit the result",
		Long: `Revert COMMIT and commit the result with --message (default "Revert <hash>").

Only the revert is checked. When the follow-up commit fails a warning is
logged and the revert may be left uncommitted; run "gitpane status" to check.`,
		Args: cobra.ExactArgs(1),
		RunE: a.repoCommand(func(cmd *cobra.Command, args []string, top string) error {
			if strings.TrimSpace(message) == "" {
				message = "Revert " + shortHash(args[0])
			}
			raw, err := a.client.DeleteCommit(cmd.Context(), message, top, args[0])
			if err != nil {
				return err
			}
			if err := checkRaw("delete_commit", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Reverted "+shortHash(args[0]), true))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message of the revert commit")
	return cmd
}

func newResetToCommitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-to-commit COMMIT",
		Short: "Reset the repository to COMMIT",
		Args:  cobra.ExactArgs(1),
		RunE: a.repoCommand(func(cmd *cobra.Command, args []string, top string) error {
			raw, err := a.client.ResetToCommit(cmd.Context(), top, args[0])
			if err != nil {
				return err
			}
			if err := checkRaw("reset_to_commit", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Reset to "+shortHash(args[0]), true))
			return nil
		}),
	}
}

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a repository at --path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			raw, err := a.client.Init(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := checkRaw("init", raw); err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Initialized repository in "+path, true))
			return nil
		},
	}
}
