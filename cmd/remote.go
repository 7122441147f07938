package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/internal/errors"
	"github.com/penwyp/gitpane/internal/remote"
	"github.com/penwyp/gitpane/retry"
)

func newPullCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the repository, asking for credentials if the remote needs them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			_, err = a.runRemote(cmd, retry.PullOperation(a.client, path))
			return err
		},
	}
}

func newPushCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push the repository, asking for credentials if the remote needs them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			_, err = a.runRemote(cmd, retry.PushOperation(a.client, path))
			return err
		},
	}
}

func newCloneCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clone URL",
		Short: "Clone URL into the directory given by --path",
		Long: `Clone URL on the server into --path (default: current directory).

The username for https remotes is prefilled from the remotes section of the
config file, or from the URL itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := a.repoPath(nil)
			if err != nil {
				return err
			}
			info, err := remote.NewResolver(a.manager).Resolve(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrTypeValidation, "invalid clone URL", err).
					WithSuggestion("use an https://host/owner/repo.git or git@host:owner/repo.git URL")
			}

			op := retry.CloneOperation(a.client, parent, args[0], info.DisplayHost())
			op.Username = info.Username
			out, err := a.runRemote(cmd, op)
			if err != nil {
				return err
			}
			if out.State == retry.StateSuccess {
				writeln(cmd.OutOrStdout(), "Cloned into "+info.Target(parent))
			}
			return nil
		},
	}
}

// runRemote 以终端对话框驱动认证重试流程
func (a *app) runRemote(cmd *cobra.Command, op retry.Operation) (retry.Outcome, error) {
	w := cmd.OutOrStdout()
	controller := retry.NewController(a.dialogs(cmd),
		retry.WithLogger(a.logger),
		retry.WithObserver(func(op retry.Operation, s retry.State) {
			switch s {
			case retry.StateRequesting:
				writeln(w, renderStatusBar(progressText(op.Name), false))
			case retry.StateRetrying:
				writeln(w, renderStatusBar("Retrying with credentials...", false))
			}
		}),
	)

	out, err := controller.Run(cmd.Context(), op)
	if err != nil {
		return out, err
	}
	a.logger.Debug("Remote operation finished",
		zap.String("operation", op.Name),
		zap.Stringer("state", out.State),
		zap.Int("attempts", out.Attempts))

	if out.State == retry.StateSuccess {
		msg := successMessage(op.Name)
		if out.Result != nil && firstLine(out.Result.Message) != "" {
			msg = firstLine(out.Result.Message)
		}
		writeln(w, renderStatusBar(msg, true))
	}
	return out, out.ToError()
}

func progressText(op string) string {
	switch op {
	case "pull":
		return "Pulling..."
	case "push":
		return "Pushing..."
	case "clone":
		return "Cloning..."
	default:
		return fmt.Sprintf("Running %s...", op)
	}
}

func successMessage(op string) string {
	switch op {
	case "pull":
		return "Pulled successfully"
	case "push":
		return "Pushed successfully"
	case "clone":
		return "Cloned successfully"
	default:
		return "Done"
	}
}
