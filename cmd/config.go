package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/penwyp/gitpane/internal/config"
	"github.com/penwyp/gitpane/internal/errors"
	"github.com/penwyp/gitpane/internal/remote"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the config file",
	}
	cmd.AddCommand(
		newConfigInitCommand(a),
		newConfigShowCommand(a),
		newConfigSetServerCommand(a),
		newConfigSetRemoteCommand(a),
		newConfigRemotesCommand(a),
	)
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return errors.New(errors.ErrTypeConfig, "config file already exists: "+a.configPath).
					WithSuggestion("use --force to overwrite it")
			}
			if err := a.manager.CreateDefaultConfig(); err != nil {
				return errors.Wrap(errors.ErrTypeConfig, "failed to write config", err)
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Wrote "+a.configPath, true))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, environment and flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := *a.cfg
			if shown.Server.Token != "" {
				shown.Server.Token = "********"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return errors.Wrap(errors.ErrTypeConfig, "failed to encode config", err)
			}
			writeln(cmd.OutOrStdout(), "# "+a.configPath)
			_, _ = cmd.OutOrStdout().Write(data)
			return nil
		},
	}
}

func newConfigSetServerCommand(a *app) *cobra.Command {
	var (
		token   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "set-server BASE_URL",
		Short: "Save the server address, and optionally its token and timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server := config.ServerConfig{BaseURL: args[0]}
			// 未指定的字段保留文件中的值
			if cfg, err := a.manager.Load(); err == nil {
				server.Token = cfg.Server.Token
				server.Timeout = cfg.Server.Timeout
			}
			if cmd.Flags().Changed("server-token") {
				server.Token = token
			}
			if cmd.Flags().Changed("server-timeout") {
				server.Timeout = timeout.String()
			}
			if err := a.manager.UpdateServer(server); err != nil {
				return errors.Wrap(errors.ErrTypeConfig, "failed to save server settings", err)
			}
			writeln(cmd.OutOrStdout(), renderStatusBar("Server set to "+server.BaseURL, true))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "server-token", "", "token to save with the server")
	cmd.Flags().DurationVar(&timeout, "server-timeout", 0, "request timeout to save with the server")
	return cmd
}

func newConfigSetRemoteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-remote HOST USERNAME",
		Short: "Prefill USERNAME in the credentials prompt for HOST",
		Long: `Prefill USERNAME in the credentials prompt for clone URLs on HOST.
HOST may carry a port (git.example.com:8443). Passwords are never saved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.UpdateRemote(args[0], config.RemoteConfig{Username: args[1]}); err != nil {
				return errors.Wrap(errors.ErrTypeConfig, "failed to save remote", err)
			}
			writeln(cmd.OutOrStdout(), renderStatusBar(fmt.Sprintf("%s will prefill %s", args[0], args[1]), true))
			return nil
		},
	}
}

// RemoteStatus 描述一个已配置 remote 的凭据预填状态
type RemoteStatus struct {
	Host     string
	Username string
	Status   string
	Prefill  bool
}

func newConfigRemotesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes [URL...]",
		Short: "List configured remotes, or show which username each URL would prefill",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []RemoteStatus
			if len(args) == 0 {
				statuses = configuredRemotes(a.cfg)
			} else {
				resolver := remote.NewResolver(a.manager)
				for _, u := range args {
					statuses = append(statuses, resolveRemote(resolver, u))
				}
			}
			if len(statuses) == 0 {
				writeln(cmd.OutOrStdout(), "No remotes configured")
				return nil
			}
			writeln(cmd.OutOrStdout(), formatRemoteTable(statuses))
			return nil
		},
	}
}

func configuredRemotes(cfg *config.Config) []RemoteStatus {
	hosts := make([]string, 0, len(cfg.Remotes))
	for host := range cfg.Remotes {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	statuses := make([]RemoteStatus, 0, len(hosts))
	for _, host := range hosts {
		s := RemoteStatus{Host: host, Username: cfg.Remotes[host].Username, Status: "✓ Prefilled", Prefill: true}
		if s.Username == "" {
			s.Username, s.Status, s.Prefill = "-", "✗ Not prefilled", false
		}
		statuses = append(statuses, s)
	}
	return statuses
}

func resolveRemote(resolver *remote.Resolver, rawURL string) RemoteStatus {
	info, err := resolver.Resolve(rawURL)
	switch {
	case err != nil:
		return RemoteStatus{Host: rawURL, Username: "-", Status: "✗ Invalid URL"}
	case !info.UsesPassword():
		return RemoteStatus{Host: info.DisplayHost(), Username: "-", Status: "SSH key, no prompt"}
	case info.Username == "":
		return RemoteStatus{Host: info.DisplayHost(), Username: "-", Status: "✗ Not prefilled"}
	default:
		return RemoteStatus{Host: info.DisplayHost(), Username: info.Username, Status: "✓ Prefilled", Prefill: true}
	}
}

// formatRemoteTable 格式化 remote 状态表格
func formatRemoteTable(statuses []RemoteStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{s.Host, s.Username, formatRemoteStatusWithColor(s)})
	}
	return renderTable([]string{"Host", "Username", "Status"}, rows)
}

// formatRemoteStatusWithColor 格式化带颜色的状态
func formatRemoteStatusWithColor(status RemoteStatus) string {
	if status.Prefill {
		return color.GreenString(status.Status)
	}
	return color.RedString(status.Status)
}
