package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/client"
	"github.com/penwyp/gitpane/internal/config"
	"github.com/penwyp/gitpane/internal/errors"
	"github.com/penwyp/gitpane/internal/logger"
	"github.com/penwyp/gitpane/retry"
	"github.com/penwyp/gitpane/ui"
)

// version holds the current version of gitpane
// This will be set at build time via ldflags
var version = "dev"

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("gitpane version %s", version)
}

// globalFlags 对所有子命令生效
type globalFlags struct {
	configPath string
	baseURL    string
	token      string
	timeout    time.Duration
	debug      bool
	path       string
	version    bool
}

// app 保存一次命令执行共享的依赖。
// 关键依赖以函数字段注入，测试时可替换。
type app struct {
	flags globalFlags

	configPath string
	manager    config.Manager
	cfg        *config.Config
	logger     *zap.Logger
	client     *client.Client

	// dialogs 为非交互子命令提供终端对话框
	dialogs func(cmd *cobra.Command) retry.Dialogs
	// runProgram 运行交互式 header，测试时替换
	runProgram func(p *tea.Program) (tea.Model, error)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	if a.dialogs == nil {
		a.dialogs = newTerminalDialogs
	}
	if a.runProgram == nil {
		a.runProgram = func(p *tea.Program) (tea.Model, error) { return p.Run() }
	}

	root := &cobra.Command{
		Use:   "gitpane [PATH]",
		Short: "Terminal client for a notebook server's git extension",
		Long: `gitpane talks to the git extension of a notebook server over its REST API.

Without a subcommand it opens an interactive header for PATH showing
"<folder> / <branch>" with Pull, Push and Refresh actions. When a remote
asks for credentials a username/password dialog opens and the operation
is retried with what you enter. Credentials are never stored.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		RunE:              a.runHeader,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gitpane/config.yaml)")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "notebook server base URL")
	pf.StringVar(&a.flags.token, "token", "", "notebook server token")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout (default from config)")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug output for troubleshooting")
	pf.StringVarP(&a.flags.path, "path", "C", "", "path on the server (default: current directory)")
	root.Flags().BoolVar(&a.flags.version, "version", false, "show version information")

	root.AddCommand(
		newPullCommand(a),
		newPushCommand(a),
		newCloneCommand(a),
		newStatusCommand(a),
		newLogCommand(a),
		newShowCommand(a),
		newBranchCommand(a),
		newHistoryCommand(a),
		newTopLevelCommand(a),
		newPrefixCommand(a),
		newAddCommand(a),
		newAddUntrackedCommand(a),
		newCheckoutCommand(a),
		newCommitCommand(a),
		newResetCommand(a),
		newDeleteCommitCommand(a),
		newResetToCommitCommand(a),
		newInitCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

func Execute() error { return NewRootCommand().Execute() }

func ExecuteContext(ctx context.Context) error { return NewRootCommand().ExecuteContext(ctx) }

// setup 加载配置、初始化日志并创建 API client
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to load .env", err)
	}

	a.configPath = a.flags.configPath
	if a.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return errors.Wrap(errors.ErrTypeConfig, "failed to resolve config path", err)
		}
		a.configPath = p
	}

	manager, err := config.NewManager(a.configPath)
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to open config", err)
	}
	cfg, err := manager.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrTypeConfig, "failed to load config", err).
				WithSuggestion("fix or remove " + a.configPath)
		}
		cfg = config.DefaultConfig()
	}
	a.manager = manager
	a.cfg = a.effective(cmd, cfg)

	if a.logger == nil {
		debug := a.flags.debug || a.cfg.Log.Debug
		if cmd.HasParent() {
			a.logger, err = logger.New(debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		} else {
			// 交互模式下终端由 header 占用，日志写入文件
			a.logger = logger.NewWithFile(debug, a.logFile())
		}
	}

	a.client, err = a.newClient(a.cfg)
	if err != nil {
		return err
	}
	a.logger.Debug("Configuration loaded",
		zap.String("config", a.configPath),
		zap.String("base_url", a.cfg.Server.BaseURL),
		zap.Bool("token", a.cfg.Server.Token != ""))
	return nil
}

// effective 依次叠加环境变量与命令行参数
func (a *app) effective(cmd *cobra.Command, base *config.Config) *config.Config {
	cfg := *base
	config.ApplyEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Server.BaseURL = a.flags.baseURL
	}
	if flags.Changed("token") {
		cfg.Server.Token = a.flags.token
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = a.flags.timeout.String()
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = config.DefaultBaseURL
	}
	return &cfg
}

func (a *app) newClient(cfg *config.Config) (*client.Client, error) {
	timeout, err := cfg.Server.TimeoutDuration(config.DefaultTimeout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "invalid server timeout", err).
			WithSuggestion("use a duration such as 30s or 2m")
	}
	return client.NewClient(client.Settings{
		BaseURL:    cfg.Server.BaseURL,
		Token:      cfg.Server.Token,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     a.logger,
	}), nil
}

func (a *app) logFile() string {
	if a.cfg != nil && a.cfg.Log.File != "" {
		return a.cfg.Log.File
	}
	return filepath.Join(filepath.Dir(a.configPath), "gitpane.log")
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// repoPath 返回操作路径：参数优先，其次 --path，最后是当前目录
func (a *app) repoPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.flags.path != "" {
		return a.flags.path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeValidation, "failed to resolve current directory", err)
	}
	return wd, nil
}

// runHeader 启动交互式 header
func (a *app) runHeader(cmd *cobra.Command, args []string) error {
	if a.flags.version {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), GetVersionString())
		return nil
	}

	path, err := a.repoPath(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dialogs := ui.NewProgramDialogs(nil)
	controller := retry.NewController(dialogs, retry.WithLogger(a.logger))
	model := ui.NewHeaderModel(ctx, path, a.client, controller, a.logger)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))
	dialogs.Attach(program)

	hot, err := config.NewHotReloadManager(a.manager, a.configPath, a.logger)
	if err != nil {
		a.logger.Warn("Config hot reload disabled", zap.Error(err))
	} else {
		defer func() { _ = hot.Stop() }()
		hot.OnConfigChange(func(cfg *config.Config) {
			next := a.effective(cmd, cfg)
			backend, err := a.newClient(next)
			if err != nil {
				a.logger.Warn("Ignoring config change", zap.Error(err))
				return
			}
			a.logger.Info("Config changed, rebuilding client",
				zap.String("base_url", next.Server.BaseURL))
			program.Send(ui.BackendChangedMsg{Backend: backend})
		})
	}

	a.logger.Debug("Starting header", zap.String("path", path))
	if _, err := a.runProgram(program); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("interactive header failed: %w", err)
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// 不需要加载配置
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), GetVersionString())
		},
	}
}
