package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/treeview/internal/adapters/specfile"
	"github.com/evanschultz/treeview/internal/config"
	"github.com/evanschultz/treeview/internal/domain"
	"github.com/evanschultz/treeview/internal/platform"
	"github.com/evanschultz/treeview/internal/tui"
	"github.com/evanschultz/treeview/internal/watcher"
	"github.com/spf13/cobra"
)

var version = "dev"

// program is the part of a bubbletea program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory is swapped in tests.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the command line. fang renders help, version and errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	itemsPath  string
	appName    string
	devMode    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("TREEVIEW_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TREEVIEW_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:   "treeview",
		Short: "Browse and edit a tri-state checkbox tree",
		Long: `treeview renders a hierarchical checkbox tree in the terminal.

Items come from the sqlite catalog, or from a JSON, YAML or TOML item file
when --items is set. Checking a parent checks its children; a parent with a
mix of checked and unchecked leaves shows as indeterminate.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.itemsPath, "items", "", "item spec file (json, yaml or toml) used instead of the database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCmd(opts),
		newImportCmd(opts, stderr),
		newExportCmd(opts, stderr),
	)
	return root
}

func newPathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "items: %s\n", paths.ItemsPath)
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		inPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the stored items with an item spec file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return withItemSource(cmd.Context(), opts, stderr, "import", func(ctx context.Context, src *itemSource) error {
				specs, err := specfile.Load(inPath, specfile.Format(format))
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				if err := src.Import(ctx, specs); err != nil {
					return fmt.Errorf("import items: %w", err)
				}
				src.logger.Info("items imported", "in", inPath, "items", len(specs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input item spec file")
	cmd.Flags().StringVar(&format, "format", "", "input format (json, yaml, toml); inferred from the extension when empty")
	return cmd
}

func newExportCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		outPath string
		format  string
		filter  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored items as an item spec document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withItemSource(cmd.Context(), opts, stderr, "export", func(ctx context.Context, src *itemSource) error {
				specs, err := src.Export(ctx)
				if err != nil {
					return fmt.Errorf("export items: %w", err)
				}
				if filter != "" {
					specs = src.ExportView(filter)
				}
				return writeExport(cmd.OutOrStdout(), outPath, specfile.Format(format), specs)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format (json, yaml, toml); inferred from --out, json for stdout")
	cmd.Flags().StringVar(&filter, "filter", "", "export only items matching this filter text, with their ancestors")
	return cmd
}

// writeExport encodes specs to stdout or to a file.
func writeExport(stdout io.Writer, outPath string, format specfile.Format, specs []domain.NodeSpec) error {
	if outPath != "-" {
		return specfile.Save(outPath, format, specs)
	}
	if format == "" {
		format = specfile.FormatJSON
	}
	encoded, err := specfile.Encode(specs, format)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(encoded); err != nil {
		return fmt.Errorf("write items to stdout: %w", err)
	}
	return nil
}

// runTUI opens the items and runs the interactive tree until the user quits.
func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	return withItemSource(ctx, opts, stderr, "tui", func(ctx context.Context, src *itemSource) error {
		env := src.env
		modelOpts := []tui.Option{
			tui.WithTitle(opts.appName),
			tui.WithKeyConfig(toTUIKeyConfig(env.cfg.Keys)),
		}
		modelOpts = append(modelOpts, src.tuiOptions()...)

		if src.path != "" && env.cfg.Items.Watch {
			w, err := watcher.New(src.path, watcher.WithOnError(func(err error) {
				src.logger.Warn("item file watch", "path", src.path, "err", err)
			}))
			if err != nil {
				return fmt.Errorf("watch item file: %w", err)
			}
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				_ = w.Run(watchCtx)
			}()
			modelOpts = append(modelOpts, tui.WithChanges(w.Changes()))
			src.logger.Info("watching item file", "path", w.Path())
		}

		m := tui.NewModel(src.ctl, modelOpts...)
		src.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			src.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// runtimeEnv is the resolved configuration of one command run.
type runtimeEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
}

func resolvePaths(opts *rootOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// resolveEnv applies flags, then TREEVIEW_* variables, then the config file.
func resolveEnv(opts *rootOptions) (runtimeEnv, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return runtimeEnv{}, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = envOr("TREEVIEW_CONFIG", paths.ConfigPath)
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(os.Getenv("TREEVIEW_DB_PATH"))
	}
	itemsPath := strings.TrimSpace(opts.itemsPath)
	if itemsPath == "" {
		itemsPath = strings.TrimSpace(os.Getenv("TREEVIEW_ITEMS"))
	}

	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return runtimeEnv{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if itemsPath != "" {
		cfg.Items.Path = itemsPath
	}
	if cfg.Items.Path != "" && !filepath.IsAbs(cfg.Items.Path) {
		if abs, err := filepath.Abs(cfg.Items.Path); err == nil {
			cfg.Items.Path = abs
		}
	}
	if err := cfg.Validate(); err != nil {
		return runtimeEnv{}, fmt.Errorf("validate config %q: %w", configPath, err)
	}
	return runtimeEnv{paths: paths, configPath: configPath, cfg: cfg}, nil
}

// withItemSource resolves the environment, opens logging and the items, and
// runs fn as one logged command flow.
func withItemSource(ctx context.Context, opts *rootOptions, stderr io.Writer, command string, fn func(context.Context, *itemSource) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := resolveEnv(opts)
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, env.cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.ConsoleEnabled() {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", env.configPath, "data_dir", env.paths.DataDir, "db_path", env.cfg.Database.Path)
	logger.Info("configuration loaded", "config_path", env.configPath, "db_path", env.cfg.Database.Path, "items_path", env.cfg.Items.Path, "log_level", env.cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	src, err := openItemSource(ctx, env.cfg, logger)
	if err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	src.env = env
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logger.Warn("item source close failed", "err", closeErr)
		}
	}()

	logger.Info("command flow start", "command", command)
	if err := fn(ctx, src); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
