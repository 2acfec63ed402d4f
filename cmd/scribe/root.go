package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bashhack/scribe/internal/config"
	"github.com/bashhack/scribe/internal/history"
)

// cli holds what every subcommand shares: the base dependencies and the
// flags that are not configuration keys.
type cli struct {
	opts        AppOptions
	versionInfo config.VersionInfo

	configPath     string
	nonInteractive bool

	isTerminal func(fd uintptr) bool
}

// newRootCmd builds the scribe command tree. Fields left nil in opts are
// taken from the cobra command's streams and the defaults in NewApp.
func newRootCmd(versionInfo config.VersionInfo, opts AppOptions) *cobra.Command {
	c := &cli{
		opts:        opts,
		versionInfo: versionInfo,
		isTerminal: func(fd uintptr) bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}

	root := &cobra.Command{
		Use:   "scribe",
		Short: "Scribe keeps a git-versioned journal of your editing activity",
		Long: `Scribe records which files you edit and how often, appends a snapshot to
a daily markdown log every interval, and commits the log into a git
repository inside your workspace (.scribe by default). Daily and weekly
summaries are generated from that history at the calendar boundaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: .scribe.yaml in the workspace or $HOME)")
	pf.String("workspace", "", "project directory to track (default: current directory)")
	pf.String("dir", config.DefaultDir, "log store directory: relative to the workspace, absolute, or ~/...")
	pf.BoolP("quiet", "q", false, "only show essential output")
	pf.Bool("debug", false, "write a debug log file")
	pf.String("log-file", "", "debug log path (default: XDG data directory)")
	pf.String("author-name", "", "commit author name (default: git config)")
	pf.String("author-email", "", "commit author email (default: git config)")
	pf.Bool("no-index", false, "disable the SQLite activity index")
	pf.String("index-path", "", "activity index path (default: XDG data directory)")

	root.AddCommand(
		c.runCmd(),
		c.restoreCmd(),
		c.diffCmd(),
		c.helloCmd(),
		c.historyCmd(),
		c.summarizeCmd(),
		c.statsCmd(),
		c.configCmd(),
		c.versionCmd(),
	)

	return root
}

// loadConfig resolves the configuration for cmd from defaults, the config
// file, SCRIBE_* variables and flags.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, nil, err
	}

	cfg, err := loader.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.VersionInfo = c.versionInfo
	return cfg, loader, nil
}

// newApp loads the configuration and returns an initialized App. The
// caller must Close it.
func (c *cli) newApp(cmd *cobra.Command) (*App, error) {
	cfg, loader, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := c.opts
	opts.Config = cfg
	opts.Loader = loader
	if opts.Stdin == nil {
		opts.Stdin = cmd.InOrStdin()
	}
	if opts.Stdout == nil {
		opts.Stdout = cmd.OutOrStdout()
	}
	if opts.Stderr == nil {
		opts.Stderr = cmd.ErrOrStderr()
	}

	app := NewApp(opts)
	if err := app.Initialize(); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// interactor picks how restore and diff ask questions: readline on a
// terminal, plain lines from a pipe, or nothing at all.
func (c *cli) interactor(app *App) history.UserInteractor {
	if c.opts.Interactor != nil {
		return c.opts.Interactor
	}
	if c.nonInteractive {
		return history.NewNonInteractiveInteractor()
	}

	if c.stdinIsTerminal(app) {
		rl, err := history.NewReadlineInteractor(app.Stdout)
		if err == nil {
			return rl
		}
		app.Logger.Warning("Falling back to plain prompts: %v", err)
	}
	return history.NewDefaultInteractor(app.Stdin, app.Stdout)
}

// stdinIsTerminal reports whether app reads from an interactive terminal.
func (c *cli) stdinIsTerminal(app *App) bool {
	f, ok := app.Stdin.(*os.File)
	return ok && c.isTerminal(f.Fd())
}
