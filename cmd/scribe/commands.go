package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bashhack/scribe/internal/config"
	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/history"
	"github.com/bashhack/scribe/internal/logger"
	"github.com/bashhack/scribe/internal/summary"
)

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track editing activity and commit a log every interval",
		Long: `Run reads editor events, appends a snapshot of the edit counts to
log-<day>.md every interval and commits it. By default events are read as
JSON lines from stdin, for example:

  {"type":"open","path":"src/main.go"}
  {"type":"change","path":"src/main.go","changes":2}

With --source watch, file writes in the workspace are tracked instead.

The log store is its own git repository, at <workspace>/.scribe by default.
When the workspace is itself a git checkout, add .scribe/ to its .gitignore,
or keep the store outside with an absolute or home-relative path:

  scribe run --dir ~/.scribe/myproject`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					_, _ = fmt.Fprintf(app.Stderr, "❌ Error during cleanup: %v\n", err)
				}
			}()

			if app.Config.Source == config.SourceStdin && c.stdinIsTerminal(app) {
				app.Logger.WarningToUser("Reading editor events from the terminal; pipe an editor integration into scribe or use --source watch")
			}
			return app.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Float64("interval", config.DefaultIntervalMinutes, "minutes between log snapshots (floored, minimum 1)")
	f.String("source", string(config.SourceStdin), "event source: stdin, watch or none")
	f.Duration("shutdown-timeout", config.DefaultShutdownTimeout, "how long to wait for the final commit on exit")
	f.Int("queue-size", config.DefaultQueueSize, "pending git operations before new ones are dropped")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	return cmd
}

func (c *cli) restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Inspect a snapshot and restore it or branch from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBrowser(cmd, true, func(b *history.Browser) error {
				return b.Restore(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&c.nonInteractive, "non-interactive", false, "never prompt; cancel every choice")
	return cmd
}

func (c *cli) diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the diff between two of the last five snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBrowser(cmd, false, func(b *history.Browser) error {
				return b.ShowDiff(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&c.nonInteractive, "non-interactive", false, "never prompt; cancel every choice")
	return cmd
}

// withBrowser runs fn against an existing log store. Commands that move
// HEAD pass write so a running daemon keeps exclusive use of the store.
func (c *cli) withBrowser(cmd *cobra.Command, write bool, fn func(*history.Browser) error) error {
	app, err := c.newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if !app.Repo.IsInitialized() {
		app.Logger.InfoToUser("No log store at %s yet. Start one with `scribe run`.", app.Config.RootDir)
		return nil
	}

	if write {
		if err := app.OpenForWrite(cmd.Context()); err != nil {
			return err
		}
	}

	app.SetInteractor(c.interactor(app))
	return fn(app.Browser())
}

func (c *cli) helloCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Check that scribe is installed and working",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			log := logger.New(false, "", true, cmd.OutOrStdout(), cmd.ErrOrStderr())
			history.NewBrowser(nil, nil, log, cmd.OutOrStdout()).Hello()
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if !app.Repo.IsInitialized() {
				app.Logger.InfoToUser("No log store at %s yet.", app.Config.RootDir)
				return nil
			}

			commits, err := app.Browser().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				app.Logger.InfoToUser("No snapshots yet.")
				return nil
			}

			tbl := newTable()
			tbl.AppendHeader(table.Row{"Commit", "Date", "When", "Message"})
			for _, commit := range commits {
				when := ""
				if !commit.Time.IsZero() {
					when = humanize.RelTime(commit.Time, app.now(), "ago", "from now")
				}
				tbl.AppendRow(table.Row{commit.Hash, commit.Date, when, commit.Subject})
			}
			_, _ = fmt.Fprintln(app.Stdout, tbl.Render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of snapshots to list (0 for all)")
	return cmd
}

func (c *cli) summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "summarize daily|weekly",
		Short:     "Write and commit a summary now",
		Long:      "Summarize writes the daily summary for yesterday, or the weekly summary of the current week so far, and commits it.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(summary.Daily), string(summary.Weekly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := summary.ParseKind(args[0])
			if err != nil {
				return err
			}

			app, err := c.newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if err := app.OpenForWrite(cmd.Context()); err != nil {
				return err
			}

			now := app.now()
			w := summary.DailyWindow(now)
			if kind == summary.Weekly {
				w = summary.WeeklyWindow(summary.UpcomingWeeklyBoundary(now), now)
			}

			_, err = app.Summaries.Generate(cmd.Context(), w)
			return err
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var (
		days  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the most edited files from the activity index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if !app.Config.Index.Enabled {
				return scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, "the activity index is disabled")
			}
			app.openIndex()
			if app.Index == nil {
				return fmt.Errorf("activity index at %s could not be opened", app.Config.Index.Path)
			}

			now := app.now()
			stats, err := app.Index.TopFiles(cmd.Context(), now.AddDate(0, 0, -days), limit)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				app.Logger.InfoToUser("No activity recorded in the last %d days.", days)
				return nil
			}

			total := 0
			tbl := newTable()
			tbl.AppendHeader(table.Row{"File", "Edits", "Snapshots", "Last edited"})
			for _, s := range stats {
				total += s.Edits
				tbl.AppendRow(table.Row{
					s.Path,
					humanize.Comma(int64(s.Edits)),
					humanize.Comma(int64(s.Flushes)),
					humanize.RelTime(s.LastSeen, now, "ago", "from now"),
				})
			}
			tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(total)), "", ""})
			_, _ = fmt.Fprintln(app.Stdout, tbl.Render())
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "how many days back to look")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of files to show")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Finalize(); err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return scribeErrors.Wrap(err, "failed to encode configuration")
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scribe %s (%s) built on %s\n",
				c.versionInfo.Version,
				c.versionInfo.Commit,
				c.versionInfo.Date)
		},
	}
}

// newTable returns a borderless table in the style used by every listing.
func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false
	return tbl
}
