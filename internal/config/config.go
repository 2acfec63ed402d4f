package config

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

const (
	// DefaultIntervalMinutes is the default time (in minutes) between ticks.
	// Each tick flushes the edit counts into the day's log and commits it.
	// Summary boundaries are detected by polling, so the interval should
	// stay at or below one minute to land reliably on Sunday 23:59.
	DefaultIntervalMinutes = 1

	// DefaultDir is the log store directory, relative to the workspace.
	DefaultDir = ".scribe"

	// DefaultShutdownTimeout bounds how long shutdown waits for the final
	// flush to be committed.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultQueueSize is the number of pending git tasks accepted before
	// new submissions are dropped.
	DefaultQueueSize = 64
)

// Source selects where edit notifications come from.
type Source string

const (
	// SourceStdin reads newline-delimited JSON events written by an editor integration.
	SourceStdin Source = "stdin"

	// SourceWatch derives events from filesystem notifications in the workspace.
	SourceWatch Source = "watch"

	// SourceNone runs the scheduler without any event source.
	SourceNone Source = "none"
)

// Config holds all scribe application settings.
// Values come from defaults, an optional .scribe.yaml file, SCRIBE_*
// environment variables and command-line flags, in increasing precedence.
type Config struct {
	// Workspace is the project directory being tracked.
	// If empty, the current working directory is used.
	Workspace string `mapstructure:"workspace" yaml:"workspace"`

	// Dir is the log store directory. Relative paths are resolved
	// against Workspace.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// RootDir is the absolute log store path, derived by Finalize.
	RootDir string `mapstructure:"-" yaml:"root_dir"`

	// IntervalMinutes is the tick interval, always >= 1 after loading.
	IntervalMinutes int `mapstructure:"-" yaml:"interval"`

	// Source selects the edit event source.
	Source Source `mapstructure:"source" yaml:"source"`

	// Verbose controls the amount of informational output.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// Debug enables the debug log file.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// LogFile is the debug log path. Defaults to an XDG data path keyed by
	// the log store root.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	// ShutdownTimeout bounds the final flush on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// QueueSize is the capacity of the git task queue.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`

	// Git holds optional commit identity overrides.
	Git GitConfig `mapstructure:"git" yaml:"git"`

	// Index configures the SQLite activity index.
	Index IndexConfig `mapstructure:"index" yaml:"index"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	// ConfigFile is the configuration file that was read, if any.
	ConfigFile string `mapstructure:"-" yaml:"config_file,omitempty"`

	// VersionInfo contains version, commit, and build date information.
	VersionInfo VersionInfo `mapstructure:"-" yaml:"-"`
}

// GitConfig overrides the commit identity. Empty values defer to the
// user's git configuration.
type GitConfig struct {
	AuthorName  string `mapstructure:"author_name" yaml:"author_name"`
	AuthorEmail string `mapstructure:"author_email" yaml:"author_email"`
}

// IndexConfig configures the activity index.
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Dir:             DefaultDir,
		IntervalMinutes: DefaultIntervalMinutes,
		Source:          SourceStdin,
		Verbose:         true,
		ShutdownTimeout: DefaultShutdownTimeout,
		QueueSize:       DefaultQueueSize,
		Index:           IndexConfig{Enabled: true},
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// Interval returns the tick interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// CoerceInterval turns a configured interval into a whole number of
// minutes, at least 1. Fractions are floored.
func CoerceInterval(minutes float64) int {
	if math.IsNaN(minutes) || minutes < 1 {
		return 1
	}
	if minutes > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(minutes))
}

// Finalize validates the configuration and derives the absolute log store
// root and the XDG paths for the debug log and the activity index.
func (c *Config) Finalize() error {
	c.IntervalMinutes = CoerceInterval(float64(c.IntervalMinutes))

	switch c.Source {
	case SourceStdin, SourceWatch, SourceNone:
	case "":
		c.Source = SourceStdin
	default:
		return scribeErrors.NewConfigError("source", string(c.Source),
			scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, "source must be one of stdin, watch, none"))
	}

	if c.QueueSize <= 0 {
		return scribeErrors.NewConfigError("queue_size", c.QueueSize,
			scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, "queue size must be positive"))
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return scribeErrors.NewConfigError("workspace", nil,
				scribeErrors.Wrap(scribeErrors.ErrNoWorkspace, err.Error()))
		}
		c.Workspace = wd
	}

	absWorkspace, err := filepath.Abs(c.Workspace)
	if err != nil {
		return scribeErrors.NewConfigError("workspace", c.Workspace,
			scribeErrors.Wrap(scribeErrors.ErrNoWorkspace, err.Error()))
	}
	info, err := os.Stat(absWorkspace)
	if err != nil || !info.IsDir() {
		return scribeErrors.NewConfigError("workspace", absWorkspace,
			scribeErrors.Wrap(scribeErrors.ErrNoWorkspace, "workspace folder does not exist"))
	}
	c.Workspace = absWorkspace

	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	dir, err := expandHome(c.Dir)
	if err != nil {
		return scribeErrors.NewConfigError("dir", c.Dir, scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, err.Error()))
	}
	if filepath.IsAbs(dir) {
		c.RootDir = filepath.Clean(dir)
	} else {
		c.RootDir = filepath.Join(c.Workspace, dir)
	}

	rootHash := fmt.Sprintf("%x", sha256OfString(c.RootDir)[:8])

	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataHome(), "scribe", "logs", fmt.Sprintf("scribe-%s.log", rootHash))
		if c.Debug {
			if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o700); err != nil {
				return scribeErrors.NewConfigError("log_file", c.LogFile, scribeErrors.Wrap(err, "cannot create log directory"))
			}
		}
	}

	if c.Index.Enabled && c.Index.Path == "" {
		c.Index.Path = filepath.Join(dataHome(), "scribe", "index", fmt.Sprintf("scribe-%s.db", rootHash))
	}

	return nil
}

// dataHome follows the XDG Base Directory Specification.
// expandHome resolves a leading "~" so a dir set in .scribe.yaml can point
// at the home directory the way a shell argument would.
func expandHome(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(homeDir, ".local", "share")
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
