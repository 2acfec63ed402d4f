package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// configName is the config file name without extension.
const configName = ".scribe"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for scribe settings.
const envPrefix = "SCRIBE"

// Configuration keys shared by defaults, flags and environment variables.
const (
	KeyWorkspace       = "workspace"
	KeyDir             = "dir"
	KeyInterval        = "interval"
	KeySource          = "source"
	KeyVerbose         = "verbose"
	KeyQuiet           = "quiet"
	KeyDebug           = "debug"
	KeyLogFile         = "log_file"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyQueueSize       = "queue_size"
	KeyGitAuthorName   = "git.author_name"
	KeyGitAuthorEmail  = "git.author_email"
	KeyIndexEnabled    = "index.enabled"
	KeyIndexPath       = "index.path"
	KeyMetricsAddr     = "metrics_addr"
)

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"workspace":        KeyWorkspace,
	"dir":              KeyDir,
	"interval":         KeyInterval,
	"source":           KeySource,
	"quiet":            KeyQuiet,
	"debug":            KeyDebug,
	"log-file":         KeyLogFile,
	"shutdown-timeout": KeyShutdownTimeout,
	"queue-size":       KeyQueueSize,
	"author-name":      KeyGitAuthorName,
	"author-email":     KeyGitAuthorEmail,
	"no-index":         "",
	"index-path":       KeyIndexPath,
	"metrics-addr":     KeyMetricsAddr,
}

// Loader resolves a Config from defaults, a config file, SCRIBE_*
// environment variables and bound flags.
type Loader struct {
	v       *viper.Viper
	noIndex *pflag.Flag
}

// NewLoader returns a Loader with defaults and environment lookup applied.
func NewLoader() *Loader {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Viper exposes the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// BindFlags binds every known flag present in fs.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if name == "no-index" {
			l.noIndex = flag
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return scribeErrors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return nil
}

// Load reads the config file and decodes the merged configuration.
// If configPath is empty, .scribe.yaml is searched in the workspace and in
// $HOME. A missing config file is not an error.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	} else {
		l.v.SetConfigName(configName)
		if ws := l.v.GetString(KeyWorkspace); ws != "" {
			l.v.AddConfigPath(ws)
		} else {
			l.v.AddConfigPath(".")
		}
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(home)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, scribeErrors.NewConfigError("config", configPath,
				scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, err.Error()))
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = l.v.ConfigFileUsed()
	if cfg.ConfigFile != "" {
		if abs, err := filepath.Abs(cfg.ConfigFile); err == nil {
			cfg.ConfigFile = abs
		}
	}
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := New()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, scribeErrors.NewConfigError("config", nil,
			scribeErrors.Wrap(scribeErrors.ErrInvalidConfiguration, fmt.Sprintf("unmarshal: %v", err)))
	}

	cfg.IntervalMinutes = CoerceInterval(l.v.GetFloat64(KeyInterval))
	if l.v.GetBool(KeyQuiet) {
		cfg.Verbose = false
	}
	if l.noIndex != nil && l.noIndex.Changed && l.noIndex.Value.String() == "true" {
		cfg.Index.Enabled = false
	}

	return cfg, nil
}

// Watch reloads the config file whenever it changes on disk and hands the
// freshly decoded Config to onChange. It reports whether a file is being
// watched; without a config file there is nothing to watch.
func (l *Loader) Watch(onChange func(*Config, error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
	return true
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkspace, "")
	v.SetDefault(KeyDir, DefaultDir)
	v.SetDefault(KeyInterval, DefaultIntervalMinutes)
	v.SetDefault(KeySource, string(SourceStdin))
	v.SetDefault(KeyVerbose, true)
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(KeyQueueSize, DefaultQueueSize)
	v.SetDefault(KeyGitAuthorName, "")
	v.SetDefault(KeyGitAuthorEmail, "")
	v.SetDefault(KeyIndexEnabled, true)
	v.SetDefault(KeyIndexPath, "")
	v.SetDefault(KeyMetricsAddr, "")
}
