// Package config provides configuration handling for scribe.
//
// Configuration values are loaded with the following precedence:
//
// 1. Command-line flags (highest priority)
// 2. SCRIBE_* environment variables
// 3. The .scribe.yaml config file (workspace, then $HOME, or --config)
// 4. Default values (lowest priority)
//
// # Environment Variables
//
// Nested keys use an underscore separator:
//
//	SCRIBE_WORKSPACE          Project directory to track (default: current directory)
//	SCRIBE_DIR                Log store directory (default: .scribe)
//	SCRIBE_INTERVAL           Minutes between ticks, floored, minimum 1 (default: 1)
//	SCRIBE_SOURCE             Event source: stdin, watch or none (default: stdin)
//	SCRIBE_DEBUG              Enable debug logging (default: false)
//	SCRIBE_LOG_FILE           Debug log path (default: ~/.local/share/scribe/logs/scribe-<hash>.log)
//	SCRIBE_QUEUE_SIZE         Pending git task capacity (default: 64)
//	SCRIBE_SHUTDOWN_TIMEOUT   Final flush deadline (default: 10s)
//	SCRIBE_GIT_AUTHOR_NAME    Commit author name override
//	SCRIBE_GIT_AUTHOR_EMAIL   Commit author email override
//	SCRIBE_INDEX_ENABLED      Record snapshots in the SQLite index (default: true)
//	SCRIBE_METRICS_ADDR       Serve Prometheus metrics on this address
//
// # Usage
//
//	loader := config.NewLoader()
//	if err := loader.BindFlags(cmd.Flags()); err != nil {
//		return err
//	}
//	cfg, err := loader.Load(configPath)
//	if err != nil {
//		return err
//	}
//	if err := cfg.Finalize(); err != nil {
//		return err
//	}
//
// Loader.Watch re-decodes the file on change so a running scheduler can pick
// up a new interval without restarting.
package config
