package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bashhack/scribe/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-c
		_, _ = fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping scribe...\n", sig)

		// Cancel the context so the scheduler writes its final snapshot.
		cancel()

		// A second signal skips the graceful shutdown.
		sig = <-c
		_, _ = fmt.Fprintf(os.Stderr, "Received signal %v again, exiting now\n", sig)
		os.Exit(1)
	}()

	root := newRootCmd(versionInfo, AppOptions{})
	if err := root.ExecuteContext(ctx); err != nil {
		// Cancellation is the normal signal shutdown path.
		if errors.Is(err, context.Canceled) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}
