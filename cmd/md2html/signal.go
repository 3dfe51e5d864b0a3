package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals stop the dispatch of new files. Platforms append their own.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns a context canceled when a shutdown signal arrives.
// Files already being converted finish; the rest are reported as canceled.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
