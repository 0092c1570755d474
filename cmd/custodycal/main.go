// Command custodycal turns a custody schedule definition into a calendar
// page, statistics and an iCalendar export, or serves them over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appLog "custodycal/internal/log"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		appLog.Error("custodycal failed", err)
		stop()
		os.Exit(1)
	}
}
