// Package errtrack forwards retryable failures to Sentry so operators see
// repeated failures without scraping logs.
package errtrack

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/notify-fanout/config"
)

var enabled bool

// Init configures the Sentry client. An empty DSN leaves reporting disabled.
func Init(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return err
	}
	enabled = true
	return nil
}

// Capture reports err with the given tags. It is a no-op when Sentry is disabled.
func Capture(err error, tags map[string]string) {
	if !enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events before the process exits.
func Flush() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}
