package telemetry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ghuser/itemlocations/pkg/config"
)

// redactedHeaders never leave the process: every item route carries a bearer token.
var redactedHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}

// SetupSentry initializes the Sentry SDK. No-ops if DSN is empty.
func SetupSentry(cfg *config.Config) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		ServerName:       cfg.ServiceName,
		TracesSampleRate: cfg.SentryTraces,
		BeforeSend:       scrubEvent,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// scrubEvent drops credentials from the captured request.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}
	for name := range event.Request.Headers {
		for _, h := range redactedHeaders {
			if strings.EqualFold(name, h) {
				event.Request.Headers[name] = "[redacted]"
			}
		}
	}
	event.Request.Cookies = ""
	return event
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware captures panics. Repanic lets the outer recovery
// middleware write the 500.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}
