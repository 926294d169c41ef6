package app

import (
	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/cache"
	"github.com/ghuser/itemlocations/pkg/config"
	"github.com/ghuser/itemlocations/pkg/database"
	"github.com/ghuser/itemlocations/pkg/events"
	"github.com/ghuser/itemlocations/pkg/logger"
	"github.com/ghuser/itemlocations/pkg/stream"
	"github.com/ghuser/itemlocations/pkg/telemetry"
)

// Application holds shared infrastructure dependencies for all services.
// Pass it to each service's Routes call during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "processing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config   *config.Config
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient // nil disables the read-model cache
	Stream   stream.Producer

	// API process only; nil in the worker.
	Authorizer       *auth.Authorizer
	Metrics          *telemetry.APIMetrics
	DispatchObserver *telemetry.DispatchObserver
}
