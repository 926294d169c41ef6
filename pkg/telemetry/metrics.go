package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ghuser/itemlocations"

// APIMetrics records latency and status counts per named API operation.
type APIMetrics struct {
	latency  metric.Float64Histogram
	requests metric.Int64Counter
}

// NewAPIMetrics creates the API instruments on mp.
func NewAPIMetrics(mp metric.MeterProvider) (*APIMetrics, error) {
	meter := mp.Meter(meterName)
	latency, err := meter.Float64Histogram("api_operation_duration_seconds",
		metric.WithDescription("API operation latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("api latency histogram: %w", err)
	}
	requests, err := meter.Int64Counter("api_operation_requests_total",
		metric.WithDescription("API operations by status code"),
	)
	if err != nil {
		return nil, fmt.Errorf("api requests counter: %w", err)
	}
	return &APIMetrics{latency: latency, requests: requests}, nil
}

// Operation returns a middleware that records metrics under the given operation name.
func (m *APIMetrics) Operation(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			op := attribute.String("operation", name)
			m.latency.Record(r.Context(), time.Since(start).Seconds(), metric.WithAttributes(op))
			m.requests.Add(r.Context(), 1, metric.WithAttributes(op, attribute.String("status", strconv.Itoa(status))))
		})
	}
}

// DispatchObserver counts dispatch outcomes and reports failures to Sentry.
type DispatchObserver struct {
	dispatches metric.Int64Counter
}

// NewDispatchObserver creates the dispatch counter on mp.
func NewDispatchObserver(mp metric.MeterProvider) (*DispatchObserver, error) {
	c, err := mp.Meter(meterName).Int64Counter("items_dispatch_total",
		metric.WithDescription("Item dispatches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch counter: %w", err)
	}
	return &DispatchObserver{dispatches: c}, nil
}

// ObserveDispatch records one dispatch. A non-nil err is sent to Sentry.
func (o *DispatchObserver) ObserveDispatch(ctx context.Context, outcome string, err error) {
	o.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("dispatch_outcome", outcome)
		hub.CaptureException(err)
	})
}
