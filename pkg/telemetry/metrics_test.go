package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestAPIMetrics_Operation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewAPIMetrics(mp)
	if err != nil {
		t.Fatalf("NewAPIMetrics: %v", err)
	}

	h := m.Operation("CreateItem")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	for range 3 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/items", nil))
	}

	got := collect(t, reader)
	sum, ok := got["api_operation_requests_total"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected counter data: %+v", got["api_operation_requests_total"])
	}
	dp := sum.DataPoints[0]
	if dp.Value != 3 {
		t.Errorf("count: got %d, want 3", dp.Value)
	}
	if v, _ := dp.Attributes.Value("status"); v.AsString() != "201" {
		t.Errorf("status attribute: got %q", v.AsString())
	}
	if v, _ := dp.Attributes.Value("operation"); v.AsString() != "CreateItem" {
		t.Errorf("operation attribute: got %q", v.AsString())
	}

	hist, ok := got["api_operation_duration_seconds"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 3 {
		t.Fatalf("unexpected histogram data: %+v", got["api_operation_duration_seconds"])
	}
}

func TestAPIMetrics_ImplicitOK(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, _ := NewAPIMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	h := m.Operation("ListItems")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items", nil))

	sum := collect(t, reader)["api_operation_requests_total"].Data.(metricdata.Sum[int64])
	if v, _ := sum.DataPoints[0].Attributes.Value("status"); v.AsString() != "200" {
		t.Errorf("status attribute: got %q", v.AsString())
	}
}

func TestDispatchObserver_CountsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	o, err := NewDispatchObserver(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewDispatchObserver: %v", err)
	}

	ctx := context.Background()
	o.ObserveDispatch(ctx, "ok", nil)
	o.ObserveDispatch(ctx, "ok", nil)
	o.ObserveDispatch(ctx, "degraded", errors.New("topic down"))

	sum := collect(t, reader)["items_dispatch_total"].Data.(metricdata.Sum[int64])
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		counts[v.AsString()] = dp.Value
	}
	if counts["ok"] != 2 || counts["degraded"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
