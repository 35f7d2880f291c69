package service

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"hedge_bot/internal/models"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.OrdersPlaced.Inc()
	prom.Metrics.OrdersPlaced.Inc()
	prom.Metrics.OrdersFailed.Inc()
	prom.Metrics.InvariantViolations.Inc()
	prom.Metrics.TrackedPositions.Set(3)

	assertCounter(t, prom.counters["orders_placed_total"], 2)
	assertCounter(t, prom.counters["orders_failed_total"], 1)
	assertCounter(t, prom.counters["invariant_violations_total"], 1)
	if got := testutil.ToFloat64(prom.gauges["tracked_positions"]); got != 3 {
		t.Fatalf("expected tracked 3, got %v", got)
	}
}

func TestOnApplySetsParameterGauges(t *testing.T) {
	prom := NewPrometheus()
	next := models.DefaultParameters()
	next.Instruments = []string{"BTCUSDT", "ETHUSDT"}
	next.HoldDuration = 15 * time.Second

	prom.OnApply(context.Background(), models.DefaultParameters(), next)

	assertCounter(t, prom.counters["param_applies_total"], 1)
	if got := testutil.ToFloat64(prom.params.WithLabelValues("hold_seconds")); got != 15 {
		t.Fatalf("expected hold 15, got %v", got)
	}
	if got := testutil.ToFloat64(prom.gauges["instruments_configured"]); got != 2 {
		t.Fatalf("expected 2 instruments, got %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.MonitorCycles.Inc()

	rec := httptest.NewRecorder()
	prom.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "hedge_bot_monitor_cycles_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
