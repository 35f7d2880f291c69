package service

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hedge_bot/internal/models"
)

const promNamespace = "hedge_bot"

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	params   *prometheus.GaugeVec
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry: registry,
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
	}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: promNamespace, Name: name, Help: help})
		registry.MustRegister(c)
		p.counters[name] = c
		return c
	}
	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: promNamespace, Name: name, Help: help})
		registry.MustRegister(g)
		p.gauges[name] = g
		return g
	}

	p.params = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "strategy_parameter",
		Help:      "Current value of each numeric strategy parameter.",
	}, []string{"name"})
	registry.MustRegister(p.params)

	p.Metrics = &Metrics{
		OrdersPlaced:        counter("orders_placed_total", "Total number of orders placed."),
		OrdersFailed:        counter("orders_failed_total", "Total number of order placement failures."),
		StopLossSet:         counter("stop_loss_set_total", "Total number of stop-loss placements on legs."),
		TrailingSet:         counter("trailing_set_total", "Total number of trailing stops set on surviving legs."),
		PositionsClosed:     counter("positions_closed_total", "Total number of surviving legs force-closed."),
		InvariantViolations: counter("invariant_violations_total", "Total number of unexpected exchange states."),
		TransientErrors:     counter("transient_errors_total", "Total number of transient exchange errors."),
		OpenerCycles:        counter("opener_cycles_total", "Total number of completed opener cycles."),
		MonitorCycles:       counter("monitor_cycles_total", "Total number of completed monitor cycles."),
		ParamApplies:        counter("param_applies_total", "Total number of applied parameter updates."),

		TrackedPositions:      gauge("tracked_positions", "Instruments currently tracked by the monitor."),
		InstrumentsConfigured: gauge("instruments_configured", "Instruments in the current parameter snapshot."),
	}
	return p
}

// OnApply выставляет gauge параметров после публикации снимка.
func (p *Prometheus) OnApply(_ context.Context, _, next models.StrategyParameters) {
	p.Metrics.ParamApplies.Inc()
	p.SetParameters(next)
}

func (p *Prometheus) SetParameters(next models.StrategyParameters) {
	p.Metrics.InstrumentsConfigured.Set(float64(len(next.Instruments)))
	p.params.WithLabelValues("trade_size").Set(next.TradeSize)
	p.params.WithLabelValues("stop_loss_pct").Set(next.StopLossPct)
	p.params.WithLabelValues("trailing_stop_pct").Set(next.TrailingStopPct)
	p.params.WithLabelValues("hold_seconds").Set(next.HoldDuration.Seconds())
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
