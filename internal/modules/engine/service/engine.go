package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/models"
	metrics "hedge_bot/internal/modules/metrics/service"
)

// Exchange: то, что движку нужно от биржи.
type Exchange interface {
	GetOpenLegs(ctx context.Context, instrument string) ([]models.Leg, error)
	GetInstrumentPrecision(ctx context.Context, instrument string) (models.Precision, error)
	GetMarkPrice(ctx context.Context, instrument string) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	SetStopLoss(ctx context.Context, instrument string, slot models.Slot, price decimal.Decimal) error
	SetTrailingStop(ctx context.Context, instrument string, slot models.Slot, distance decimal.Decimal) error
	ClearStopLoss(ctx context.Context, instrument string, slot models.Slot) error
	ClosePosition(ctx context.Context, instrument string, slot models.Slot) error
}

type Params interface {
	CurrentSnapshot() models.StrategyParameters
}

// Heartbeat: отметки циклов для /healthz.
type Heartbeat interface {
	TouchOpener(t time.Time)
	TouchMonitor(t time.Time)
	SetTracked(n int)
}

// Sleeper ждёт d или отмены контекста.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Timing struct {
	IdlePoll        time.Duration
	InstrumentDelay time.Duration
	MonitorInterval time.Duration
	BackoffBase     time.Duration
	BackoffMax      time.Duration
}

type Engine struct {
	ex      Exchange
	params  Params
	tracker *Tracker
	backoff *Backoff
	timing  Timing

	sleep Sleeper
	now   func() time.Time
	log   *zap.Logger
	m     *metrics.Metrics
	hb    Heartbeat

	holds sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	loops  sync.WaitGroup
}

func New(ex Exchange, params Params, timing Timing, log *zap.Logger, m *metrics.Metrics, hb Heartbeat) *Engine {
	if m == nil {
		m = metrics.NewNoop()
	}
	if hb == nil {
		hb = nopHeartbeat{}
	}
	return &Engine{
		ex:      ex,
		params:  params,
		tracker: NewTracker(time.Now),
		backoff: NewBackoff(timing.BackoffBase, timing.BackoffMax),
		timing:  timing,
		sleep:   SleepCtx,
		now:     time.Now,
		log:     log,
		m:       m,
		hb:      hb,
	}
}

// Start запускает открытие и мониторинг в отдельных горутинах.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)

	e.loops.Add(2)
	go func() {
		defer e.loops.Done()
		_ = e.RunOpener(ctx)
	}()
	go func() {
		defer e.loops.Done()
		_ = e.RunMonitor(ctx)
	}()
	e.log.Info("engine started")
}

// Stop отменяет циклы и ждёт их вместе с удержаниями.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.loops.Wait()
	e.holds.Wait()
	e.log.Info("engine stopped", zap.Int("tracked", e.tracker.Len()))
}

func (e *Engine) Tracked() []models.TrackedPosition { return e.tracker.Snapshot() }

// fail: единая обработка ошибки шага по инструменту.
func (e *Engine) fail(log *zap.Logger, instrument, step string, err error) {
	var up *unprotectedError
	switch {
	case errors.As(err, &up):
		if apperr.IsTransient(err) {
			e.m.TransientErrors.Inc()
		}
		e.backoff.Reset(instrument)
		log.Error("survivor left without stop, retry next cycle", zap.String("step", step), zap.Error(err))
	case apperr.IsInvariant(err):
		e.m.InvariantViolations.Inc()
		log.Error("unexpected state, no action", zap.String("step", step), zap.Error(err))
	case apperr.IsTransient(err):
		e.m.TransientErrors.Inc()
		d := e.backoff.Fail(instrument, e.now())
		log.Warn("transient exchange error", zap.String("step", step), zap.Duration("backoff", d), zap.Error(err))
	default:
		log.Error("step failed", zap.String("step", step), zap.Error(err))
	}
}

// unprotectedError: нога осталась без стопа, ждать backoff нельзя.
type unprotectedError struct {
	err error
}

func (e *unprotectedError) Error() string { return "survivor unprotected: " + e.err.Error() }
func (e *unprotectedError) Unwrap() error { return e.err }

type nopHeartbeat struct{}

func (nopHeartbeat) TouchOpener(time.Time)  {}
func (nopHeartbeat) TouchMonitor(time.Time) {}
func (nopHeartbeat) SetTracked(int)         {}
