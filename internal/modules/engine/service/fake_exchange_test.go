package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
	metrics "hedge_bot/internal/modules/metrics/service"
)

type call struct {
	Method     string
	Instrument string
	Slot       models.Slot
	Side       models.Side
	Qty        string
	Price      string
}

type fakeExchange struct {
	mu sync.Mutex

	legs      map[string][]models.Leg
	mark      map[string]decimal.Decimal
	precision map[string]models.Precision
	errs      map[string]error // "Method" или "Method:INSTRUMENT"
	placeErr  map[models.Slot]error
	calls     []call

	onPlace func(req models.OrderRequest)
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		legs:      make(map[string][]models.Leg),
		mark:      make(map[string]decimal.Decimal),
		precision: make(map[string]models.Precision),
		errs:      make(map[string]error),
		placeErr:  make(map[models.Slot]error),
	}
}

func (f *fakeExchange) setLegs(instrument string, legs ...models.Leg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.legs[instrument] = legs
}

func (f *fakeExchange) setErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

func (f *fakeExchange) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err, ok := f.errs[c.Method+":"+c.Instrument]; ok {
		return err
	}
	if c.Method == "PlaceMarketOrder" {
		if err, ok := f.placeErr[c.Slot]; ok {
			return err
		}
	}
	return f.errs[c.Method]
}

func (f *fakeExchange) callsOf(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeExchange) writes() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		switch c.Method {
		case "PlaceMarketOrder", "SetStopLoss", "SetTrailingStop", "ClearStopLoss", "ClosePosition":
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeExchange) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeExchange) GetOpenLegs(_ context.Context, instrument string) ([]models.Leg, error) {
	if err := f.record(call{Method: "GetOpenLegs", Instrument: instrument}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Leg(nil), f.legs[instrument]...), nil
}

func (f *fakeExchange) GetInstrumentPrecision(_ context.Context, instrument string) (models.Precision, error) {
	if err := f.record(call{Method: "GetInstrumentPrecision", Instrument: instrument}); err != nil {
		return models.Precision{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.precision[instrument]
	if !ok {
		return models.Precision{}, fmt.Errorf("no precision for %s", instrument)
	}
	return p, nil
}

func (f *fakeExchange) GetMarkPrice(_ context.Context, instrument string) (decimal.Decimal, error) {
	if err := f.record(call{Method: "GetMarkPrice", Instrument: instrument}); err != nil {
		return decimal.Zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mark[instrument], nil
}

func (f *fakeExchange) PlaceMarketOrder(_ context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if f.onPlace != nil {
		f.onPlace(req)
	}
	c := call{Method: "PlaceMarketOrder", Instrument: req.Instrument, Slot: req.Slot, Side: req.Side, Qty: req.Qty.StringFixed(3)}
	if req.StopLoss != nil {
		c.Price = req.StopLoss.StringFixed(2)
	}
	if err := f.record(c); err != nil {
		return models.OrderResult{}, err
	}
	return models.OrderResult{OrderID: "o-" + req.Slot.String()}, nil
}

func (f *fakeExchange) SetStopLoss(_ context.Context, instrument string, slot models.Slot, price decimal.Decimal) error {
	return f.record(call{Method: "SetStopLoss", Instrument: instrument, Slot: slot, Price: price.StringFixed(2)})
}

func (f *fakeExchange) SetTrailingStop(_ context.Context, instrument string, slot models.Slot, distance decimal.Decimal) error {
	return f.record(call{Method: "SetTrailingStop", Instrument: instrument, Slot: slot, Price: distance.StringFixed(2)})
}

func (f *fakeExchange) ClearStopLoss(_ context.Context, instrument string, slot models.Slot) error {
	return f.record(call{Method: "ClearStopLoss", Instrument: instrument, Slot: slot})
}

func (f *fakeExchange) ClosePosition(_ context.Context, instrument string, slot models.Slot) error {
	return f.record(call{Method: "ClosePosition", Instrument: instrument, Slot: slot})
}

// fakeSleeper не ждёт, только запоминает запрошенные паузы.
type fakeSleeper struct {
	mu     sync.Mutex
	slept  []time.Duration
	before func(d time.Duration)
}

func (s *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	if s.before != nil {
		s.before(d)
	}
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

type staticParams struct {
	mu sync.Mutex
	p  models.StrategyParameters
	n  int
}

func (s *staticParams) CurrentSnapshot() models.StrategyParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.p.Clone()
}

var testTiming = Timing{
	IdlePoll:        10 * time.Second,
	InstrumentDelay: 10 * time.Second,
	MonitorInterval: time.Second,
	BackoffBase:     2 * time.Second,
	BackoffMax:      time.Minute,
}

func scenarioParams(instruments ...string) models.StrategyParameters {
	p := models.DefaultParameters()
	p.Instruments = instruments
	return p
}

func newTestEngine(t *testing.T, ex Exchange, params Params) (*Engine, *fakeSleeper) {
	t.Helper()
	e := New(ex, params, testTiming, zap.NewNop(), metrics.NewNoop(), nil)
	s := &fakeSleeper{}
	e.sleep = s.sleep
	return e, s
}

func openLeg(instrument string, slot models.Slot, avg string) models.Leg {
	return models.Leg{
		Instrument: instrument,
		Slot:       slot,
		Side:       slot.Side(),
		Size:       decimal.RequireFromString("0.06"),
		AvgPrice:   decimal.RequireFromString(avg),
	}
}
