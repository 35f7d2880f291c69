package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/helper"
	"hedge_bot/internal/models"
)

// RunMonitor обходит отслеживаемые инструменты раз в MonitorInterval.
func (e *Engine) RunMonitor(ctx context.Context) error {
	for {
		e.monitorCycle(ctx)
		if err := e.sleep(ctx, e.timing.MonitorInterval); err != nil {
			return err
		}
	}
}

func (e *Engine) monitorCycle(ctx context.Context) {
	snap := e.params.CurrentSnapshot()
	for _, instrument := range e.tracker.Keys() {
		if ctx.Err() != nil {
			return
		}
		e.monitorInstrument(ctx, snap, instrument)
	}

	n := e.tracker.Len()
	e.m.MonitorCycles.Inc()
	e.m.TrackedPositions.Set(float64(n))
	e.hb.SetTracked(n)
	e.hb.TouchMonitor(e.now())
}

// monitorInstrument: состояние выводится только из числа открытых ног на бирже.
func (e *Engine) monitorInstrument(ctx context.Context, snap models.StrategyParameters, instrument string) {
	// занято опенером или удержанием: посмотрим в следующем цикле
	mu := e.tracker.Mutex(instrument)
	if !mu.TryLock() {
		return
	}
	defer mu.Unlock()

	tp, ok := e.tracker.Get(instrument)
	if !ok || tp.Phase == models.PhaseTrailing || tp.Phase == models.PhasePlacing {
		return
	}
	log := e.log.With(zap.String("instrument", instrument))
	if e.backoff.Blocked(instrument, e.now()) {
		return
	}

	legs, err := e.ex.GetOpenLegs(ctx, instrument)
	if err != nil {
		e.fail(log, instrument, "monitor.get_legs", err)
		return
	}

	if tp.Phase == models.PhaseClosing {
		e.closeSurvivor(ctx, log, instrument, tp.Survivor, tp.Gen, legs)
		return
	}

	switch len(legs) {
	case 2:
		if legs[0].Slot == legs[1].Slot {
			e.fail(log, instrument, "monitor.legs", apperr.Invariant(instrument,
				fmt.Sprintf("two legs in the same slot %s", legs[0].Slot)))
			return
		}
		if tp.StopLossSet {
			return
		}
		err = e.protect(ctx, snap, instrument, tp.Gen, legs)
	case 1:
		err = e.trailSurvivor(ctx, snap, instrument, tp.Gen, legs[0])
	case 0:
		// обе ноги закрыты, опенер откроет заново
		return
	default:
		err = apperr.Invariant(instrument, fmt.Sprintf("%d legs open, expected at most 2", len(legs)))
	}

	if err != nil {
		e.fail(log, instrument, "monitor", err)
		return
	}
	e.backoff.Reset(instrument)
}

// protect ставит симметричный стоп от средней цены входа каждой ноги.
// Флаг поднимается, только если обе ноги получили стоп.
func (e *Engine) protect(ctx context.Context, snap models.StrategyParameters, instrument string, gen uint64, legs []models.Leg) error {
	prec, err := e.ex.GetInstrumentPrecision(ctx, instrument)
	if err != nil {
		return err
	}

	var errs error
	for _, leg := range legs {
		var price decimal.Decimal
		if leg.Slot == models.SlotLong {
			price = helper.StopBelow(leg.AvgPrice, snap.StopLossPct, prec.Price)
		} else {
			price = helper.StopAbove(leg.AvgPrice, snap.StopLossPct, prec.Price)
		}
		if err := e.ex.SetStopLoss(ctx, instrument, leg.Slot, price); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "%s stop", leg.Slot))
			continue
		}
		e.m.StopLossSet.Inc()
	}
	if errs != nil {
		return errs
	}

	e.tracker.UpdateIf(instrument, gen, func(p *models.TrackedPosition) {
		p.StopLossSet = true
		p.Phase = models.PhaseProtected
	})
	e.log.Info("stop-loss set on both legs", zap.String("instrument", instrument))
	return nil
}

// trailSurvivor: одна нога выбита. Сначала всё, что можно прочитать, потом снять стоп
// и поставить трейлинг от текущей mark price, затем удержание HoldDuration и закрытие.
func (e *Engine) trailSurvivor(ctx context.Context, snap models.StrategyParameters, instrument string, gen uint64, leg models.Leg) error {
	prec, err := e.ex.GetInstrumentPrecision(ctx, instrument)
	if err != nil {
		return err
	}
	mark, err := e.ex.GetMarkPrice(ctx, instrument)
	if err != nil {
		return err
	}

	distance := helper.PctOf(mark, snap.TrailingStopPct, prec.Price)
	if !distance.IsPositive() {
		// меньше тика, берём один тик
		distance = decimal.New(1, -prec.Price)
	}

	if err := e.ex.ClearStopLoss(ctx, instrument, leg.Slot); err != nil {
		return err
	}
	if err := e.ex.SetTrailingStop(ctx, instrument, leg.Slot, distance); err != nil {
		// стоп уже снят: повторяем в следующем цикле без паузы
		return &unprotectedError{err: err}
	}
	e.m.TrailingSet.Inc()

	e.tracker.UpdateIf(instrument, gen, func(p *models.TrackedPosition) {
		p.Phase = models.PhaseTrailing
		p.Survivor = leg.Slot
	})
	e.log.Info("trailing stop set, holding survivor",
		zap.String("instrument", instrument),
		zap.Stringer("slot", leg.Slot),
		zap.String("mark", mark.String()),
		zap.String("distance", distance.String()),
		zap.Duration("hold", snap.HoldDuration),
	)

	e.holds.Add(1)
	go e.hold(ctx, instrument, leg.Slot, gen, snap.HoldDuration)
	return nil
}

// hold ждёт d и закрывает выжившую ногу. Запись другого поколения не трогает.
func (e *Engine) hold(ctx context.Context, instrument string, slot models.Slot, gen uint64, d time.Duration) {
	defer e.holds.Done()
	log := e.log.With(zap.String("instrument", instrument), zap.Stringer("slot", slot))

	if err := e.sleep(ctx, d); err != nil {
		// остановка процесса: трейлинг на бирже остаётся
		return
	}

	mu := e.tracker.Mutex(instrument)
	mu.Lock()
	defer mu.Unlock()

	if tp, ok := e.tracker.Get(instrument); !ok || tp.Gen != gen {
		log.Warn("hold expired for a replaced entry, nothing to close")
		return
	}

	legs, err := e.ex.GetOpenLegs(ctx, instrument)
	if err != nil {
		e.markClosing(instrument, gen)
		e.fail(log, instrument, "hold.get_legs", err)
		return
	}
	e.closeSurvivor(ctx, log, instrument, slot, gen, legs)
}

// closeSurvivor закрывает выжившую ногу, если она ещё открыта, и снимает отслеживание.
func (e *Engine) closeSurvivor(ctx context.Context, log *zap.Logger, instrument string, slot models.Slot, gen uint64, legs []models.Leg) {
	open := false
	for _, l := range legs {
		if l.Slot == slot {
			open = true
			break
		}
	}
	if !open {
		e.untrack(instrument, gen)
		log.Info("survivor already closed by exchange", zap.Stringer("slot", slot))
		return
	}

	if err := e.ex.ClosePosition(ctx, instrument, slot); err != nil {
		e.markClosing(instrument, gen)
		e.fail(log, instrument, "close", err)
		return
	}
	e.m.PositionsClosed.Inc()
	e.untrack(instrument, gen)
	e.backoff.Reset(instrument)
	log.Info("survivor closed", zap.Stringer("slot", slot))
}

func (e *Engine) markClosing(instrument string, gen uint64) {
	e.tracker.UpdateIf(instrument, gen, func(p *models.TrackedPosition) {
		p.Phase = models.PhaseClosing
	})
}

func (e *Engine) untrack(instrument string, gen uint64) {
	e.tracker.RemoveIf(instrument, gen)
	n := e.tracker.Len()
	e.m.TrackedPositions.Set(float64(n))
	e.hb.SetTracked(n)
}
