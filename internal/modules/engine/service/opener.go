package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/helper"
	"hedge_bot/internal/models"
)

// RunOpener крутит цикл открытия до отмены контекста.
func (e *Engine) RunOpener(ctx context.Context) error {
	for {
		if err := e.openerCycle(ctx); err != nil {
			return err
		}
	}
}

// openerCycle: один проход по снимку параметров, взятому в начале цикла.
// Возвращает ошибку только при отмене контекста.
func (e *Engine) openerCycle(ctx context.Context) error {
	snap := e.params.CurrentSnapshot()
	e.m.InstrumentsConfigured.Set(float64(len(snap.Instruments)))

	if snap.Paused() {
		e.hb.TouchOpener(e.now())
		return e.sleep(ctx, e.timing.IdlePoll)
	}

	for _, instrument := range snap.Instruments {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.openInstrument(ctx, snap, instrument)

		// пауза между инструментами всегда, даже если ничего не ставили
		if err := e.sleep(ctx, e.timing.InstrumentDelay); err != nil {
			return err
		}
	}

	e.m.OpenerCycles.Inc()
	e.hb.TouchOpener(e.now())
	return nil
}

func (e *Engine) openInstrument(ctx context.Context, snap models.StrategyParameters, instrument string) {
	log := e.log.With(zap.String("instrument", instrument))

	// пока пара выставляется, монитор и удержание этот инструмент не трогают
	mu := e.tracker.Mutex(instrument)
	mu.Lock()
	defer mu.Unlock()

	if e.backoff.Blocked(instrument, e.now()) {
		log.Debug("opener: instrument in backoff")
		return
	}
	if tp, ok := e.tracker.Get(instrument); ok &&
		(tp.Phase == models.PhaseTrailing || tp.Phase == models.PhaseClosing) {
		// выжившая нога ещё у монитора
		return
	}

	legs, err := e.ex.GetOpenLegs(ctx, instrument)
	if err != nil {
		e.fail(log, instrument, "opener.get_legs", err)
		return
	}
	if len(legs) > 0 {
		e.backoff.Reset(instrument)
		return
	}

	// старая запись с 0 ногами заменяется новым поколением
	gen := e.tracker.Claim(instrument)
	placed, err := e.placeHedge(ctx, snap, instrument)
	if placed > 0 {
		e.tracker.UpdateIf(instrument, gen, func(p *models.TrackedPosition) {
			p.Phase = models.PhaseOpened
		})
	} else {
		e.tracker.RemoveIf(instrument, gen)
	}
	e.hb.SetTracked(e.tracker.Len())
	e.m.TrackedPositions.Set(float64(e.tracker.Len()))
	if err != nil {
		e.fail(log, instrument, "opener.place_hedge", err)
		return
	}
	e.backoff.Reset(instrument)
	log.Info("hedge pair opened")
}

// placeHedge ставит лонг и шорт от одной mark price. Возвращает число поставленных ног.
func (e *Engine) placeHedge(ctx context.Context, snap models.StrategyParameters, instrument string) (int, error) {
	prec, err := e.ex.GetInstrumentPrecision(ctx, instrument)
	if err != nil {
		return 0, err
	}
	mark, err := e.ex.GetMarkPrice(ctx, instrument)
	if err != nil {
		return 0, err
	}

	qty := helper.QtyFor(snap.TradeSize, mark, prec.Qty)
	if !qty.IsPositive() {
		return 0, apperr.Validation("trade_size",
			"order qty rounds to zero for "+instrument+" at mark "+mark.String())
	}

	longStop := helper.StopBelow(mark, snap.StopLossPct, prec.Price)
	shortStop := helper.StopAbove(mark, snap.StopLossPct, prec.Price)

	e.log.Info("placing hedge pair",
		zap.String("instrument", instrument),
		zap.String("mark", mark.String()),
		zap.String("qty", helper.Fixed(qty, prec.Qty)),
		zap.String("long_stop", helper.Fixed(longStop, prec.Price)),
		zap.String("short_stop", helper.Fixed(shortStop, prec.Price)),
	)

	orders := []models.OrderRequest{
		{Instrument: instrument, Side: models.SlotLong.Side(), Slot: models.SlotLong, Qty: qty, StopLoss: &longStop},
		{Instrument: instrument, Side: models.SlotShort.Side(), Slot: models.SlotShort, Qty: qty, StopLoss: &shortStop},
	}

	var (
		placed int
		errs   error
	)
	for _, o := range orders {
		if _, err := e.ex.PlaceMarketOrder(ctx, o); err != nil {
			e.m.OrdersFailed.Inc()
			errs = multierr.Append(errs, errors.Wrapf(err, "%s leg", o.Slot))
			continue
		}
		e.m.OrdersPlaced.Inc()
		placed++
	}
	return placed, errs
}
