package service

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"hedge_bot/internal/models"
)

// ApplyObserver получает уведомление после публикации нового снимка.
type ApplyObserver interface {
	OnApply(ctx context.Context, prev, next models.StrategyParameters)
}

type operatorKey struct{}

// WithOperator помечает контекст идентификатором оператора для аудита.
func WithOperator(ctx context.Context, operator int64) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

func OperatorFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(operatorKey{}).(int64)
	return v, ok
}

// Store: живые параметры стратегии. Чтение без блокировок,
// запись: сборка нового снимка и одна атомарная подмена указателя.
type Store struct {
	cur atomic.Pointer[models.StrategyParameters]

	wmu       sync.Mutex // сериализует писателей, читателей не трогает
	observers []ApplyObserver

	log *zap.Logger
}

func NewStore(initial models.StrategyParameters, log *zap.Logger) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	snap := initial.Clone()
	s := &Store{log: log}
	s.cur.Store(&snap)
	return s, nil
}

func (s *Store) Observe(o ApplyObserver) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.observers = append(s.observers, o)
}

// CurrentSnapshot всегда возвращает целый согласованный снимок.
func (s *Store) CurrentSnapshot() models.StrategyParameters {
	return s.cur.Load().Clone()
}

// ApplyUpdate сливает только заданные поля и публикует результат.
// При ошибке валидации текущий снимок не меняется.
func (s *Store) ApplyUpdate(ctx context.Context, upd models.ParamsUpdate) (models.StrategyParameters, error) {
	s.wmu.Lock()
	prev := s.cur.Load().Clone()
	next, err := upd.Apply(prev)
	if err != nil {
		s.wmu.Unlock()
		return prev, err
	}
	published := next.Clone()
	s.cur.Store(&published)
	observers := append([]ApplyObserver(nil), s.observers...)
	s.wmu.Unlock()

	s.log.Info("parameters applied",
		zap.Strings("instruments", next.Instruments),
		zap.Float64("trade_size", next.TradeSize),
		zap.Float64("stop_loss_pct", next.StopLossPct),
		zap.Float64("trailing_stop_pct", next.TrailingStopPct),
		zap.Duration("hold", next.HoldDuration),
		zap.Bool("unchanged", prev.Equal(next)),
	)

	for _, o := range observers {
		o.OnApply(ctx, prev, next.Clone())
	}
	return next, nil
}
