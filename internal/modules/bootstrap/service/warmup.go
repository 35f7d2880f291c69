package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
)

type Exchange interface {
	GetInstrumentPrecision(ctx context.Context, instrument string) (models.Precision, error)
	GetOpenLegs(ctx context.Context, instrument string) ([]models.Leg, error)
}

type ServiceNotifier interface {
	SendService(ctx context.Context, msg string)
}

// Warmuper на старте прогревает кэш точности и сообщает оператору об уже открытых ногах.
type Warmuper struct {
	ex  Exchange
	n   ServiceNotifier
	log *zap.Logger

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewWarmuper(ex Exchange, n ServiceNotifier, log *zap.Logger) *Warmuper {
	return &Warmuper{
		ex:  ex,
		n:   n,
		log: log,
		sem: make(chan struct{}, 4),
	}
}

func (w *Warmuper) Warmup(ctx context.Context, instruments []string) error {
	if len(instruments) == 0 {
		w.n.SendService(ctx, "🟡 Бот запущен, монеты не заданы: открытие на паузе. /start")
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    error
		exposed = make(map[string]int)
	)

	for _, sym := range instruments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sem <- struct{}{}
			defer func() { <-w.sem }()

			if _, err := w.ex.GetInstrumentPrecision(ctx, sym); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, errors.Wrapf(err, "%s precision", sym))
				mu.Unlock()
				return
			}
			legs, err := w.ex.GetOpenLegs(ctx, sym)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, errors.Wrapf(err, "%s legs", sym))
				mu.Unlock()
				return
			}
			if len(legs) > 0 {
				mu.Lock()
				exposed[sym] = len(legs)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	msg := fmt.Sprintf("✅ Бот запущен. Монеты: %s", strings.Join(instruments, " "))
	if len(exposed) > 0 {
		msg += "\n⚠️ Уже открыты позиции (опенер их пропустит): " + formatExposed(exposed)
	}
	if errs != nil {
		w.log.Warn("warmup finished with errors", zap.Error(errs))
		msg += "\n⚠️ Прогрев с ошибками: " + errs.Error()
	}
	w.n.SendService(ctx, msg)
	return errs
}

func formatExposed(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s×%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
