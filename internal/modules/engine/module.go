package engine

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	bybit "hedge_bot/internal/modules/bybit_client/service"
	"hedge_bot/internal/modules/config"
	"hedge_bot/internal/modules/engine/service"
	health "hedge_bot/internal/modules/health/service"
	metrics "hedge_bot/internal/modules/metrics/service"
	params "hedge_bot/internal/modules/params/service"
)

func timing(cfg *config.Config) service.Timing {
	return service.Timing{
		IdlePoll:        cfg.Engine.IdlePoll,
		InstrumentDelay: cfg.Engine.InstrumentDelay,
		MonitorInterval: cfg.Engine.MonitorInterval,
		BackoffBase:     cfg.Engine.BackoffBase,
		BackoffMax:      cfg.Engine.BackoffMax,
	}
}

// Module: циклы открытия и мониторинга хеджа.
func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(cfg *config.Config, ex *bybit.Client, store *params.Store, m *metrics.Metrics,
				state *health.State, log *zap.Logger) *service.Engine {
				return service.New(ex, store, timing(cfg), log.Named("engine"), m, state)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, appCtx context.Context, e *service.Engine, state *health.State) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					e.Start(appCtx)
					state.SetReady(true)
					return nil
				},
				OnStop: func(context.Context) error {
					state.SetReady(false)
					e.Stop()
					return nil
				},
			})
		}),
	)
}
