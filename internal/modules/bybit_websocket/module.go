package bybit_websocket

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"hedge_bot/internal/modules/bybit_websocket/service"
	"hedge_bot/internal/modules/config"
	health "hedge_bot/internal/modules/health/service"
	params "hedge_bot/internal/modules/params/service"
)

// Module поднимает поток тикеров Bybit для /status. Кэш есть всегда, поток только при ws.enabled.
func Module() fx.Option {
	return fx.Module("bybit_websocket",
		fx.Provide(
			service.NewCache,
			func(cfg *config.Config, cache *service.Cache, state *health.State, store *params.Store, log *zap.Logger) *service.Client {
				return service.NewClient(cfg.Bybit.WSURL, cfg.WS.PingInterval, cache, state, store, log.Named("bybit_ws"))
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, appCtx context.Context, cfg *config.Config, c *service.Client, store *params.Store) {
			if !cfg.WS.Enabled {
				return
			}
			store.Observe(c)
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					c.Start(appCtx)
					return nil
				},
				OnStop: func(context.Context) error {
					c.Stop()
					return nil
				},
			})
		}),
	)
}
