package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	bootstrap "hedge_bot/internal/modules/bootstrap/service"
	bybit "hedge_bot/internal/modules/bybit_client/service"
	params "hedge_bot/internal/modules/params/service"
	telegram "hedge_bot/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(ex *bybit.Client, t *telegram.Telegram, log *zap.Logger) *bootstrap.Warmuper {
				return bootstrap.NewWarmuper(ex, t, log.Named("warmup"))
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, appCtx context.Context, store *params.Store, wu *bootstrap.Warmuper, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						syms := store.CurrentSnapshot().Instruments
						if err := wu.Warmup(appCtx, syms); err != nil {
							log.Warn("warmup error", zap.Error(err))
							return
						}
						log.Info("warmup done", zap.Int("instruments", len(syms)))
					}()
					return nil
				},
			})
		}),
	)
}
