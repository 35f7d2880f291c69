package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"hedge_bot/internal/modules/audit"
	"hedge_bot/internal/modules/bootstrap"
	"hedge_bot/internal/modules/bybit_client"
	"hedge_bot/internal/modules/bybit_websocket"
	"hedge_bot/internal/modules/config"
	"hedge_bot/internal/modules/engine"
	"hedge_bot/internal/modules/health"
	"hedge_bot/internal/modules/logger"
	"hedge_bot/internal/modules/metrics"
	"hedge_bot/internal/modules/params"
	"hedge_bot/internal/modules/postgres"
	telegram "hedge_bot/internal/modules/telegram_bot"
	"hedge_bot/internal/modules/tracing"
)

func main() {
	fx.New(
		fx.Provide(
			// общий контекст приложения, отменяется на OnStop
			func(lc fx.Lifecycle) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						cancel()
						return nil
					},
				})
				return ctx
			},
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		logger.Module(),
		tracing.Module(),
		postgres.Module(),
		params.Module(),
		audit.Module(),
		metrics.Module(),
		health.Module(),
		bybit_client.Module(),
		bybit_websocket.Module(),
		engine.Module(),
		telegram.Module(),
		bootstrap.Module(),
	).Run()
}
