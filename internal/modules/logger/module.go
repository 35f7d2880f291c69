package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"hedge_bot/internal/modules/config"
	"hedge_bot/pkg/logger"
)

const serviceName = "hedge_bot"

// Module инициализирует глобальный логгер и отдаёт его как *zap.Logger.
func Module() fx.Option {
	return fx.Module("logger",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
				logger.SetServiceName(serviceName)
				l, err := logger.Init(cfg.Logger)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						_ = l.Sync()
						return nil
					},
				})
				return l.With(zap.String("service", serviceName)), nil
			},
		),
	)
}
