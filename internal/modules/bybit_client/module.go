package bybit_client

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hedge_bot/internal/modules/bybit_client/service"
	"hedge_bot/internal/modules/config"
)

// Module поднимает REST-клиент Bybit v5.
func Module() fx.Option {
	return fx.Module("bybit_client",
		fx.Provide(
			func(cfg *config.Config, log *zap.Logger) *service.Client {
				return service.NewClient(cfg, log.Named("bybit"))
			},
		),
	)
}
