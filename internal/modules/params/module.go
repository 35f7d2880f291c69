package params

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
	"hedge_bot/internal/modules/config"
	"hedge_bot/internal/modules/params/service"
)

func initialParameters(cfg *config.Config) models.StrategyParameters {
	p := models.DefaultParameters()
	p.Instruments = models.NormalizeInstruments(cfg.Strategy.Instruments)
	p.TradeSize = cfg.Strategy.TradeSize
	p.StopLossPct = cfg.Strategy.StopLossPct
	p.TrailingStopPct = cfg.Strategy.TrailingStopPct
	p.HoldDuration = cfg.Strategy.HoldDuration
	return p
}

func Module() fx.Option {
	return fx.Module("params",
		fx.Provide(
			func(cfg *config.Config, log *zap.Logger) (*service.Store, error) {
				return service.NewStore(initialParameters(cfg), log.Named("params"))
			},
		),
	)
}
