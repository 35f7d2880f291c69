package metrics

import (
	"go.uber.org/fx"

	params "hedge_bot/internal/modules/params/service"

	"hedge_bot/internal/modules/metrics/service"
)

func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(
			service.NewPrometheus,
			func(p *service.Prometheus) *service.Metrics { return p.Metrics },
		),
		fx.Invoke(func(p *service.Prometheus, store *params.Store) {
			p.SetParameters(store.CurrentSnapshot())
			store.Observe(p)
		}),
	)
}
