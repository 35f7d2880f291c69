package audit

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"hedge_bot/internal/modules/audit/service"
	params "hedge_bot/internal/modules/params/service"
	"hedge_bot/pkg/db"
)

// Module пишет каждую публикацию параметров в postgres, а без базы в лог.
func Module() fx.Option {
	return fx.Module("audit",
		fx.Provide(
			func(ctx context.Context, pg *db.PgTxManager, log *zap.Logger) (service.Sink, error) {
				if pg == nil {
					return service.NewLogSink(log.Named("audit")), nil
				}
				sink := service.NewPgSink(pg)
				if err := sink.EnsureSchema(ctx); err != nil {
					return nil, err
				}
				return sink, nil
			},
			func(sink service.Sink, log *zap.Logger) *service.Recorder {
				return service.NewRecorder(sink, log.Named("audit"))
			},
		),
		fx.Invoke(func(store *params.Store, r *service.Recorder) {
			store.Observe(r)
		}),
	)
}
