package journal

import (
	"context"

	"go.uber.org/fx"

	guard "trade_guard/internal/modules/guard/service"
	"trade_guard/internal/modules/journal/service"
	"trade_guard/pkg/db"
	"trade_guard/pkg/logger"
)

// Module выбирает реализацию журнала: pg при наличии пула, иначе no-op.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(tx *db.PgTxManager) guard.Journal {
				if tx == nil {
					logger.Info("journal: DSN not set, events go to log only")
					return service.NewNop()
				}
				return service.NewPg(tx)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, j guard.Journal) {
				pg, ok := j.(*service.Pg)
				if !ok {
					return
				}
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return pg.EnsureSchema(ctx)
					},
				})
			},
		),
	)
}
