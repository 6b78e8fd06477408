package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"trade_guard/internal/modules/config"
	"trade_guard/pkg/db"
)

// Module поднимает пул к мастеру. Без DSN менеджер будет nil —
// журнал в этом случае переключается на no-op.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					return nil, nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
