package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade_guard/internal/models"
	"trade_guard/pkg/db"
	"trade_guard/pkg/logger"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS guard_events (
    id     BIGSERIAL PRIMARY KEY,
    at     TIMESTAMPTZ NOT NULL,
    symbol TEXT        NOT NULL DEFAULT '',
    kind   TEXT        NOT NULL,
    detail TEXT        NOT NULL DEFAULT ''
)`

// Pg пишет события движка в guard_events. Ошибки записи не прерывают
// торговый поток, только логируются.
type Pg struct {
	tx db.TxManager
}

func NewPg(tx db.TxManager) *Pg {
	return &Pg{tx: tx}
}

// EnsureSchema создаёт таблицу при первом старте.
func (p *Pg) EnsureSchema(ctx context.Context) error {
	err := p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, createTableSQL)
		return err
	})
	if err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

func (p *Pg) Record(ctx context.Context, ev models.GuardEvent) {
	err := p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO guard_events (at, symbol, kind, detail) VALUES ($1, $2, $3, $4)`,
			ev.At, ev.Symbol, ev.Kind, ev.Detail,
		)
		return err
	})
	if err != nil {
		logger.Error("journal: record %s/%s: %v", ev.Symbol, ev.Kind, err)
	}
}

// Nop — журнал без хранилища, когда DSN не задан.
type Nop struct{}

func NewNop() *Nop { return &Nop{} }

func (*Nop) Record(_ context.Context, ev models.GuardEvent) {
	logger.Info("journal(nop): %s %s %s", ev.Symbol, ev.Kind, ev.Detail)
}
