package service

import (
	"context"
	"time"

	"trade_guard/internal/models"
)

// Gateway — синхронная поверхность биржи, которую потребляет движок.
// Реализуется binance/service.Client; в тестах подменяется фейком.
type Gateway interface {
	Positions(ctx context.Context, symbol string) ([]models.Position, error)
	OpenOrders(ctx context.Context, symbol string) ([]models.Order, error)
	MarkPrice(ctx context.Context, symbol string) (float64, error)
	SymbolPrice(ctx context.Context, symbol string) (float64, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Order, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelAllOrders(ctx context.Context, symbol string) error
	AvailableBalance(ctx context.Context, asset string) (float64, error)
	IncomeHistory(ctx context.Context, incomeType string, start, end time.Time) ([]models.IncomeEntry, error)
	InstrumentMeta(ctx context.Context, symbol string) (models.Instrument, error)
}

// Journal — куда складываем факты (pg или no-op).
type Journal interface {
	Record(ctx context.Context, ev models.GuardEvent)
}

// Notifier — уведомления в телегу/стаут. Может быть nil.
type Notifier interface {
	Sendf(format string, args ...any)
}
