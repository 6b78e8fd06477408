package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"
)

const incomeRealizedPnl = "REALIZED_PNL"

// DailyPnl — реализованный PnL с полуночи UTC до текущего момента.
func (m *OrderManager) DailyPnl(ctx context.Context) (float64, []models.IncomeEntry, error) {
	end := time.Now().UTC()
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return m.CalculatePnl(ctx, start, end)
}

// CalculatePnl суммирует REALIZED_PNL за интервал.
func (m *OrderManager) CalculatePnl(ctx context.Context, start, end time.Time) (float64, []models.IncomeEntry, error) {
	entries, err := m.gw.IncomeHistory(ctx, incomeRealizedPnl, start, end)
	if err != nil {
		return 0, nil, errors.Wrap(err, "calculate_pnl: income history")
	}

	var total float64
	for _, e := range entries {
		total += e.Income
	}
	logger.Info("calculate_pnl: total %.4f %s over [%s, %s]",
		total, marginAsset, start.Format(time.RFC3339), end.Format(time.RFC3339))

	m.record(ctx, "", models.EventPnlSnapshot, map[string]any{
		"total":   total,
		"entries": len(entries),
		"start":   start,
		"end":     end,
	})
	return total, entries, nil
}
