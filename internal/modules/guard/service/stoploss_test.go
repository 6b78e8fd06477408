package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/models"
)

func newGuard(f *fakeGateway) *StopLossGuard {
	return NewStopLossGuard(f, NewMetaCache(f), nil, nil)
}

func TestEnsureStopLossFlatPosition(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0}}

	rep := newGuard(f).EnsureStopLoss(context.Background(), "BTCUSDT", DefaultStopLossParams())

	assert.Equal(t, EnsureFlat, rep.Outcome)
	assert.Empty(t, f.placed)
}

func TestEnsureStopLossExistingStopIsKept(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0.5, EntryPrice: 100, Leverage: 20}}
	f.orders = []models.Order{{OrderID: 7, Symbol: "BTCUSDT", Type: models.OrderStopMarket, StopPrice: 99}}

	rep := newGuard(f).EnsureStopLoss(context.Background(), "BTCUSDT", DefaultStopLossParams())

	assert.Equal(t, EnsureAlreadyProtected, rep.Outcome)
	assert.Empty(t, f.placed)
}

func TestEnsureStopLossPlacesLong(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0.5, EntryPrice: 100, Leverage: 20}}

	p := StopLossParams{StartPct: 1, CapPct: 15, Leverage: 20}
	rep := newGuard(f).EnsureStopLoss(context.Background(), "BTCUSDT", p)

	require.Equal(t, EnsurePlaced, rep.Outcome)
	assert.Equal(t, 1, rep.Attempts)

	require.Len(t, f.placed, 1)
	req := f.placed[0]
	assert.Equal(t, models.OrderStopMarket, req.Type)
	assert.Equal(t, models.Sell, req.Side)
	assert.InDelta(t, 0.5, req.Quantity, 1e-9)
	// 100*(1 - 1/100/20) = 99.95
	assert.InDelta(t, 99.95, req.StopPrice, 1e-9)
}

func TestEnsureStopLossPlacesShort(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "ETHUSDT", Amt: -2, EntryPrice: 2000, Leverage: 10}}

	p := StopLossParams{StartPct: 1, CapPct: 15, Leverage: 10}
	rep := newGuard(f).EnsureStopLoss(context.Background(), "ETHUSDT", p)

	require.Equal(t, EnsurePlaced, rep.Outcome)
	require.Len(t, f.placed, 1)
	req := f.placed[0]
	assert.Equal(t, models.Buy, req.Side)
	assert.InDelta(t, 2.0, req.Quantity, 1e-9)
	// 2000*(1 + 1/100/10) = 2002
	assert.InDelta(t, 2002.0, req.StopPrice, 1e-9)
}

func TestEnsureStopLossEscalatesAndExhausts(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0.5, EntryPrice: 100, Leverage: 20}}
	f.placeHook = func(models.OrderRequest) error {
		return &binance.APIError{Code: -2021, Msg: "Order would immediately trigger."}
	}

	p := StopLossParams{StartPct: 1, CapPct: 2, Leverage: 20}
	rep := newGuard(f).EnsureStopLoss(context.Background(), "BTCUSDT", p)

	assert.Equal(t, EnsureExhausted, rep.Outcome)
	assert.Equal(t, TransientRejection, rep.Kind)
	// 1.0, 1.5, 2.0 -> ровно (cap-start)/0.5 + 1 попытки
	assert.Equal(t, 3, rep.Attempts)
	assert.Len(t, f.placed, 3)
	assert.Empty(t, f.orders, "order must not be placed")

	// дистанция стопа монотонно растёт
	for i := 1; i < len(f.placed); i++ {
		assert.Less(t, f.placed[i].StopPrice, f.placed[i-1].StopPrice)
	}
}

func TestEnsureStopLossAbortsOnOtherExchangeError(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0.5, EntryPrice: 100, Leverage: 20}}
	f.placeHook = func(models.OrderRequest) error {
		return &binance.APIError{Code: -4003, Msg: "Quantity less than zero."}
	}

	rep := newGuard(f).EnsureStopLoss(context.Background(), "BTCUSDT", DefaultStopLossParams())

	assert.Equal(t, EnsureAborted, rep.Outcome)
	assert.Equal(t, ExchangeError, rep.Kind)
	assert.Len(t, f.placed, 1, "no escalation on non-transient errors")
}
