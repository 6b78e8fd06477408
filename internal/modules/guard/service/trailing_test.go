package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/models"
)

func defaultLevels() []models.TrailingLevel {
	return []models.TrailingLevel{
		{TriggerPct: 3, LockPct: 1.5},
		{TriggerPct: 5, LockPct: 3},
		{TriggerPct: 7, LockPct: 5},
	}
}

func newEngine(t *testing.T, f *fakeGateway, levels []models.TrailingLevel) *TrailingStopEngine {
	t.Helper()
	ladder, err := NewLadder(levels)
	require.NoError(t, err)
	meta := NewMetaCache(f)
	guard := NewStopLossGuard(f, meta, nil, nil)
	return NewTrailingStopEngine(f, guard, ladder, meta, nil, nil)
}

func TestNewLadderValidation(t *testing.T) {
	_, err := NewLadder(nil)
	assert.Error(t, err, "empty ladder")

	_, err = NewLadder([]models.TrailingLevel{{TriggerPct: 3, LockPct: 3}})
	assert.Error(t, err, "lock == trigger")

	_, err = NewLadder([]models.TrailingLevel{{TriggerPct: 3, LockPct: -1}})
	assert.Error(t, err, "negative lock")

	_, err = NewLadder([]models.TrailingLevel{
		{TriggerPct: 3, LockPct: 1},
		{TriggerPct: 3, LockPct: 2},
	})
	assert.Error(t, err, "duplicate trigger")

	// вход не обязан быть отсортирован
	ladder, err := NewLadder([]models.TrailingLevel{
		{TriggerPct: 7, LockPct: 5},
		{TriggerPct: 3, LockPct: 1.5},
		{TriggerPct: 5, LockPct: 3},
	})
	require.NoError(t, err)

	lv, ok := ladder.Select(6)
	require.True(t, ok)
	assert.InDelta(t, 5.0, lv.TriggerPct, 1e-9)

	_, ok = ladder.Select(2.9)
	assert.False(t, ok)

	lv, ok = ladder.Select(100)
	require.True(t, ok)
	assert.InDelta(t, 7.0, lv.TriggerPct, 1e-9)
}

func TestTrailingFlatAndNoProfit(t *testing.T) {
	f := newFakeGateway()
	e := newEngine(t, f, defaultLevels())

	// нет позиции
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 0}}
	rep := e.UpdateTrailingStop(context.Background(), "BTCUSDT")
	assert.Equal(t, TrailFlat, rep.Outcome)

	// под водой
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	f.mark = 99
	rep = e.UpdateTrailingStop(context.Background(), "BTCUSDT")
	assert.Equal(t, TrailNotInProfit, rep.Outcome)
	assert.Empty(t, f.placed)
}

func TestTrailingBelowLadder(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	f.mark = 100.2 // ROI 2% < первый триггер 3%

	rep := newEngine(t, f, defaultLevels()).UpdateTrailingStop(context.Background(), "BTCUSDT")

	assert.Equal(t, TrailBelowLadder, rep.Outcome)
	assert.Empty(t, f.placed)
}

func TestTrailingEndToEndFirstLevel(t *testing.T) {
	// entry=100, LONG, lev=10, profit 3.2% -> уровень (3,1.5),
	// стоп = 100*(1+1.5/100/10) = 100.15, SELL, reduce-only
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	f.mark = 100.32

	rep := newEngine(t, f, []models.TrailingLevel{{TriggerPct: 3, LockPct: 1.5}}).
		UpdateTrailingStop(context.Background(), "BTCUSDT")

	require.Equal(t, TrailMoved, rep.Outcome)
	assert.InDelta(t, 3.2, rep.ProfitPct, 1e-9)
	assert.InDelta(t, 100.15, rep.NewStop, 1e-9)

	require.Len(t, f.placed, 1)
	req := f.placed[0]
	assert.Equal(t, models.OrderStopMarket, req.Type)
	assert.Equal(t, models.Sell, req.Side)
	assert.True(t, req.ReduceOnly)
	assert.InDelta(t, 100.15, req.StopPrice, 1e-9)
	assert.InDelta(t, 1.0, req.Quantity, 1e-9)
}

func TestTrailingNeverLoosens(t *testing.T) {
	// профит 4% -> 3% -> 6%: стоп после серии равен стопу уровня 6%,
	// средний вызов ничего не откатывает.
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	e := newEngine(t, f, defaultLevels())
	ctx := context.Background()

	f.mark = 100.4 // ROI 4% -> уровень (3,1.5) -> стоп 100.15
	rep := e.UpdateTrailingStop(ctx, "BTCUSDT")
	require.Equal(t, TrailMoved, rep.Outcome)
	assert.InDelta(t, 100.15, rep.NewStop, 1e-9)

	f.mark = 100.3 // ROI 3% -> тот же уровень, стоп не меняется
	rep = e.UpdateTrailingStop(ctx, "BTCUSDT")
	assert.Equal(t, TrailUnchanged, rep.Outcome)

	f.mark = 100.6 // ROI 6% -> уровень (5,3) -> стоп 100.3
	rep = e.UpdateTrailingStop(ctx, "BTCUSDT")
	require.Equal(t, TrailMoved, rep.Outcome)
	assert.InDelta(t, 100.3, rep.NewStop, 1e-9)

	// на бирже остался ровно один стоп — последний
	require.Len(t, f.orders, 1)
	assert.InDelta(t, 100.3, f.orders[0].StopPrice, 1e-9)
	// всего размещали два стопа, старый был снят
	assert.Len(t, f.placedOfType(models.OrderStopMarket), 2)
	assert.Len(t, f.canceled, 1)
}

func TestTrailingIdempotentOnRepeatedCalls(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	f.mark = 100.4
	e := newEngine(t, f, defaultLevels())
	ctx := context.Background()

	rep := e.UpdateTrailingStop(ctx, "BTCUSDT")
	require.Equal(t, TrailMoved, rep.Outcome)

	rep = e.UpdateTrailingStop(ctx, "BTCUSDT")
	assert.Equal(t, TrailUnchanged, rep.Outcome)
	assert.Len(t, f.placed, 1, "second call must be a no-op")
}

func TestTrailingWouldLoosenShort(t *testing.T) {
	// Шорт: стоп двигается вниз; попытка поднять его обратно отклоняется.
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "ETHUSDT", Amt: -1, EntryPrice: 100, Leverage: 10}}
	f.orders = []models.Order{{
		OrderID: 5, Symbol: "ETHUSDT",
		Type: models.OrderStopMarket, StopPrice: 99.7,
	}}
	f.mark = 99.68 // ROI 3.2% -> уровень (3,1.5) -> кандидат 99.85 выше текущего 99.7

	rep := newEngine(t, f, defaultLevels()).UpdateTrailingStop(context.Background(), "ETHUSDT")

	assert.Equal(t, TrailWouldLoosen, rep.Outcome)
	assert.Empty(t, f.placed)
	assert.Empty(t, f.canceled)
}

func TestTrailingFallbackToGuardOnPlacementFailure(t *testing.T) {
	f := newFakeGateway()
	f.positions = []models.Position{{Symbol: "BTCUSDT", Amt: 1, EntryPrice: 100, Leverage: 10}}
	f.mark = 100.4
	// трейлинговый reduce-only стоп реджектим, страховочный (без reduce-only) пропускаем
	f.placeHook = func(req models.OrderRequest) error {
		if req.ReduceOnly {
			return &binance.APIError{Code: -2021, Msg: "Order would immediately trigger."}
		}
		return nil
	}

	rep := newEngine(t, f, defaultLevels()).UpdateTrailingStop(context.Background(), "BTCUSDT")

	assert.Equal(t, TrailFallback, rep.Outcome)
	require.Error(t, rep.Err)

	// страховочный стоп встал
	require.Len(t, f.orders, 1)
	assert.False(t, f.orders[0].ReduceOnly)
}
