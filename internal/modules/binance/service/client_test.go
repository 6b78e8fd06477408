package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_guard/internal/models"
)

func TestPositionsSignedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fapi/v2/positionRisk", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		assert.NotEmpty(t, r.URL.Query().Get("timestamp"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"symbol":"BTCUSDT","positionAmt":"0.152","entryPrice":"50000",
			"markPrice":"50100.5","leverage":"8","positionSide":"BOTH"
		}]`))
	}))
	defer srv.Close()

	c := New("test-key", "test-secret", srv.URL)
	positions, err := c.Positions(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, "BTCUSDT", p.Symbol)
	assert.InDelta(t, 0.152, p.Amt, 1e-9)
	assert.InDelta(t, 50000.0, p.EntryPrice, 1e-9)
	assert.InDelta(t, 50100.5, p.MarkPrice, 1e-9)
	assert.Equal(t, 8, p.Leverage)
	assert.Equal(t, models.Long, p.Side())
}

func TestPlaceOrderImmediateTriggerReject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2021,"msg":"Order would immediately trigger."}`))
	}))
	defer srv.Close()

	c := New("k", "s", srv.URL)
	_, err := c.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      models.Sell,
		Type:      models.OrderStopMarket,
		Quantity:  0.1,
		StopPrice: 49000,
	})
	require.Error(t, err)
	assert.True(t, IsImmediateTrigger(err))

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, -2021, apiErr.Code)
}

func TestPlaceOrderOtherAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-4003,"msg":"Quantity less than zero."}`))
	}))
	defer srv.Close()

	c := New("k", "s", srv.URL)
	_, err := c.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     models.Buy,
		Type:     models.OrderMarket,
		Quantity: 0.1,
	})
	require.Error(t, err)
	assert.False(t, IsImmediateTrigger(err))
}

func TestInstrumentMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		_, _ = w.Write([]byte(`{"symbols":[{
			"symbol":"ETHUSDT","status":"TRADING",
			"filters":[
				{"filterType":"PRICE_FILTER","tickSize":"0.01"},
				{"filterType":"LOT_SIZE","stepSize":"0.001","minQty":"0.001"}
			]
		}]}`))
	}))
	defer srv.Close()

	c := New("k", "s", srv.URL)
	inst, err := c.InstrumentMeta(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", inst.Symbol)
	assert.InDelta(t, 0.01, inst.TickSize, 1e-12)
	assert.InDelta(t, 0.001, inst.StepSize, 1e-12)
	assert.InDelta(t, 0.001, inst.MinQty, 1e-12)
}
