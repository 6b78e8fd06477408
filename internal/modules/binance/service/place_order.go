package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"trade_guard/internal/models"
)

// PlaceOrder отправляет ордер. Реджект биржи приходит как *APIError,
// транзиентный случай распознаётся через IsImmediateTrigger.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	if req.Quantity <= 0 {
		return models.Order{}, fmt.Errorf("PlaceOrder: quantity <= 0")
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	params.Set("quantity", formatFloat(req.Quantity))

	switch req.Type {
	case models.OrderLimit:
		if req.Price <= 0 {
			return models.Order{}, fmt.Errorf("PlaceOrder: limit price <= 0")
		}
		params.Set("price", formatFloat(req.Price))
	case models.OrderTakeProfitMarket, models.OrderStopMarket:
		if req.StopPrice <= 0 {
			return models.Order{}, fmt.Errorf("PlaceOrder: stopPrice <= 0")
		}
		params.Set("stopPrice", formatFloat(req.StopPrice))
	}

	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.TimeInForce != "" {
		params.Set("timeInForce", req.TimeInForce)
	}

	data, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return models.Order{}, fmt.Errorf("PlaceOrder %s %s %s: %w", req.Symbol, req.Side, req.Type, err)
	}

	var row orderRow
	if err := json.Unmarshal(data, &row); err != nil {
		return models.Order{}, fmt.Errorf("PlaceOrder decode: %w; body=%s", err, string(data))
	}
	return orderFromRow(row), nil
}
