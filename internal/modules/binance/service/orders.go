package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trade_guard/internal/models"
)

// OpenOrders — открытые ордера по символу.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", params)
	if err != nil {
		return nil, fmt.Errorf("OpenOrders: %w", err)
	}

	var rows []orderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("OpenOrders decode: %w; body=%s", err, string(data))
	}

	res := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		res = append(res, orderFromRow(r))
	}
	return res, nil
}

// CancelOrder отменяет один ордер по id.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	if _, err := c.signedRequest(ctx, http.MethodDelete, "/fapi/v1/order", params); err != nil {
		return fmt.Errorf("CancelOrder %s/%d: %w", symbol, orderID, err)
	}
	return nil
}

// CancelAllOrders снимает все открытые ордера символа одним вызовом.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	params := url.Values{}
	params.Set("symbol", symbol)

	if _, err := c.signedRequest(ctx, http.MethodDelete, "/fapi/v1/allOpenOrders", params); err != nil {
		return fmt.Errorf("CancelAllOrders %s: %w", symbol, err)
	}
	return nil
}

func orderFromRow(r orderRow) models.Order {
	qty, _ := strconv.ParseFloat(r.OrigQty, 64)
	price, _ := strconv.ParseFloat(r.Price, 64)
	stop, _ := strconv.ParseFloat(r.StopPrice, 64)

	return models.Order{
		OrderID:     r.OrderID,
		Symbol:      r.Symbol,
		Side:        models.OrderSide(r.Side),
		Type:        models.OrderType(r.Type),
		Quantity:    qty,
		Price:       price,
		StopPrice:   stop,
		ReduceOnly:  r.ReduceOnly,
		TimeInForce: r.TimeInForce,
		Status:      r.Status,
	}
}
