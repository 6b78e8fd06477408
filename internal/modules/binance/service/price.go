package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SymbolPrice — последняя цена тикера.
func (c *Client) SymbolPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.publicRequest(ctx, "/fapi/v1/ticker/price", params)
	if err != nil {
		return 0, fmt.Errorf("SymbolPrice: %w", err)
	}

	var row tickerPriceRow
	if err := json.Unmarshal(data, &row); err != nil {
		return 0, fmt.Errorf("SymbolPrice decode: %w; body=%s", err, string(data))
	}

	px, err := strconv.ParseFloat(row.Price, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("SymbolPrice parse %q: %v", row.Price, err)
	}
	return px, nil
}

// MarkPrice — марк-цена (premiumIndex), по ней считается ROI.
func (c *Client) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.publicRequest(ctx, "/fapi/v1/premiumIndex", params)
	if err != nil {
		return 0, fmt.Errorf("MarkPrice: %w", err)
	}

	var row premiumIndexRow
	if err := json.Unmarshal(data, &row); err != nil {
		return 0, fmt.Errorf("MarkPrice decode: %w; body=%s", err, string(data))
	}

	px, err := strconv.ParseFloat(row.MarkPrice, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("MarkPrice parse %q: %v", row.MarkPrice, err)
	}
	return px, nil
}
