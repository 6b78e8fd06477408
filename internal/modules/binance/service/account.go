package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AvailableBalance — доступный баланс по активу (обычно USDT).
func (c *Client) AvailableBalance(ctx context.Context, asset string) (float64, error) {
	data, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v2/balance", nil)
	if err != nil {
		return 0, fmt.Errorf("AvailableBalance: %w", err)
	}

	var rows []balanceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("AvailableBalance decode: %w; body=%s", err, string(data))
	}

	for _, r := range rows {
		if r.Asset == asset {
			v, err := strconv.ParseFloat(r.AvailableBalance, 64)
			if err != nil {
				return 0, fmt.Errorf("AvailableBalance parse %q: %w", r.AvailableBalance, err)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("AvailableBalance: asset %s not found", asset)
}

// SetLeverage выставляет плечо по символу.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	data, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	if err != nil {
		return fmt.Errorf("SetLeverage %s x%d: %w", symbol, leverage, err)
	}

	var resp leverageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("SetLeverage decode: %w; body=%s", err, string(data))
	}
	if resp.Leverage != leverage {
		return fmt.Errorf("SetLeverage %s: asked x%d, got x%d", symbol, leverage, resp.Leverage)
	}
	return nil
}
