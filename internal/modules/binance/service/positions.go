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

// Positions — снимок позиций по символу (positionRisk).
// Пустой symbol вернёт все позиции аккаунта.
func (c *Client) Positions(ctx context.Context, symbol string) ([]models.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	data, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, fmt.Errorf("Positions: %w", err)
	}

	var rows []positionRiskRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("Positions decode: %w; body=%s", err, string(data))
	}

	res := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		amt, _ := strconv.ParseFloat(r.PositionAmt, 64)
		entry, _ := strconv.ParseFloat(r.EntryPrice, 64)
		mark, _ := strconv.ParseFloat(r.MarkPrice, 64)
		lev, _ := strconv.Atoi(r.Leverage)

		res = append(res, models.Position{
			Symbol:     r.Symbol,
			Amt:        amt,
			EntryPrice: entry,
			MarkPrice:  mark,
			Leverage:   lev,
		})
	}
	return res, nil
}
