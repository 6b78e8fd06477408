package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trade_guard/internal/models"
)

// IncomeHistory — история доходов аккаунта за интервал [start, end].
// incomeType: REALIZED_PNL / FUNDING_FEE / COMMISSION / "" (все).
func (c *Client) IncomeHistory(
	ctx context.Context,
	incomeType string,
	start time.Time,
	end time.Time,
) ([]models.IncomeEntry, error) {
	params := url.Values{}
	if incomeType != "" {
		params.Set("incomeType", incomeType)
	}
	params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("limit", "1000")

	data, err := c.signedRequest(ctx, http.MethodGet, "/fapi/v1/income", params)
	if err != nil {
		return nil, fmt.Errorf("IncomeHistory: %w", err)
	}

	var rows []incomeRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("IncomeHistory decode: %w; body=%s", err, string(data))
	}

	res := make([]models.IncomeEntry, 0, len(rows))
	for _, r := range rows {
		income, _ := strconv.ParseFloat(r.Income, 64)
		res = append(res, models.IncomeEntry{
			Symbol:     r.Symbol,
			IncomeType: r.IncomeType,
			Income:     income,
			Time:       time.UnixMilli(r.Time).UTC(),
		})
	}
	return res, nil
}
