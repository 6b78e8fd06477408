package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"trade_guard/internal/models"
)

// InstrumentMeta — tickSize/stepSize символа из exchangeInfo.
// Захардкоженные точности реджектятся биржей на части символов,
// поэтому округления параметризуются этими значениями.
func (c *Client) InstrumentMeta(ctx context.Context, symbol string) (models.Instrument, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.publicRequest(ctx, "/fapi/v1/exchangeInfo", params)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("InstrumentMeta: %w", err)
	}

	var resp exchangeInfoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.Instrument{}, fmt.Errorf("InstrumentMeta decode: %w", err)
	}
	if len(resp.Symbols) == 0 {
		return models.Instrument{}, fmt.Errorf("InstrumentMeta: symbol %s not found", symbol)
	}

	s := resp.Symbols[0]
	if s.Status != "" && s.Status != "TRADING" {
		return models.Instrument{}, fmt.Errorf("InstrumentMeta: symbol %s not trading: %s", symbol, s.Status)
	}

	parsePos := func(name, raw string) (float64, error) {
		if raw == "" {
			return 0, fmt.Errorf("%s empty", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s parse: %v (%q)", name, err, raw)
		}
		return v, nil
	}

	inst := models.Instrument{Symbol: s.Symbol}
	for _, f := range s.Filters {
		switch f.FilterType {
		case "PRICE_FILTER":
			tick, err := parsePos("tickSize", f.TickSize)
			if err != nil {
				return models.Instrument{}, err
			}
			inst.TickSize = tick
		case "LOT_SIZE":
			step, err := parsePos("stepSize", f.StepSize)
			if err != nil {
				return models.Instrument{}, err
			}
			inst.StepSize = step
			if f.MinQty != "" {
				inst.MinQty, _ = strconv.ParseFloat(f.MinQty, 64)
			}
		}
	}

	if inst.TickSize == 0 || inst.StepSize == 0 {
		return models.Instrument{}, fmt.Errorf("InstrumentMeta: %s missing PRICE_FILTER/LOT_SIZE", symbol)
	}
	return inst, nil
}
