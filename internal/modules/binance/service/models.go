package service

// Ответы fapi приходят с числами в строках — парсим руками.

type positionRiskRow struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	Leverage         string `json:"leverage"`
	UnRealizedProfit string `json:"unRealizedProfit"`
	LiquidationPrice string `json:"liquidationPrice"`
	MarginType       string `json:"marginType"`
	PositionSide     string `json:"positionSide"`
}

type orderRow struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	OrigQty     string `json:"origQty"`
	Price       string `json:"price"`
	StopPrice   string `json:"stopPrice"`
	ReduceOnly  bool   `json:"reduceOnly"`
	TimeInForce string `json:"timeInForce"`
}

type balanceRow struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"availableBalance"`
}

type incomeRow struct {
	Symbol     string `json:"symbol"`
	IncomeType string `json:"incomeType"`
	Income     string `json:"income"`
	Asset      string `json:"asset"`
	Time       int64  `json:"time"`
}

type tickerPriceRow struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type premiumIndexRow struct {
	Symbol    string `json:"symbol"`
	MarkPrice string `json:"markPrice"`
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Status  string `json:"status"`
		Filters []struct {
			FilterType string `json:"filterType"`
			TickSize   string `json:"tickSize"`
			StepSize   string `json:"stepSize"`
			MinQty     string `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

type leverageResponse struct {
	Leverage int    `json:"leverage"`
	Symbol   string `json:"symbol"`
}
