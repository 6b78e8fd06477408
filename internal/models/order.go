package models

import "time"

type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite — сторона закрывающего ордера.
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// CloseSide возвращает сторону ордера, закрывающего позицию данного направления.
func (p PositionSide) CloseSide() OrderSide {
	if p == Long {
		return Sell
	}
	return Buy
}

func (p PositionSide) OpenSide() OrderSide {
	if p == Long {
		return Buy
	}
	return Sell
}

type OrderType string

const (
	OrderLimit            OrderType = "LIMIT"
	OrderMarket           OrderType = "MARKET"
	OrderTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
	OrderStopMarket       OrderType = "STOP_MARKET"
	OrderStop             OrderType = "STOP" // stop-limit, встречается в открытых ордерах
)

const TimeInForceGTC = "GTC"

// OrderRequest — то, что уходит на биржу.
type OrderRequest struct {
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    float64
	Price       float64 // только LIMIT
	StopPrice   float64 // только *_MARKET триггеры
	ReduceOnly  bool
	TimeInForce string
}

// Order — открытый/созданный ордер, как его видит биржа.
type Order struct {
	OrderID     int64
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    float64
	Price       float64
	StopPrice   float64
	ReduceOnly  bool
	TimeInForce string
	Status      string
}

// IncomeEntry — запись истории доходов (REALIZED_PNL и т.п.).
type IncomeEntry struct {
	Symbol     string
	IncomeType string
	Income     float64
	Time       time.Time
}
