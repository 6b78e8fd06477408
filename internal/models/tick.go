package models

import "time"

// MarkTick — обновление марк-цены из websocket-стрима.
type MarkTick struct {
	Symbol    string
	MarkPrice float64
	At        time.Time
}
