package models

import "time"

// GuardEvent — факт для журнала (что сделал движок и почему).
type GuardEvent struct {
	At     time.Time
	Symbol string
	Kind   string // ORDER_CREATED / STOP_PLACED / STOP_MOVED / PNL_SNAPSHOT / ...
	Detail string
}

const (
	EventOrderCreated = "ORDER_CREATED"
	EventStopPlaced   = "STOP_PLACED"
	EventStopMoved    = "STOP_MOVED"
	EventPnlSnapshot  = "PNL_SNAPSHOT"
)
