package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	streamConnected atomic.Bool
	lastTickUnix    atomic.Int64 // unix seconds, последний тик марк-цены
	lastSweepUnix   atomic.Int64 // unix seconds, последняя страховочная проверка
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetStreamConnected(v bool) { s.streamConnected.Store(v) }
func (s *State) StreamConnected() bool     { return s.streamConnected.Load() }

func (s *State) TouchTick(t time.Time)  { s.lastTickUnix.Store(t.Unix()) }
func (s *State) TouchSweep(t time.Time) { s.lastSweepUnix.Store(t.Unix()) }

func (s *State) LastTick() time.Time  { return unixOrZero(s.lastTickUnix.Load()) }
func (s *State) LastSweep() time.Time { return unixOrZero(s.lastSweepUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func unixOrZero(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
