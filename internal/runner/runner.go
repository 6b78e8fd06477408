package runner

import (
	"context"
	"sync"
	"time"

	"trade_guard/internal/modules/config"
	guardsvc "trade_guard/internal/modules/guard/service"
	healthsvc "trade_guard/internal/modules/health/service"
	marksvc "trade_guard/internal/modules/markstream/service"
	"trade_guard/internal/notify"
	"trade_guard/pkg/logger"
)

// Runner связывает стрим марк-цен с движком: на тик — шаг трейлинга,
// по таймеру — страховочная проверка стопа по всему watchlist.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	guard  *guardsvc.StopLossGuard
	trail  *guardsvc.TrailingStopEngine
	stream *marksvc.Client
	state  *healthsvc.State
	n      notify.Notifier

	mu        sync.Mutex
	lastTrail map[string]time.Time // symbol -> последний трейл-апдейт
}

func New(
	cfg *config.Config,
	guard *guardsvc.StopLossGuard,
	trail *guardsvc.TrailingStopEngine,
	stream *marksvc.Client,
	state *healthsvc.State,
	n notify.Notifier,
) *Runner {
	return &Runner{
		cfg:       cfg,
		guard:     guard,
		trail:     trail,
		stream:    stream,
		state:     state,
		n:         n,
		lastTrail: make(map[string]time.Time),
	}
}

func (r *Runner) Start(parent context.Context) {
	r.ctx, r.cancel = context.WithCancel(parent)

	watch := r.cfg.Watchlist
	if len(watch) == 0 {
		logger.Warn("runner: empty watchlist, nothing to guard")
		return
	}
	logger.Info("runner: watching %d symbols: %v", len(watch), watch)
	r.n.Sendf("🚀 Guard запущен: %d символов, sweep каждые %s", len(watch), r.cfg.GuardSweepEvery)

	go r.sweepLoop(r.ctx, watch)

	ticks := r.stream.Stream(r.ctx, watch)
	r.state.SetReady(true)
	defer r.state.SetReady(false)

	for {
		select {
		case <-r.ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				logger.Error("runner: mark stream closed")
				return
			}
			r.state.TouchTick(tick.At)
			r.onTick(r.ctx, tick.Symbol)
		}
	}
}

// onTick — не чаще одного трейл-апдейта на символ за TrailMinGap.
func (r *Runner) onTick(ctx context.Context, symbol string) {
	r.mu.Lock()
	last := r.lastTrail[symbol]
	if time.Since(last) < r.cfg.TrailMinGap {
		r.mu.Unlock()
		return
	}
	r.lastTrail[symbol] = time.Now()
	r.mu.Unlock()

	rep := r.trail.UpdateTrailingStop(ctx, symbol)
	if rep.Outcome == guardsvc.TrailAborted {
		logger.Error("runner: trailing %s aborted: %v", symbol, rep.Err)
	}
}

// sweepLoop — периодическая гарантия, что позиция не осталась без стопа.
func (r *Runner) sweepLoop(ctx context.Context, watch []string) {
	ticker := time.NewTicker(r.cfg.GuardSweepEvery)
	defer ticker.Stop()

	params := guardsvc.StopLossParams{
		StartPct: r.cfg.StopLossStartPct,
		CapPct:   r.cfg.StopLossCapPct,
		Leverage: r.cfg.DefaultLeverage,
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, symbol := range watch {
				rep := r.guard.EnsureStopLoss(ctx, symbol, params)
				switch rep.Outcome {
				case guardsvc.EnsureExhausted:
					r.n.Sendf("🚨 [%s] не удалось выставить страховочный стоп: перебор до %.2f%% исчерпан", symbol, params.CapPct)
				case guardsvc.EnsureAborted:
					logger.Error("runner: ensure stop %s aborted: %v", symbol, rep.Err)
				}
			}
			r.state.TouchSweep(time.Now())
		}
	}
}

// Stop — мягко гасит раннер.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}
