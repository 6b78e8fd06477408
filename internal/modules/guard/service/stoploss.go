package service

import (
	"context"
	"math"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/models"
	"trade_guard/internal/pricemath"
	"trade_guard/pkg/logger"
)

// Шаг эскалации дистанции стопа при реджекте «сработал бы сразу».
const escalateStepPct = 0.5

type StopLossParams struct {
	StartPct float64
	CapPct   float64
	Leverage int
}

func DefaultStopLossParams() StopLossParams {
	return StopLossParams{StartPct: 0.01, CapPct: 15, Leverage: 20}
}

// StopLossGuard ставит страховочный стоп на открытую позицию, эскалируя
// дистанцию при транзиентном реджекте до потолка. Существующий стоп
// никогда не заменяет (в отличие от трейлинга).
type StopLossGuard struct {
	gw      Gateway
	meta    *MetaCache
	journal Journal
	n       Notifier
}

func NewStopLossGuard(gw Gateway, meta *MetaCache, journal Journal, n Notifier) *StopLossGuard {
	return &StopLossGuard{gw: gw, meta: meta, journal: journal, n: n}
}

type EnsureOutcome int

const (
	// EnsureFlat — позиции нет, делать нечего.
	EnsureFlat EnsureOutcome = iota
	// EnsureAlreadyProtected — STOP_MARKET уже стоит.
	EnsureAlreadyProtected
	// EnsurePlaced — стоп поставлен.
	EnsurePlaced
	// EnsureExhausted — дошли до потолка эскалации, стоп не поставлен.
	EnsureExhausted
	// EnsureAborted — небиржевой/нетранзиентный сбой, прекращаем сразу.
	EnsureAborted
)

type EnsureReport struct {
	Outcome   EnsureOutcome
	Kind      FailureKind
	Symbol    string
	Attempts  int
	Percent   float64 // процент, на котором остановились
	StopPrice float64
	Err       error
}

// EnsureStopLoss — конечный автомат на один вызов, ничего не персистит.
// currentPercent монотонно растёт, цикл ограничен (cap-start)/0.5+1 попытками.
func (g *StopLossGuard) EnsureStopLoss(ctx context.Context, symbol string, p StopLossParams) EnsureReport {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guard.ensure_stop_loss")
	defer span.Finish()
	span.SetTag("symbol", symbol)

	rep := EnsureReport{Symbol: symbol}

	// 1. Позиция. Плоская — терминальный no-op.
	pos, err := g.findPosition(ctx, symbol)
	if err != nil {
		logger.Error("ensure_stop_loss %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = EnsureAborted, Classify(err), err
		return rep
	}
	if pos.Flat() {
		logger.Info("ensure_stop_loss %s: no open position", symbol)
		rep.Outcome = EnsureFlat
		return rep
	}
	logger.Info("ensure_stop_loss %s: position %.6f at entry %.6f", symbol, pos.Amt, pos.EntryPrice)

	// 2. Уже защищено? Существующий стоп не трогаем.
	open, err := g.gw.OpenOrders(ctx, symbol)
	if err != nil {
		logger.Error("ensure_stop_loss %s: open orders: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = EnsureAborted, Classify(err), err
		return rep
	}
	for _, o := range open {
		if o.Type == models.OrderStopMarket {
			logger.Info("ensure_stop_loss %s: stop-loss already exists", symbol)
			rep.Outcome = EnsureAlreadyProtected
			return rep
		}
	}

	// 3. Ставим с эскалацией.
	side := pos.Side()
	tick := g.meta.Get(ctx, symbol).TickSize

	for pct := p.StartPct; pct <= p.CapPct; pct += escalateStepPct {
		rep.Attempts++
		rep.Percent = pct

		stopPrice := pricemath.RoundDownToTick(
			pricemath.StopPrice(pos.EntryPrice, pct, side, p.Leverage), tick)
		logger.Info("ensure_stop_loss %s: attempt %d at %.6f (%.2f%%)",
			symbol, rep.Attempts, stopPrice, pct)

		_, err := g.gw.PlaceOrder(ctx, models.OrderRequest{
			Symbol:    symbol,
			Side:      side.CloseSide(),
			Type:      models.OrderStopMarket,
			Quantity:  math.Abs(pos.Amt),
			StopPrice: stopPrice,
		})
		if err == nil {
			logger.Info("ensure_stop_loss %s: stop-loss created at %.6f", symbol, stopPrice)
			rep.Outcome, rep.StopPrice = EnsurePlaced, stopPrice
			g.record(ctx, symbol, models.EventStopPlaced, rep)
			g.notifyf("🛡 [%s] страховочный стоп %.6f (%.2f%%)", symbol, stopPrice, pct)
			return rep
		}

		if binance.IsImmediateTrigger(err) {
			// стоп сработал бы сразу — отодвигаем на 0.5 п.п. и пробуем снова
			logger.Warn("ensure_stop_loss %s: rejected, escalating to %.2f%%: %v",
				symbol, pct+escalateStepPct, err)
			rep.Err = err
			continue
		}

		logger.Error("ensure_stop_loss %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = EnsureAborted, Classify(err), err
		return rep
	}

	err = errors.Errorf(
		"ensure_stop_loss %s: gave up after %d attempts at cap %.2f%%",
		symbol, rep.Attempts, p.CapPct)
	logger.Error("%v", err)
	rep.Outcome, rep.Kind, rep.Err = EnsureExhausted, TransientRejection, err
	return rep
}

func (g *StopLossGuard) findPosition(ctx context.Context, symbol string) (models.Position, error) {
	positions, err := g.gw.Positions(ctx, symbol)
	if err != nil {
		return models.Position{}, errors.Wrapf(err, "positions %s", symbol)
	}
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, nil
		}
	}
	return models.Position{Symbol: symbol}, nil
}

func (g *StopLossGuard) record(ctx context.Context, symbol, kind string, payload any) {
	if g.journal == nil {
		return
	}
	recordEvent(ctx, g.journal, symbol, kind, payload)
}

func (g *StopLossGuard) notifyf(format string, args ...any) {
	if g.n == nil {
		return
	}
	g.n.Sendf(format, args...)
}
