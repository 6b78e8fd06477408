package service

import (
	"context"
	"math"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"trade_guard/internal/models"
	"trade_guard/internal/pricemath"
	"trade_guard/pkg/logger"
)

// Разница цен, ниже которой перестановка стопа бессмысленна.
const stopReplaceTolerance = 0.0001

// TrailingStopEngine подтягивает стоп по мере роста прибыли, никогда его
// не ослабляя. Всё состояние берётся с биржи на каждый вызов — движок
// безопасен к рестартам и повторным запускам.
type TrailingStopEngine struct {
	gw      Gateway
	guard   *StopLossGuard
	ladder  Ladder
	meta    *MetaCache
	journal Journal
	n       Notifier
}

func NewTrailingStopEngine(
	gw Gateway,
	guard *StopLossGuard,
	ladder Ladder,
	meta *MetaCache,
	journal Journal,
	n Notifier,
) *TrailingStopEngine {
	return &TrailingStopEngine{gw: gw, guard: guard, ladder: ladder, meta: meta, journal: journal, n: n}
}

type TrailOutcome int

const (
	// TrailFlat — позиции нет или вход нулевой.
	TrailFlat TrailOutcome = iota
	// TrailNotInProfit — ROI <= 0, под водой стоп не трогаем.
	TrailNotInProfit
	// TrailBelowLadder — прибыль есть, но ни один триггер не достигнут.
	TrailBelowLadder
	// TrailWouldLoosen — новый стоп хуже текущего, отклонено.
	TrailWouldLoosen
	// TrailUnchanged — разница в пределах допуска, перестановка не нужна.
	TrailUnchanged
	// TrailMoved — стоп переставлен.
	TrailMoved
	// TrailFallback — перестановка не удалась, отработал страховочный стоп.
	TrailFallback
	// TrailAborted — не смогли даже прочитать состояние.
	TrailAborted
)

type TrailReport struct {
	Outcome   TrailOutcome
	Kind      FailureKind
	Symbol    string
	ProfitPct float64
	Level     models.TrailingLevel
	OldStop   float64
	NewStop   float64
	Err       error
}

// UpdateTrailingStop — один шаг трейлинга. Эффективный зафиксированный
// процент монотонно не убывает между вызовами независимо от их частоты.
func (e *TrailingStopEngine) UpdateTrailingStop(ctx context.Context, symbol string) TrailReport {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guard.update_trailing_stop")
	defer span.Finish()
	span.SetTag("symbol", symbol)

	rep := TrailReport{Symbol: symbol}

	// 1-2. Позиция и её сторона.
	pos, err := e.guard.findPosition(ctx, symbol)
	if err != nil {
		logger.Error("trailing %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = TrailAborted, Classify(err), err
		return rep
	}
	if pos.Flat() || pos.EntryPrice == 0 {
		rep.Outcome = TrailFlat
		return rep
	}
	side := pos.Side()

	// 3. Текущий ROI по марк-цене.
	mark, err := e.gw.MarkPrice(ctx, symbol)
	if err != nil {
		logger.Error("trailing %s: mark price: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = TrailAborted, Classify(err), err
		return rep
	}
	profit := pricemath.ROI(side, pos.EntryPrice, mark, pos.Leverage)
	rep.ProfitPct = profit

	// 4. Под водой не ужесточаем и не ослабляем.
	if profit <= 0 {
		rep.Outcome = TrailNotInProfit
		return rep
	}

	// 5. Существующий стоп (ожидается максимум один).
	open, err := e.gw.OpenOrders(ctx, symbol)
	if err != nil {
		logger.Error("trailing %s: open orders: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = TrailAborted, Classify(err), err
		return rep
	}
	var current *models.Order
	for i := range open {
		if open[i].Type == models.OrderStopMarket || open[i].Type == models.OrderStop {
			current = &open[i]
			break
		}
	}

	// 6. Самый высокий достигнутый уровень лесенки.
	level, ok := e.ladder.Select(profit)
	if !ok {
		rep.Outcome = TrailBelowLadder
		return rep
	}
	rep.Level = level

	// 7. Цена, фиксирующая lock-процент.
	tick := e.meta.Get(ctx, symbol).TickSize
	newStop := pricemath.RoundDownToTick(
		pricemath.LockPrice(pos.EntryPrice, level.LockPct, side, pos.Leverage), tick)
	rep.NewStop = newStop

	if current != nil {
		rep.OldStop = current.StopPrice

		// 8. Не ослабляем: для лонга вниз нельзя, для шорта вверх нельзя.
		if (side == models.Long && newStop < current.StopPrice) ||
			(side == models.Short && newStop > current.StopPrice) {
			logger.Info("trailing %s: reject loosening %.6f -> %.6f", symbol, current.StopPrice, newStop)
			rep.Outcome = TrailWouldLoosen
			return rep
		}

		// 9. В пределах допуска — не дёргаем биржу.
		if math.Abs(current.StopPrice-newStop) < stopReplaceTolerance {
			rep.Outcome = TrailUnchanged
			return rep
		}

		// 10. Снимаем старый стоп; неуспех не блокирует постановку нового.
		if err := e.gw.CancelOrder(ctx, symbol, current.OrderID); err != nil {
			logger.Warn("trailing %s: cancel stop %d: %v", symbol, current.OrderID, err)
		}
	}

	// 11. Новый reduce-only стоп.
	_, err = e.gw.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        side.CloseSide(),
		Type:        models.OrderStopMarket,
		Quantity:    math.Abs(pos.Amt),
		StopPrice:   newStop,
		ReduceOnly:  true,
		TimeInForce: models.TimeInForceGTC,
	})
	if err != nil {
		// 12. Позиция не должна остаться голой — страховочный стоп.
		err = errors.Wrapf(err, "trailing %s: place stop at %.6f", symbol, newStop)
		logger.Error("%v, falling back to ensure_stop_loss", err)

		fallback := DefaultStopLossParams()
		if pos.Leverage > 0 {
			fallback.Leverage = pos.Leverage
		}
		e.guard.EnsureStopLoss(ctx, symbol, fallback)

		rep.Outcome, rep.Kind, rep.Err = TrailFallback, Classify(err), err
		return rep
	}

	logger.Info("trailing %s: stop %.6f -> %.6f (profit %.2f%%, lock %.2f%%)",
		symbol, rep.OldStop, newStop, profit, level.LockPct)
	rep.Outcome = TrailMoved

	if e.journal != nil {
		recordEvent(ctx, e.journal, symbol, models.EventStopMoved, rep)
	}
	if e.n != nil {
		e.n.Sendf("🛡 [%s] стоп подтянут до %.6f (ROI %.2f%%, lock %.2f%%)",
			symbol, newStop, profit, level.LockPct)
	}
	return rep
}
