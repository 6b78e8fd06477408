// Package pricemath — чистая математика цен: TP/SL с учётом плеча, ROI,
// округления под tick/step биржи. Без I/O и без состояния.
package pricemath

import (
	"math"

	"github.com/pkg/errors"

	"trade_guard/internal/models"
)

// ErrLeverage — плечо меньше 1 не имеет смысла, прекондишен нарушен.
var ErrLeverage = errors.New("leverage must be >= 1")

// TpSl возвращает (take-profit, stop-loss) от цены входа.
// Проценты заданы относительно ROI аккаунта, поэтому делятся на плечо:
// LONG  tp = entry*(1 + tp%/100/lev), sl = entry*(1 - sl%/100/lev)
// SHORT — знаки наоборот.
func TpSl(
	entry float64,
	tpPct float64,
	slPct float64,
	side models.PositionSide,
	leverage int,
) (float64, float64, error) {
	if leverage <= 0 {
		return 0, 0, errors.Wrapf(ErrLeverage, "got %d", leverage)
	}

	lev := float64(leverage)
	if side == models.Long {
		return entry * (1 + tpPct/100/lev), entry * (1 - slPct/100/lev), nil
	}
	return entry * (1 - tpPct/100/lev), entry * (1 + slPct/100/lev), nil
}

// StopPrice — стоп-цена для защитного стопа на pct процентов ROI ниже входа
// (для шорта — выше). Та же формула, что и в TpSl, но для одной ноги.
func StopPrice(entry, pct float64, side models.PositionSide, leverage int) float64 {
	lev := float64(leverage)
	if side == models.Long {
		return entry * (1 - pct/100/lev)
	}
	return entry * (1 + pct/100/lev)
}

// LockPrice — цена, фиксирующая lockPct процентов ROI прибыли:
// для лонга выше входа, для шорта ниже.
func LockPrice(entry, lockPct float64, side models.PositionSide, leverage int) float64 {
	lev := float64(leverage)
	if side == models.Long {
		return entry * (1 + lockPct/100/lev)
	}
	return entry * (1 - lockPct/100/lev)
}

// ROI — леверидж-доходность позиции в процентах.
// Возвращает 0, если входа нет (entry==0) — никогда не делим на ноль.
func ROI(side models.PositionSide, entry, mark float64, leverage int) float64 {
	if entry == 0 {
		return 0
	}
	lev := float64(leverage)
	if side == models.Long {
		return lev * (mark - entry) / entry * 100
	}
	return lev * (entry - mark) / entry * 100
}

// RoundDownToTick округляет цену вниз до шага tick.
// С tick=0.01 эквивалентно «вниз до 2 знаков» из исходной логики.
func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	ratio := px / tick
	steps := math.Floor(ratio + math.Abs(ratio)*1e-9)
	return steps * tick
}

// RoundUpToTick округляет цену вверх до шага tick.
func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	ratio := px / tick
	steps := math.Ceil(ratio - math.Abs(ratio)*1e-9)
	return steps * tick
}

// FloorToStep режет количество вниз до шага лота.
// С step=0.001 эквивалентно floor(v*1000)/1000 из исходной логики.
func FloorToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	ratio := v / step
	steps := math.Floor(ratio + math.Abs(ratio)*1e-9)
	return steps * step
}
