package service

import (
	"sort"

	"github.com/pkg/errors"

	"trade_guard/internal/models"
)

// Ladder — неизменяемая лесенка трейлинга. Валидируется один раз при
// конструировании, а не на каждый вызов.
type Ladder struct {
	levels []models.TrailingLevel // ascending by trigger
}

// NewLadder сортирует уровни по триггеру и проверяет инварианты:
// триггеры строго возрастают, 0 <= lock < trigger.
func NewLadder(levels []models.TrailingLevel) (Ladder, error) {
	if len(levels) == 0 {
		return Ladder{}, errors.New("ladder: no levels")
	}

	sorted := make([]models.TrailingLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TriggerPct < sorted[j].TriggerPct })

	for i, lv := range sorted {
		if lv.LockPct < 0 {
			return Ladder{}, errors.Errorf("ladder: level %d lock %.4f < 0", i, lv.LockPct)
		}
		if lv.LockPct >= lv.TriggerPct {
			return Ladder{}, errors.Errorf(
				"ladder: level %d lock %.4f >= trigger %.4f", i, lv.LockPct, lv.TriggerPct)
		}
		if i > 0 && sorted[i-1].TriggerPct >= lv.TriggerPct {
			return Ladder{}, errors.Errorf("ladder: duplicate trigger %.4f", lv.TriggerPct)
		}
	}

	return Ladder{levels: sorted}, nil
}

// Select — самый высокий достигнутый уровень (trigger <= profitPct).
func (l Ladder) Select(profitPct float64) (models.TrailingLevel, bool) {
	var (
		best  models.TrailingLevel
		found bool
	)
	for _, lv := range l.levels {
		if lv.TriggerPct > profitPct {
			break
		}
		best, found = lv, true
	}
	return best, found
}

func (l Ladder) Levels() []models.TrailingLevel {
	out := make([]models.TrailingLevel, len(l.levels))
	copy(out, l.levels)
	return out
}
