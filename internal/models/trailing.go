package models

// TrailingLevel — ступень трейлинга: при достижении TriggerPct прибыли (ROI%)
// стоп переносится на цену, фиксирующую LockPct. Инвариант: Trigger > Lock >= 0 —
// фиксируем меньше, чем триггер, никогда не больше.
type TrailingLevel struct {
	TriggerPct float64
	LockPct    float64
}
