package models

import (
	"fmt"
	"strings"
)

// PositionSide — направление позиции (LONG/SHORT).
type PositionSide string

const (
	Long  PositionSide = "LONG"
	Short PositionSide = "SHORT"
)

// ParsePositionSide валидирует пользовательский ввод ("LONG"/"SHORT").
func ParsePositionSide(raw string) (PositionSide, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG":
		return Long, nil
	case "SHORT":
		return Short, nil
	default:
		return "", fmt.Errorf("position side %q does not suitable", raw)
	}
}

// Position — снимок позиции с биржи. Ничего не кешируем между вызовами:
// каждое решение перечитывает состояние заново.
type Position struct {
	Symbol     string
	Amt        float64 // signed: >0 long, <0 short, 0 flat
	EntryPrice float64
	MarkPrice  float64
	Leverage   int
}

func (p Position) Flat() bool { return p.Amt == 0 }

func (p Position) Side() PositionSide {
	if p.Amt < 0 {
		return Short
	}
	return Long
}
