package models

// Instrument — точность символа с биржи.
// ВАЖНО: от tickSize/stepSize зависит, отклонит ли биржа ордер,
// поэтому дефолтные константы годятся не для всех символов.
type Instrument struct {
	Symbol   string
	TickSize float64 // минимальный шаг цены
	StepSize float64 // минимальный шаг количества
	MinQty   float64
}

const (
	// Фолбэки на случай, когда exchangeInfo недоступен:
	// 2 знака по цене, 3 знака по количеству.
	DefaultTickSize = 0.01
	DefaultStepSize = 0.001
)

// DefaultInstrument — консервативный фолбэк для символа.
func DefaultInstrument(symbol string) Instrument {
	return Instrument{
		Symbol:   symbol,
		TickSize: DefaultTickSize,
		StepSize: DefaultStepSize,
	}
}
