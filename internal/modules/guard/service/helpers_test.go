package service

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeGateway — стейтфул-фейк биржи: помнит позиции и открытые ордера,
// MARKET-закрытие делает позицию плоской, стопы попадают в открытые ордера.
type fakeGateway struct {
	mu sync.Mutex

	positions []models.Position
	orders    []models.Order
	mark      float64
	price     float64
	balance   float64
	meta      models.Instrument
	income    []models.IncomeEntry

	placed         []models.OrderRequest
	canceled       []int64
	cancelAllCalls int
	leverage       map[string]int
	nextID         int64

	positionsErr error
	openErr      error
	markErr      error
	cancelErr    error
	// placeHook возвращает не-nil error, чтобы зареджектить конкретный ордер
	placeHook func(req models.OrderRequest) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		meta:     models.Instrument{TickSize: 0.01, StepSize: 0.001, MinQty: 0.001},
		leverage: make(map[string]int),
	}
}

func (f *fakeGateway) Positions(_ context.Context, _ string) ([]models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	out := make([]models.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

func (f *fakeGateway) OpenOrders(_ context.Context, _ string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make([]models.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeGateway) MarkPrice(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return 0, f.markErr
	}
	return f.mark, nil
}

func (f *fakeGateway) SymbolPrice(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, nil
}

func (f *fakeGateway) SetLeverage(_ context.Context, symbol string, leverage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverage[symbol] = leverage
	return nil
}

func (f *fakeGateway) PlaceOrder(_ context.Context, req models.OrderRequest) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.placed = append(f.placed, req)
	if f.placeHook != nil {
		if err := f.placeHook(req); err != nil {
			return models.Order{}, err
		}
	}

	f.nextID++
	order := models.Order{
		OrderID:     f.nextID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		ReduceOnly:  req.ReduceOnly,
		TimeInForce: req.TimeInForce,
		Status:      "NEW",
	}

	switch req.Type {
	case models.OrderMarket:
		// рыночное закрытие — позиция становится плоской
		for i := range f.positions {
			if f.positions[i].Symbol == req.Symbol &&
				math.Abs(math.Abs(f.positions[i].Amt)-req.Quantity) < 1e-9 {
				f.positions[i].Amt = 0
			}
		}
	default:
		f.orders = append(f.orders, order)
	}
	return order, nil
}

func (f *fakeGateway) CancelOrder(_ context.Context, _ string, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, orderID)
	kept := f.orders[:0]
	for _, o := range f.orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	f.orders = kept
	return nil
}

func (f *fakeGateway) CancelAllOrders(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelAllCalls++
	f.orders = nil
	return nil
}

func (f *fakeGateway) AvailableBalance(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeGateway) IncomeHistory(_ context.Context, _ string, _, _ time.Time) ([]models.IncomeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.income, nil
}

func (f *fakeGateway) InstrumentMeta(_ context.Context, symbol string) (models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst := f.meta
	inst.Symbol = symbol
	return inst, nil
}

func (f *fakeGateway) placedOfType(t models.OrderType) []models.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderRequest
	for _, r := range f.placed {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
