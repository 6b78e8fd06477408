package service

import (
	"context"
	"math"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/models"
	"trade_guard/internal/pricemath"
	"trade_guard/pkg/logger"
)

// Оставляем 5% баланса как буфер против insufficient margin.
const usableBalanceFrac = 0.95

const marginAsset = "USDT"

// ErrSettleTimeout — биржа не отразила отмену/закрытие за отведённое время.
var ErrSettleTimeout = errors.New("settle: open orders/positions did not clear in time")

type OrderManagerConfig struct {
	SettleTimeout  time.Duration
	SettleInterval time.Duration
}

func DefaultOrderManagerConfig() OrderManagerConfig {
	return OrderManagerConfig{
		SettleTimeout:  10 * time.Second,
		SettleInterval: 500 * time.Millisecond,
	}
}

// OrderManager заменяет всю экспозицию по символу свежей бракетированной
// позицией: вход + take-profit + stop-loss. Ничего не хранит между вызовами.
type OrderManager struct {
	gw      Gateway
	meta    *MetaCache
	journal Journal
	n       Notifier
	cfg     OrderManagerConfig
}

func NewOrderManager(gw Gateway, meta *MetaCache, journal Journal, n Notifier, cfg OrderManagerConfig) *OrderManager {
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultOrderManagerConfig().SettleTimeout
	}
	if cfg.SettleInterval <= 0 {
		cfg.SettleInterval = DefaultOrderManagerConfig().SettleInterval
	}
	return &OrderManager{gw: gw, meta: meta, journal: journal, n: n, cfg: cfg}
}

type CreateOutcome int

const (
	CreateOK CreateOutcome = iota
	CreateInvalidArgument
	CreateSettleTimeout
	CreateFailed
)

// CreateReport — типизированный результат вместо «проглотили и залогировали».
// CreateOrder по-прежнему никогда не паникует и не возвращает error.
type CreateReport struct {
	Outcome    CreateOutcome
	Kind       FailureKind
	Symbol     string
	Quantity   float64
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Entry      models.Order
	TP         models.Order
	SL         models.Order
	Err        error
}

// CreateOrder — полный цикл: снять ордера -> закрыть позиции -> дождаться,
// пока биржа это отразит -> посчитать размер/цены -> LIMIT + TP + SL.
func (m *OrderManager) CreateOrder(
	ctx context.Context,
	symbol string,
	positionType string,
	tpPct float64,
	slPct float64,
	leverage int,
) CreateReport {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guard.create_order")
	defer span.Finish()
	span.SetTag("symbol", symbol)

	rep := CreateReport{Symbol: symbol}

	// 1-2. Чистим прошлое состояние. Ошибки не прерывают поток — логируем.
	if err := m.CancelAllOpenOrders(ctx, symbol); err != nil {
		logger.Warn("create_order %s: cancel open orders: %v", symbol, err)
	}
	if err := m.CloseAllPositions(ctx, symbol); err != nil {
		logger.Warn("create_order %s: close positions: %v", symbol, err)
	}

	// 3. Ждём, пока отмена/закрытие станут видны на чтении.
	if err := m.waitSettled(ctx, symbol); err != nil {
		logger.Error("create_order %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = CreateSettleTimeout, UnexpectedError, err
		return rep
	}

	// 4. Валидация типа позиции.
	side, err := models.ParsePositionSide(positionType)
	if err != nil {
		err = errors.Wrap(errInvalidArgument, err.Error())
		logger.Error("create_order %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = CreateInvalidArgument, InvalidArgument, err
		return rep
	}

	// 5. Доступный баланс с буфером.
	balance, err := m.gw.AvailableBalance(ctx, marginAsset)
	if err != nil {
		return m.fail(rep, symbol, "available balance", err)
	}
	usable := balance * usableBalanceFrac
	logger.Info("create_order %s: usable %s balance %.4f", symbol, marginAsset, usable)

	// 6. Плечо.
	if err := m.gw.SetLeverage(ctx, symbol, leverage); err != nil {
		return m.fail(rep, symbol, "set leverage", err)
	}

	// 7. Размер по текущей цене и шагу лота.
	price, err := m.gw.SymbolPrice(ctx, symbol)
	if err != nil {
		return m.fail(rep, symbol, "symbol price", err)
	}
	inst := m.meta.Get(ctx, symbol)

	entryPrice := pricemath.RoundDownToTick(price, inst.TickSize)
	quantity := pricemath.FloorToStep(usable*float64(leverage)/price, inst.StepSize)
	if quantity <= 0 || quantity < inst.MinQty {
		return m.fail(rep, symbol, "quantity",
			errors.Errorf("quantity %.8f below min lot %.8f", quantity, inst.MinQty))
	}
	logger.Info("create_order %s: quantity %.6f at %.6f", symbol, quantity, entryPrice)

	// 8. TP/SL от цены входа.
	tp, sl, err := pricemath.TpSl(entryPrice, tpPct, slPct, side, leverage)
	if err != nil {
		logger.Error("create_order %s: %v", symbol, err)
		rep.Outcome, rep.Kind, rep.Err = CreateInvalidArgument, InvalidArgument, err
		return rep
	}
	tp = pricemath.RoundDownToTick(tp, inst.TickSize)
	sl = pricemath.RoundDownToTick(sl, inst.TickSize)
	logger.Info("create_order %s: tp %.6f sl %.6f", symbol, tp, sl)

	rep.Quantity, rep.EntryPrice, rep.TakeProfit, rep.StopLoss = quantity, entryPrice, tp, sl

	// 9. Вход лимиткой, затем reduce-only TP и SL на противоположной стороне.
	entry, err := m.gw.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        side.OpenSide(),
		Type:        models.OrderLimit,
		Quantity:    quantity,
		Price:       entryPrice,
		TimeInForce: models.TimeInForceGTC,
	})
	if err != nil {
		return m.fail(rep, symbol, "entry order", err)
	}
	logger.Info("create_order %s: entry placed id=%d", symbol, entry.OrderID)

	tpOrder, err := m.gw.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        side.CloseSide(),
		Type:        models.OrderTakeProfitMarket,
		Quantity:    quantity,
		StopPrice:   tp,
		ReduceOnly:  true,
		TimeInForce: models.TimeInForceGTC,
	})
	if err != nil {
		return m.fail(rep, symbol, "take profit order", err)
	}
	logger.Info("create_order %s: take profit placed id=%d", symbol, tpOrder.OrderID)

	slOrder, err := m.gw.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        side.CloseSide(),
		Type:        models.OrderStopMarket,
		Quantity:    quantity,
		StopPrice:   sl,
		ReduceOnly:  true,
		TimeInForce: models.TimeInForceGTC,
	})
	if err != nil {
		return m.fail(rep, symbol, "stop loss order", err)
	}
	logger.Info("create_order %s: stop loss placed id=%d", symbol, slOrder.OrderID)

	rep.Outcome = CreateOK
	rep.Entry, rep.TP, rep.SL = entry, tpOrder, slOrder

	m.record(ctx, symbol, models.EventOrderCreated, rep)
	m.notifyf("📈 [%s] %s x%d qty=%.6f @ %.6f | TP %.6f / SL %.6f",
		symbol, side, leverage, quantity, entryPrice, tp, sl)
	return rep
}

// CloseAllPositions закрывает рынком всё по символу. Один проход, без
// повторной проверки после закрытия.
func (m *OrderManager) CloseAllPositions(ctx context.Context, symbol string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guard.close_all_positions")
	defer span.Finish()

	positions, err := m.gw.Positions(ctx, symbol)
	if err != nil {
		return errors.Wrapf(err, "close_all_positions %s: positions", symbol)
	}

	var lastErr error
	for _, p := range positions {
		if p.Symbol != symbol || p.Flat() {
			continue
		}

		side := p.Side().CloseSide()
		logger.Info("close_all_positions %s: closing %s amount %.6f", symbol, p.Side(), p.Amt)

		_, err := m.gw.PlaceOrder(ctx, models.OrderRequest{
			Symbol:   symbol,
			Side:     side,
			Type:     models.OrderMarket,
			Quantity: math.Abs(p.Amt),
		})
		if err != nil {
			// различаем биржевые и неожиданные ошибки только в детализации лога
			if apiErr, ok := binance.IsAPIError(err); ok {
				logger.Error("close_all_positions %s: exchange error code=%d: %v", symbol, apiErr.Code, err)
			} else {
				logger.Error("close_all_positions %s: unexpected error: %v", symbol, err)
			}
			lastErr = err
			continue
		}
		logger.Info("close_all_positions %s: closed %s", symbol, p.Side())
	}
	return lastErr
}

// CancelAllOpenOrders — прямая делегация бирже.
func (m *OrderManager) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	if err := m.gw.CancelAllOrders(ctx, symbol); err != nil {
		logger.Error("cancel_all_open_orders %s: %v", symbol, err)
		return err
	}
	logger.Info("cancel_all_open_orders %s: done", symbol)
	return nil
}

// waitSettled — ограниченный поллинг вместо фиксированного sleep: ждём,
// пока биржа не покажет ноль открытых ордеров и плоскую позицию.
func (m *OrderManager) waitSettled(ctx context.Context, symbol string) error {
	deadline := time.Now().Add(m.cfg.SettleTimeout)

	for {
		settled, err := m.isSettled(ctx, symbol)
		if err == nil && settled {
			return nil
		}
		if err != nil {
			logger.Warn("settle %s: check failed: %v", symbol, err)
		}

		if time.Now().After(deadline) {
			return errors.Wrapf(ErrSettleTimeout, "symbol %s after %s", symbol, m.cfg.SettleTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.SettleInterval):
		}
	}
}

func (m *OrderManager) isSettled(ctx context.Context, symbol string) (bool, error) {
	open, err := m.gw.OpenOrders(ctx, symbol)
	if err != nil {
		return false, err
	}
	if len(open) > 0 {
		return false, nil
	}

	positions, err := m.gw.Positions(ctx, symbol)
	if err != nil {
		return false, err
	}
	for _, p := range positions {
		if p.Symbol == symbol && !p.Flat() {
			return false, nil
		}
	}
	return true, nil
}

func (m *OrderManager) fail(rep CreateReport, symbol, stage string, err error) CreateReport {
	err = errors.Wrapf(err, "create_order %s: %s", symbol, stage)
	kind := Classify(err)
	logger.Error("%v (kind=%s)", err, kind)
	rep.Outcome, rep.Kind, rep.Err = CreateFailed, kind, err
	return rep
}

func (m *OrderManager) record(ctx context.Context, symbol, kind string, payload any) {
	if m.journal == nil {
		return
	}
	recordEvent(ctx, m.journal, symbol, kind, payload)
}

func (m *OrderManager) notifyf(format string, args ...any) {
	if m.n == nil {
		return
	}
	m.n.Sendf(format, args...)
}
