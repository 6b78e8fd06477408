package service

import (
	"context"
	"sync"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"
)

// MetaCache — точности символов, забираем с биржи один раз на символ.
// Это единственное, что движок кеширует: tickSize/stepSize не меняются
// в рамках жизни процесса, в отличие от позиций и ордеров.
type MetaCache struct {
	gw Gateway

	mu sync.RWMutex
	m  map[string]models.Instrument
}

func NewMetaCache(gw Gateway) *MetaCache {
	return &MetaCache{
		gw: gw,
		m:  make(map[string]models.Instrument),
	}
}

// Get возвращает метаданные символа; при недоступности exchangeInfo —
// консервативный фолбэк (0.01/0.001), чтобы не блокировать защитные стопы.
func (c *MetaCache) Get(ctx context.Context, symbol string) models.Instrument {
	c.mu.RLock()
	inst, ok := c.m[symbol]
	c.mu.RUnlock()
	if ok {
		return inst
	}

	inst, err := c.gw.InstrumentMeta(ctx, symbol)
	if err != nil {
		logger.Warn("meta: exchangeInfo for %s failed, using defaults: %v", symbol, err)
		return models.DefaultInstrument(symbol)
	}

	c.mu.Lock()
	c.m[symbol] = inst
	c.mu.Unlock()
	return inst
}
