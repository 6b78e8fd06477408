package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"trade_guard/internal/models"
)

// recordEvent сериализует полезную нагрузку и пишет факт в журнал.
func recordEvent(ctx context.Context, j Journal, symbol, kind string, payload any) {
	detail, err := sonic.MarshalString(payload)
	if err != nil {
		detail = fmt.Sprintf("%+v", payload)
	}
	j.Record(ctx, models.GuardEvent{
		At:     time.Now().UTC(),
		Symbol: symbol,
		Kind:   kind,
		Detail: detail,
	})
}
