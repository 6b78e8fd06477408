package notify

import (
	"context"

	"go.uber.org/fx"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/modules/config"
	guard "trade_guard/internal/modules/guard/service"
	"trade_guard/pkg/logger"
)

// Module выбирает нотифайер: если TELEGRAM_* нет — используем лог.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config, c *binance.Client) Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, c); err == nil {
						return tg
					}
					logger.Error("notify: telegram init failed, falling back to log")
				}
				return NewStdout()
			},
			// Notifier -> guard.Notifier
			func(n Notifier) guard.Notifier {
				return n
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, n Notifier, ctx context.Context) {
				tg, ok := n.(*Telegram)
				if !ok {
					return
				}
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						return tg.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						tg.Stop()
						return nil
					},
				})
			},
		),
	)
}
