package guard

import (
	"go.uber.org/fx"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/models"
	"trade_guard/internal/modules/config"
	"trade_guard/internal/modules/guard/service"
)

// Module собирает движок: метаданные символов, менеджер ордеров,
// страховочный стоп и трейлинг.
func Module() fx.Option {
	return fx.Module("guard",
		fx.Provide(
			// *binance.Client -> service.Gateway
			func(c *binance.Client) service.Gateway {
				return c
			},
			service.NewMetaCache,
			func(cfg *config.Config) (service.Ladder, error) {
				levels := make([]models.TrailingLevel, 0, len(cfg.TrailingLevels))
				for _, l := range cfg.TrailingLevels {
					levels = append(levels, models.TrailingLevel{
						TriggerPct: l.TriggerPct,
						LockPct:    l.LockPct,
					})
				}
				return service.NewLadder(levels)
			},
			func(gw service.Gateway, meta *service.MetaCache, j service.Journal, n service.Notifier, cfg *config.Config) *service.OrderManager {
				return service.NewOrderManager(gw, meta, j, n, service.OrderManagerConfig{
					SettleTimeout:  cfg.SettleTimeout,
					SettleInterval: cfg.SettleInterval,
				})
			},
			service.NewStopLossGuard,
			service.NewTrailingStopEngine,
		),
	)
}
