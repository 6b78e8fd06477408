package binance

import (
	"trade_guard/internal/modules/binance/service"

	"go.uber.org/fx"
)

// Module поднимает REST-клиент биржи.
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
