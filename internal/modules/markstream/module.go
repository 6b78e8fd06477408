package markstream

import (
	"go.uber.org/fx"

	"trade_guard/internal/modules/markstream/service"
)

func Module() fx.Option {
	return fx.Module("markstream",
		fx.Provide(
			service.NewClient,
		),
	)
}
