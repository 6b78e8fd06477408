package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	binance "trade_guard/internal/modules/binance"
	"trade_guard/internal/modules/config"
	"trade_guard/internal/modules/guard"
	"trade_guard/internal/modules/health"
	"trade_guard/internal/modules/journal"
	"trade_guard/internal/modules/markstream"
	"trade_guard/internal/modules/postgres"
	"trade_guard/internal/notify"
	"trade_guard/internal/runner"
	"trade_guard/pkg/logger"
	"trade_guard/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		binance.Module(),
		postgres.Module(),
		journal.Module(),
		notify.Module(),
		markstream.Module(),
		guard.Module(),
		health.Module(),
		runner.Module(),
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config) {
				if cfg.Jaeger.Host == "" {
					return
				}
				_, closeTracer, err := tracing.InitTracer(tracing.Config{
					Host: cfg.Jaeger.Host,
					Port: cfg.Jaeger.Port,
				})
				if err != nil {
					logger.Error("tracing init: %v", err)
					return
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						closeTracer()
						return nil
					},
				})
			},
		),
	)
	app.Run()
}
