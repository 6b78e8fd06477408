package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"trade_guard/internal/models"
	binance "trade_guard/internal/modules/binance/service"
	guardsvc "trade_guard/internal/modules/guard/service"
	"trade_guard/pkg/logger"
)

const usage = `usage: ctl <command> [args]

commands:
  balance                      свободный USDT
  positions                    открытые позиции
  price <symbol>               последняя цена и марк-цена
  create <symbol> <LONG|SHORT> закрыть всё по символу и открыть брекет заново
  close <symbol>               закрыть позиции рынком
  cancel <symbol>              снять все открытые ордера
  ensure-sl <symbol>           выставить страховочный стоп
  trail <symbol>               один шаг трейлинга
  pnl                          реализованный PnL за сегодня (UTC)

env: BINANCE_API_KEY, BINANCE_SECRET_KEY, BINANCE_BASE_URL,
     LEVERAGE, TP_PCT, SL_PCT, STOP_LOSS_START_PCT, STOP_LOSS_CAP_PCT`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	viper.AutomaticEnv()
	viper.SetDefault("BINANCE_BASE_URL", "https://fapi.binance.com")
	viper.SetDefault("LEVERAGE", 20)
	viper.SetDefault("TP_PCT", 10.0)
	viper.SetDefault("SL_PCT", 5.0)
	viper.SetDefault("STOP_LOSS_START_PCT", 0.01)
	viper.SetDefault("STOP_LOSS_CAP_PCT", 15.0)

	client := binance.New(
		viper.GetString("BINANCE_API_KEY"),
		viper.GetString("BINANCE_SECRET_KEY"),
		viper.GetString("BINANCE_BASE_URL"),
	)

	meta := guardsvc.NewMetaCache(client)
	manager := guardsvc.NewOrderManager(client, meta, nil, nil, guardsvc.DefaultOrderManagerConfig())
	guard := guardsvc.NewStopLossGuard(client, meta, nil, nil)

	ladder, err := guardsvc.NewLadder([]models.TrailingLevel{
		{TriggerPct: 3, LockPct: 1.5},
		{TriggerPct: 5, LockPct: 3},
		{TriggerPct: 7, LockPct: 5},
	})
	if err != nil {
		fail(err)
	}
	trail := guardsvc.NewTrailingStopEngine(client, guard, ladder, meta, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "balance":
		balance, err := client.AvailableBalance(ctx, "USDT")
		if err != nil {
			fail(err)
		}
		fmt.Printf("available: %.4f USDT\n", balance)

	case "positions":
		positions, err := client.Positions(ctx, "")
		if err != nil {
			fail(err)
		}
		open := 0
		for _, p := range positions {
			if p.Flat() {
				continue
			}
			open++
			fmt.Printf("%s [%s] amt=%.4f entry=%.4f mark=%.4f lev=%dx\n",
				p.Symbol, p.Side(), p.Amt, p.EntryPrice, p.MarkPrice, p.Leverage)
		}
		if open == 0 {
			fmt.Println("no open positions")
		}

	case "price":
		symbol := arg(args, 0)
		last, err := client.SymbolPrice(ctx, symbol)
		if err != nil {
			fail(err)
		}
		mark, err := client.MarkPrice(ctx, symbol)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s last=%.6f mark=%.6f\n", symbol, last, mark)

	case "create":
		symbol, side := arg(args, 0), arg(args, 1)
		rep := manager.CreateOrder(ctx, symbol, side,
			viper.GetFloat64("TP_PCT"),
			viper.GetFloat64("SL_PCT"),
			viper.GetInt("LEVERAGE"),
		)
		if rep.Outcome != guardsvc.CreateOK {
			fail(rep.Err)
		}
		fmt.Printf("created %s qty=%.6f entry=%.6f tp=%.6f sl=%.6f\n",
			symbol, rep.Quantity, rep.EntryPrice, rep.TakeProfit, rep.StopLoss)

	case "close":
		symbol := arg(args, 0)
		if err := manager.CloseAllPositions(ctx, symbol); err != nil {
			fail(err)
		}
		fmt.Printf("closed %s\n", symbol)

	case "cancel":
		symbol := arg(args, 0)
		if err := manager.CancelAllOpenOrders(ctx, symbol); err != nil {
			fail(err)
		}
		fmt.Printf("canceled all open orders on %s\n", symbol)

	case "ensure-sl":
		symbol := arg(args, 0)
		rep := guard.EnsureStopLoss(ctx, symbol, guardsvc.StopLossParams{
			StartPct: viper.GetFloat64("STOP_LOSS_START_PCT"),
			CapPct:   viper.GetFloat64("STOP_LOSS_CAP_PCT"),
			Leverage: viper.GetInt("LEVERAGE"),
		})
		fmt.Printf("%s: outcome=%d attempts=%d stop=%.6f\n",
			symbol, rep.Outcome, rep.Attempts, rep.StopPrice)
		if rep.Err != nil {
			fail(rep.Err)
		}

	case "trail":
		symbol := arg(args, 0)
		rep := trail.UpdateTrailingStop(ctx, symbol)
		fmt.Printf("%s: outcome=%d profit=%.2f%% stop %.6f -> %.6f\n",
			symbol, rep.Outcome, rep.ProfitPct, rep.OldStop, rep.NewStop)
		if rep.Err != nil {
			fail(rep.Err)
		}

	case "pnl":
		total, entries, err := manager.DailyPnl(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("today: %.4f USDT over %d entries\n", total, len(entries))

	default:
		fmt.Println(usage)
		os.Exit(2)
	}
}

func arg(args []string, i int) string {
	if i >= len(args) {
		fmt.Println(usage)
		os.Exit(2)
	}
	return args[i]
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
