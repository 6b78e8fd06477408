package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Exchange — минимум биржи, нужный для команд бота.
type Exchange interface {
	Positions(ctx context.Context, symbol string) ([]models.Position, error)
	AvailableBalance(ctx context.Context, asset string) (float64, error)
	IncomeHistory(ctx context.Context, incomeType string, start, end time.Time) ([]models.IncomeEntry, error)
}

// Telegram — пассивный нотифайер + несколько read-only команд.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	ex     Exchange
}

func NewTelegram(token string, chatID int64, ex Exchange) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		ex:     ex,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /positions — открытые позиции на бирже
func (t *Telegram) handlePositions(ctx context.Context) {
	positions, err := t.ex.Positions(ctx, "")
	if err != nil {
		t.Sendf("❗️ Ошибка получения позиций: %v", err)
		return
	}

	var b strings.Builder
	open := 0
	b.WriteString("📊 Открытые позиции:\n")
	for _, p := range positions {
		if p.Flat() {
			continue
		}
		open++
		fmt.Fprintf(&b, "- %s [%s] amt=%.4f @ %.4f mark=%.4f lev=%dx\n",
			p.Symbol, p.Side(), p.Amt, p.EntryPrice, p.MarkPrice, p.Leverage)
	}
	if open == 0 {
		t.Send("📭 Открытых позиций нет")
		return
	}
	t.Send(b.String())
}

// /balance — свободный USDT
func (t *Telegram) handleBalance(ctx context.Context) {
	balance, err := t.ex.AvailableBalance(ctx, "USDT")
	if err != nil {
		t.Sendf("❗️ Ошибка получения баланса: %v", err)
		return
	}
	t.Sendf("💰 Доступно: %.4f USDT", balance)
}

// /pnl — реализованный PnL с начала суток (UTC)
func (t *Telegram) handlePnl(ctx context.Context) {
	end := time.Now().UTC()
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	entries, err := t.ex.IncomeHistory(ctx, "REALIZED_PNL", start, end)
	if err != nil {
		t.Sendf("❗️ Ошибка получения PnL: %v", err)
		return
	}

	var total float64
	for _, e := range entries {
		total += e.Income
	}
	t.Sendf("🧾 PnL за сегодня: %.4f USDT (%d сделок)", total, len(entries))
}

// Start: long-polling только для команд из нашего чата.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}

				switch upd.Message.Command() {
				case "positions":
					go t.handlePositions(ctx)
				case "balance":
					go t.handleBalance(ctx)
				case "pnl":
					go t.handlePnl(ctx)
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка, всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("%s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { logger.Info(format, args...) }
