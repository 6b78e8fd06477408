package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"trade_guard/internal/models"
	"trade_guard/internal/modules/config"
	healthsvc "trade_guard/internal/modules/health/service"
	"trade_guard/pkg/logger"
)

// Client стримит марк-цены фьючерсов одним комбинированным websocket
// на весь watchlist. Переподключается сам, канал закрывает только по ctx.
type Client struct {
	streamURL string
	wsDialer  *websocket.Dialer
	state     *healthsvc.State
}

func NewClient(cfg *config.Config, state *healthsvc.State) *Client {
	return &Client{
		streamURL: cfg.Binance.StreamURL,
		wsDialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:     state,
	}
}

// markPriceUpdate: {"stream":"btcusdt@markPrice@1s","data":{"s":"BTCUSDT","p":"11794.15",...}}
type combinedFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string `json:"e"`
		EventTime int64  `json:"E"`
		Symbol    string `json:"s"`
		MarkPrice string `json:"p"`
	} `json:"data"`
}

// Stream — один websocket с пачкой символов в пути.
func (c *Client) Stream(ctx context.Context, symbols []string) <-chan models.MarkTick {
	ch := make(chan models.MarkTick)

	go func() {
		defer close(ch)

		if len(symbols) == 0 {
			logger.Warn("markstream: empty watchlist, stream not started")
			return
		}

		streams := make([]string, 0, len(symbols))
		for _, s := range symbols {
			streams = append(streams, strings.ToLower(s)+"@markPrice@1s")
		}
		url := c.streamURL + "/stream?streams=" + strings.Join(streams, "/")

		for {
			logger.Info("markstream: connect %d symbols", len(symbols))
			conn, _, err := c.wsDialer.DialContext(ctx, url, nil)
			if err != nil {
				logger.Error("markstream: dial: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			c.setConnected(true)

			// основной read-loop
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					logger.Error("markstream: read: %v", err)
					_ = conn.Close()
					c.setConnected(false)
					break
				}

				var frame combinedFrame
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.Data.EventType != "markPriceUpdate" || frame.Data.Symbol == "" {
					continue
				}

				mark, err := strconv.ParseFloat(frame.Data.MarkPrice, 64)
				if err != nil || mark <= 0 {
					continue
				}

				tick := models.MarkTick{
					Symbol:    frame.Data.Symbol,
					MarkPrice: mark,
					At:        time.UnixMilli(frame.Data.EventTime),
				}

				select {
				case ch <- tick:
				case <-ctx.Done():
					_ = conn.Close()
					c.setConnected(false)
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			default:
				time.Sleep(time.Second)
			}
		}
	}()

	return ch
}

func (c *Client) setConnected(v bool) {
	if c.state != nil {
		c.state.SetStreamConnected(v)
	}
}
