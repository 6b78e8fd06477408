package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trade_guard/internal/modules/config"
)

const recvWindowMs = "5000"

// Client — REST-клиент Binance USDT-M futures.
// Один хендл на процесс, передаётся явно (никаких глобальных сессий).
type Client struct {
	http      *http.Client
	apiKey    string
	secretKey string
	baseURL   string
}

func New(apiKey, secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://fapi.binance.com"
	}
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   baseURL,
	}
}

func NewClient(cfg *config.Config) *Client {
	return New(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Binance.BaseURL)
}

// sign — HMAC-SHA256 hex от query string (механика подписи fapi).
func (c *Client) sign(query string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// signedRequest добавляет timestamp/recvWindow/signature и выполняет запрос.
func (c *Client) signedRequest(
	ctx context.Context,
	method string,
	requestPath string,
	params url.Values,
) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", recvWindowMs)

	query := params.Encode()
	query += "&signature=" + c.sign(query)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s new request: %w", method, requestPath, err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	return c.do(req, requestPath)
}

// publicRequest — для открытых эндпоинтов (тикер, exchangeInfo), без подписи.
func (c *Client) publicRequest(
	ctx context.Context,
	requestPath string,
	params url.Values,
) ([]byte, error) {
	u := c.baseURL + requestPath
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("GET %s new request: %w", requestPath, err)
	}
	return c.do(req, requestPath)
}

func (c *Client) do(req *http.Request, requestPath string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s do: %w", requestPath, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		// биржа кладёт {"code":...,"msg":"..."} в тело даже при 4xx
		if apiErr := parseAPIError(data); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("%s http %d: %s", requestPath, resp.StatusCode, string(data))
	}
	return data, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
