package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Код -2021: "Order would immediately trigger." — транзиентный реджект,
// по которому StopLossGuard эскалирует дистанцию стопа.
const codeImmediateTrigger = -2021

// APIError — ошибка уровня API биржи (code/msg из тела ответа).
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error: code=%d msg=%s", e.Code, e.Msg)
}

func parseAPIError(body []byte) *APIError {
	var e APIError
	if err := json.Unmarshal(body, &e); err != nil {
		return nil
	}
	if e.Code == 0 && e.Msg == "" {
		return nil
	}
	return &e
}

// IsAPIError достаёт *APIError из цепочки обёрток.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsImmediateTrigger — реджект «стоп сработал бы сразу».
func IsImmediateTrigger(err error) bool {
	apiErr, ok := IsAPIError(err)
	if !ok {
		return false
	}
	if apiErr.Code == codeImmediateTrigger {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Msg), "would immediately trigger")
}
