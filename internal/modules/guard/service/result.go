package service

import (
	"github.com/pkg/errors"

	binance "trade_guard/internal/modules/binance/service"
	"trade_guard/internal/pricemath"
)

// FailureKind — таксономия ошибок движка.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// InvalidArgument — кривой ввод: неизвестный тип позиции, плечо <= 0.
	InvalidArgument
	// TransientRejection — биржа ответила «стоп сработал бы сразу», ретраится эскалацией.
	TransientRejection
	// ExchangeError — прочие ошибки уровня API, здесь не ретраятся.
	ExchangeError
	// UnexpectedError — всё остальное (сеть, декодинг, паника логики).
	UnexpectedError
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case InvalidArgument:
		return "invalid_argument"
	case TransientRejection:
		return "transient_rejection"
	case ExchangeError:
		return "exchange_error"
	default:
		return "unexpected_error"
	}
}

var errInvalidArgument = errors.New("invalid argument")

// Classify раскладывает ошибку по таксономии.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, errInvalidArgument), errors.Is(err, pricemath.ErrLeverage):
		return InvalidArgument
	case binance.IsImmediateTrigger(err):
		return TransientRejection
	default:
		if _, ok := binance.IsAPIError(err); ok {
			return ExchangeError
		}
		return UnexpectedError
	}
}
