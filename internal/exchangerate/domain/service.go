package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Set(ctx context.Context, req SetRequest) (*Response, error)
	Current(ctx context.Context) (*Response, error)
	History(ctx context.Context, limit int) ([]Response, error)
	Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error)
}

type SetRequest struct {
	Rate        decimal.Decimal `json:"rate"`
	Source      string          `json:"source"`
	EffectiveAt *time.Time      `json:"effective_at"`
}

type ConvertRequest struct {
	Amount decimal.Decimal
	From   string
	To     string
}

type Response struct {
	ID          string          `json:"id"`
	Base        string          `json:"base"`
	Quote       string          `json:"quote"`
	Rate        decimal.Decimal `json:"rate"`
	Source      string          `json:"source"`
	EffectiveAt time.Time       `json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	Converted decimal.Decimal `json:"converted"`
}

// ToUSD converts amount in currency to USD at rate (VES per USD), 2 places.
func ToUSD(amount decimal.Decimal, currency string, rate decimal.Decimal) (decimal.Decimal, error) {
	switch currency {
	case CurrencyUSD:
		return amount.Round(2), nil
	case CurrencyVES:
		if !rate.IsPositive() {
			return decimal.Zero, ErrNotFound
		}
		return amount.DivRound(rate, 2), nil
	default:
		return decimal.Zero, ErrInvalidCurrency
	}
}

// FromUSD converts a USD amount into currency at rate, 2 places.
func FromUSD(amount decimal.Decimal, currency string, rate decimal.Decimal) (decimal.Decimal, error) {
	switch currency {
	case CurrencyUSD:
		return amount.Round(2), nil
	case CurrencyVES:
		if !rate.IsPositive() {
			return decimal.Zero, ErrNotFound
		}
		return amount.Mul(rate).Round(2), nil
	default:
		return decimal.Zero, ErrInvalidCurrency
	}
}

var (
	ErrInvalidRate     = errors.New("invalid_rate")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrNotFound        = errors.New("exchange_rate_not_found")
)
