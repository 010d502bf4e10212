package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

type ItemRequest struct {
	ProductID    string           `json:"product_id"`
	Quantity     int64            `json:"quantity"`
	UnitPriceUSD *decimal.Decimal `json:"unit_price_usd"`
}

type PaymentRequest struct {
	Method   string          `json:"method"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

type CreateRequest struct {
	Items    []ItemRequest    `json:"items"`
	Payments []PaymentRequest `json:"payments"`
	Notes    *string          `json:"notes"`
}

type ListRequest struct {
	pagination.Pagination

	From *time.Time
	To   *time.Time
}

type ItemResponse struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int64           `json:"quantity"`
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	LineTotalUSD decimal.Decimal `json:"line_total_usd"`
}

type PaymentResponse struct {
	Method    string          `json:"method"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
}

type Response struct {
	ID            string            `json:"id"`
	ReceiptNumber string            `json:"receipt_number"`
	Status        string            `json:"status"`
	SubtotalUSD   decimal.Decimal   `json:"subtotal_usd"`
	TotalUSD      decimal.Decimal   `json:"total_usd"`
	TotalVES      *decimal.Decimal  `json:"total_ves,omitempty"`
	ExchangeRate  *decimal.Decimal  `json:"exchange_rate,omitempty"`
	PaidUSD       decimal.Decimal   `json:"paid_usd"`
	ChangeUSD     decimal.Decimal   `json:"change_usd"`
	Notes         *string           `json:"notes,omitempty"`
	Items         []ItemResponse    `json:"items,omitempty"`
	Payments      []PaymentResponse `json:"payments,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrEmptySale            = errors.New("empty_sale")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidPrice         = errors.New("invalid_price")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidPaymentAmount = errors.New("invalid_payment_amount")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidRange         = errors.New("invalid_range")
	ErrProductNotFound      = errors.New("sale_product_not_found")
	ErrInactiveProduct      = errors.New("inactive_product")
	ErrInsufficientStock    = errors.New("insufficient_stock")
	ErrUnderpaid            = errors.New("underpaid")
	ErrRateUnavailable      = errors.New("exchange_rate_unavailable")
	ErrNotFound             = errors.New("sale_not_found")
)
