package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const StatusCompleted = "completed"

type Sale struct {
	ID            int64               `gorm:"primaryKey"`
	ReceiptNumber string              `gorm:"column:receipt_number;type:text;not null;uniqueIndex:ux_sales_receipt"`
	Status        string              `gorm:"type:text;not null"`
	SubtotalUSD   decimal.Decimal     `gorm:"column:subtotal_usd;not null"`
	TotalUSD      decimal.Decimal     `gorm:"column:total_usd;not null"`
	TotalVES      decimal.NullDecimal `gorm:"column:total_ves"`
	ExchangeRate  decimal.NullDecimal `gorm:"column:exchange_rate"`
	PaidUSD       decimal.Decimal     `gorm:"column:paid_usd;not null"`
	ChangeUSD     decimal.Decimal     `gorm:"column:change_usd;not null"`
	Notes         *string             `gorm:"type:text"`
	CreatedAt     time.Time           `gorm:"not null"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem snapshots the product at the time of sale.
type SaleItem struct {
	ID           int64           `gorm:"primaryKey"`
	SaleID       int64           `gorm:"not null;index"`
	ProductID    int64           `gorm:"not null"`
	SKU          string          `gorm:"column:sku;type:text;not null"`
	Name         string          `gorm:"type:text;not null"`
	Quantity     int64           `gorm:"not null"`
	UnitPriceUSD decimal.Decimal `gorm:"column:unit_price_usd;not null"`
	LineTotalUSD decimal.Decimal `gorm:"column:line_total_usd;not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

func (SaleItem) TableName() string { return "sale_items" }

type SalePayment struct {
	ID        int64           `gorm:"primaryKey"`
	SaleID    int64           `gorm:"not null;index"`
	Method    string          `gorm:"type:text;not null"`
	Currency  string          `gorm:"type:text;not null"`
	Amount    decimal.Decimal `gorm:"not null"`
	AmountUSD decimal.Decimal `gorm:"column:amount_usd;not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

func (SalePayment) TableName() string { return "sale_payments" }

const (
	MethodCashUSD       = "cash_usd"
	MethodCashVES       = "cash_ves"
	MethodCard          = "card"
	MethodTransfer      = "transfer"
	MethodMobilePayment = "mobile_payment"
)

var paymentCurrencies = map[string][]string{
	MethodCashUSD:       {"USD"},
	MethodCashVES:       {"VES"},
	MethodCard:          {"USD", "VES"},
	MethodTransfer:      {"USD", "VES"},
	MethodMobilePayment: {"VES"},
}

// AcceptsCurrency reports whether method can settle in currency.
// Unknown methods accept nothing.
func AcceptsCurrency(method, currency string) bool {
	for _, c := range paymentCurrencies[method] {
		if c == currency {
			return true
		}
	}
	return false
}

// ValidMethod reports whether method is a known payment method.
func ValidMethod(method string) bool {
	_, ok := paymentCurrencies[method]
	return ok
}
