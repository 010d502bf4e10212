package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CurrencyUSD = "USD"
	CurrencyVES = "VES"
)

type ExchangeRate struct {
	ID          int64           `gorm:"primaryKey"`
	Base        string          `gorm:"type:text;not null"`
	Quote       string          `gorm:"type:text;not null"`
	Rate        decimal.Decimal `gorm:"not null"`
	Source      string          `gorm:"type:text;not null"`
	EffectiveAt time.Time       `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (ExchangeRate) TableName() string { return "exchange_rates" }
