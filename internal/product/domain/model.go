package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          int64             `json:"id" gorm:"primaryKey"`
	SKU         string            `json:"sku" gorm:"column:sku;type:text;not null;uniqueIndex:ux_products_sku"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description *string           `json:"description,omitempty" gorm:"type:text"`
	Category    string            `json:"category" gorm:"type:text;not null;default:''"`
	Brand       string            `json:"brand" gorm:"type:text;not null;default:''"`
	PriceUSD    decimal.Decimal   `json:"price_usd" gorm:"column:price_usd;not null"`
	CostUSD     decimal.Decimal   `json:"cost_usd" gorm:"column:cost_usd;not null"`
	Stock       int64             `json:"stock" gorm:"not null;default:0"`
	MinStock    int64             `json:"min_stock" gorm:"not null;default:0"`
	Active      bool              `json:"active" gorm:"not null;default:true"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// LowStock reports whether stock has reached the reorder threshold.
func (p *Product) LowStock() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}
