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
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetBySKU(ctx context.Context, sku string) (*Response, error)
	GetMany(ctx context.Context, ids []string) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	RegenerateSKU(ctx context.Context, id string) (*Response, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination

	Name     string
	Category string
	Active   *bool
	LowStock bool
	SortBy   string
	OrderBy  string
}

type CreateRequest struct {
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Category    string           `json:"category"`
	Brand       string           `json:"brand"`
	PriceUSD    decimal.Decimal  `json:"price_usd"`
	CostUSD     *decimal.Decimal `json:"cost_usd"`
	Stock       int64            `json:"stock"`
	MinStock    int64            `json:"min_stock"`
	Active      *bool            `json:"active"`
	Metadata    map[string]any   `json:"metadata"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	PriceUSD    *decimal.Decimal `json:"price_usd"`
	CostUSD     *decimal.Decimal `json:"cost_usd"`
	MinStock    *int64           `json:"min_stock"`
	Active      *bool            `json:"active"`
	Metadata    map[string]any   `json:"metadata"`
}

type AdjustStockRequest struct {
	ID    string `json:"-"`
	Delta int64  `json:"delta"`
}

type Response struct {
	ID          string           `json:"id"`
	SKU         string           `json:"sku"`
	ExtractedID string           `json:"extracted_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category"`
	Brand       string           `json:"brand"`
	PriceUSD    decimal.Decimal  `json:"price_usd"`
	PriceVES    *decimal.Decimal `json:"price_ves,omitempty"`
	CostUSD     decimal.Decimal  `json:"cost_usd"`
	Stock       int64            `json:"stock"`
	MinStock    int64            `json:"min_stock"`
	LowStock    bool             `json:"low_stock"`
	Active      bool             `json:"active"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidStock      = errors.New("invalid_stock")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidSKU        = errors.New("invalid_sku")
	ErrNotFound          = errors.New("product_not_found")
	ErrSKUConflict       = errors.New("sku_conflict")
	ErrSKUExhausted      = errors.New("sku_exhausted")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
