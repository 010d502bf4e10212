package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Name     string
	Category string
	Active   *bool
	LowStock bool
	SortBy   string
	OrderBy  string
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	UpdateSKU(ctx context.Context, db *gorm.DB, id int64, sku string, at time.Time) error
	AdjustStock(ctx context.Context, db *gorm.DB, id, delta int64, at time.Time) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Product, error)
	ExistsBySKU(ctx context.Context, db *gorm.DB, sku string) (bool, error)
	NextID(ctx context.Context, db *gorm.DB) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, offset, limit int) ([]Product, error)
}
