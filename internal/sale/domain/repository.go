package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	From *time.Time
	To   *time.Time
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, sale *Sale) error
	CreateItems(ctx context.Context, db *gorm.DB, items []SaleItem) error
	CreatePayments(ctx context.Context, db *gorm.DB, payments []SalePayment) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Sale, error)
	FindItems(ctx context.Context, db *gorm.DB, saleID int64) ([]SaleItem, error)
	FindPayments(ctx context.Context, db *gorm.DB, saleID int64) ([]SalePayment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, offset, limit int) ([]Sale, error)
}
