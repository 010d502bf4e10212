package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, rate *ExchangeRate) error
	Latest(ctx context.Context, db *gorm.DB, base, quote string) (*ExchangeRate, error)
	List(ctx context.Context, db *gorm.DB, base, quote string, limit int) ([]ExchangeRate, error)
}
