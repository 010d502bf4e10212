package repository

import (
	"context"

	"github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, rate *domain.ExchangeRate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO exchange_rates (id, base, quote, rate, source, effective_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.Base,
		rate.Quote,
		rate.Rate,
		rate.Source,
		rate.EffectiveAt,
		rate.CreatedAt,
	).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, base, quote string) (*domain.ExchangeRate, error) {
	var items []domain.ExchangeRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, base, quote, rate, source, effective_at, created_at
		 FROM exchange_rates WHERE base = ? AND quote = ?
		 ORDER BY effective_at DESC, id DESC LIMIT 1`,
		base,
		quote,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, base, quote string, limit int) ([]domain.ExchangeRate, error) {
	var items []domain.ExchangeRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, base, quote, rate, source, effective_at, created_at
		 FROM exchange_rates WHERE base = ? AND quote = ?
		 ORDER BY effective_at DESC, id DESC LIMIT ?`,
		base,
		quote,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
