package repository

import (
	"context"

	"github.com/smallbiznis/motopos/internal/sale/domain"
	"gorm.io/gorm"
)

const saleColumns = `id, receipt_number, status, subtotal_usd, total_usd, total_ves,
	exchange_rate, paid_usd, change_usd, notes, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sales (`+saleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID,
		sale.ReceiptNumber,
		sale.Status,
		sale.SubtotalUSD,
		sale.TotalUSD,
		sale.TotalVES,
		sale.ExchangeRate,
		sale.PaidUSD,
		sale.ChangeUSD,
		sale.Notes,
		sale.CreatedAt,
	).Error
}

func (r *repo) CreateItems(ctx context.Context, db *gorm.DB, items []domain.SaleItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO sale_items (id, sale_id, product_id, sku, name, quantity, unit_price_usd, line_total_usd, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.SaleID,
			item.ProductID,
			item.SKU,
			item.Name,
			item.Quantity,
			item.UnitPriceUSD,
			item.LineTotalUSD,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) CreatePayments(ctx context.Context, db *gorm.DB, payments []domain.SalePayment) error {
	for _, payment := range payments {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO sale_payments (id, sale_id, method, currency, amount, amount_usd, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			payment.ID,
			payment.SaleID,
			payment.Method,
			payment.Currency,
			payment.Amount,
			payment.AmountUSD,
			payment.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := db.WithContext(ctx).Raw(
		`SELECT `+saleColumns+` FROM sales WHERE id = ?`,
		id,
	).Scan(&sale).Error
	if err != nil {
		return nil, err
	}
	if sale.ID == 0 {
		return nil, nil
	}
	return &sale, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, saleID int64) ([]domain.SaleItem, error) {
	var items []domain.SaleItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, sale_id, product_id, sku, name, quantity, unit_price_usd, line_total_usd, created_at
		 FROM sale_items WHERE sale_id = ? ORDER BY id ASC`,
		saleID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindPayments(ctx context.Context, db *gorm.DB, saleID int64) ([]domain.SalePayment, error) {
	var payments []domain.SalePayment
	err := db.WithContext(ctx).Raw(
		`SELECT id, sale_id, method, currency, amount, amount_usd, created_at
		 FROM sale_payments WHERE sale_id = ? ORDER BY id ASC`,
		saleID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// List returns sales newest first within the optional [From, To) window.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, offset, limit int) ([]domain.Sale, error) {
	var items []domain.Sale
	stmt := db.WithContext(ctx).Model(&domain.Sale{})
	if filter.From != nil {
		stmt = stmt.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("created_at < ?", *filter.To)
	}

	err := stmt.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
