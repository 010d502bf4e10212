package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/internal/clock"
	exchangerate "github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"github.com/smallbiznis/motopos/internal/observability/metrics"
	product "github.com/smallbiznis/motopos/internal/product/domain"
	"github.com/smallbiznis/motopos/internal/sale/domain"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Products product.Repository
	Rates    exchangerate.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products product.Repository
	rates    exchangerate.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("sale.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		rates:    p.Rates,
		metrics:  p.Metrics,
	}
}

type line struct {
	productID int64
	quantity  int64
	override  *decimal.Decimal
}

type tender struct {
	method    string
	currency  string
	amount    decimal.Decimal
	amountUSD decimal.Decimal
}

// Create commits the sale and its stock decrements in one transaction.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	lines, err := parseLines(req.Items)
	if err != nil {
		return nil, err
	}
	tenders, err := parseTenders(req.Payments)
	if err != nil {
		return nil, err
	}

	rate, err := s.currentRate(ctx)
	if err != nil {
		return nil, err
	}
	paid := decimal.Zero
	for i, t := range tenders {
		if t.currency == exchangerate.CurrencyVES && !rate.Valid {
			return nil, domain.ErrRateUnavailable
		}
		usd, err := exchangerate.ToUSD(t.amount, t.currency, rate.Decimal)
		if err != nil {
			return nil, err
		}
		tenders[i].amountUSD = usd
		paid = paid.Add(usd)
	}

	now := s.clock.Now()
	sale := &domain.Sale{
		ID:            s.genID.Generate().Int64(),
		ReceiptNumber: ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Status:        domain.StatusCompleted,
		ExchangeRate:  rate,
		PaidUSD:       paid,
		Notes:         trimmedPtr(req.Notes),
		CreatedAt:     now,
	}

	var items []domain.SaleItem
	var payments []domain.SalePayment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		items = make([]domain.SaleItem, 0, len(lines))
		for _, l := range lines {
			p, err := s.products.FindByID(ctx, tx, l.productID)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("product %d: %w", l.productID, domain.ErrProductNotFound)
			}
			if !p.Active {
				return fmt.Errorf("product %d: %w", p.ID, domain.ErrInactiveProduct)
			}

			ok, err := s.products.AdjustStock(ctx, tx, p.ID, -l.quantity, now)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("product %d: %w", p.ID, domain.ErrInsufficientStock)
			}

			unit := p.PriceUSD
			if l.override != nil {
				unit = l.override.Round(2)
			}
			lineTotal := unit.Mul(decimal.NewFromInt(l.quantity)).Round(2)
			subtotal = subtotal.Add(lineTotal)

			items = append(items, domain.SaleItem{
				ID:           s.genID.Generate().Int64(),
				SaleID:       sale.ID,
				ProductID:    p.ID,
				SKU:          p.SKU,
				Name:         p.Name,
				Quantity:     l.quantity,
				UnitPriceUSD: unit,
				LineTotalUSD: lineTotal,
				CreatedAt:    now,
			})
		}

		sale.SubtotalUSD = subtotal
		sale.TotalUSD = subtotal
		if rate.Valid {
			sale.TotalVES = decimal.NewNullDecimal(subtotal.Mul(rate.Decimal).Round(2))
		}
		if sale.PaidUSD.LessThan(sale.TotalUSD) {
			return fmt.Errorf("paid %s of %s: %w", sale.PaidUSD.StringFixed(2), sale.TotalUSD.StringFixed(2), domain.ErrUnderpaid)
		}
		sale.ChangeUSD = sale.PaidUSD.Sub(sale.TotalUSD)

		if err := s.repo.Create(ctx, tx, sale); err != nil {
			return err
		}
		if err := s.repo.CreateItems(ctx, tx, items); err != nil {
			return err
		}

		payments = make([]domain.SalePayment, 0, len(tenders))
		for _, t := range tenders {
			payments = append(payments, domain.SalePayment{
				ID:        s.genID.Generate().Int64(),
				SaleID:    sale.ID,
				Method:    t.method,
				Currency:  t.currency,
				Amount:    t.amount,
				AmountUSD: t.amountUSD,
				CreatedAt: now,
			})
		}
		return s.repo.CreatePayments(ctx, tx, payments)
	})
	if err != nil {
		s.log.Warn("sale rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordSale(sale.TotalUSD.InexactFloat64())
	s.log.Info("sale committed",
		zap.Int64("sale_id", sale.ID),
		zap.String("receipt_number", sale.ReceiptNumber),
		zap.String("total_usd", sale.TotalUSD.StringFixed(2)),
		zap.Int("items", len(items)),
	)

	resp := toResponse(sale, items, payments)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	saleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	sale, err := s.repo.FindByID(ctx, s.db, saleID.Int64())
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, sale.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.FindPayments(ctx, s.db, sale.ID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(sale, items, payments)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, domain.ErrInvalidRange
	}
	cursor, err := pagination.DecodeCursor(strings.TrimSpace(req.PageToken))
	if err != nil {
		return nil, err
	}
	limit := req.Limit()

	filter := domain.ListFilter{}
	if req.From != nil {
		from := req.From.UTC()
		filter.From = &from
	}
	if req.To != nil {
		to := req.To.UTC()
		filter.To = &to
	}

	sales, err := s.repo.List(ctx, s.db, filter, cursor.Offset, limit+1)
	if err != nil {
		return nil, err
	}
	sales, pageInfo, err := pagination.Page(sales, cursor.Offset, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(sales))
	for i := range sales {
		resp = append(resp, toResponse(&sales[i], nil, nil))
	}
	return &domain.ListResponse{Items: resp, PageInfo: pageInfo}, nil
}

// currentRate is invalid when no rate has been recorded yet.
func (s *Service) currentRate(ctx context.Context) (decimal.NullDecimal, error) {
	current, err := s.rates.Current(ctx)
	if err != nil {
		if errors.Is(err, exchangerate.ErrNotFound) {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(current.Rate), nil
}

func parseLines(reqs []domain.ItemRequest) ([]line, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrEmptySale
	}
	lines := make([]line, 0, len(reqs))
	for _, r := range reqs {
		id, err := strconv.ParseInt(strings.TrimSpace(r.ProductID), 10, 64)
		if err != nil || id <= 0 {
			return nil, domain.ErrInvalidID
		}
		if r.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if r.UnitPriceUSD != nil && r.UnitPriceUSD.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		lines = append(lines, line{productID: id, quantity: r.Quantity, override: r.UnitPriceUSD})
	}
	return lines, nil
}

func parseTenders(reqs []domain.PaymentRequest) ([]tender, error) {
	tenders := make([]tender, 0, len(reqs))
	for _, r := range reqs {
		method := strings.ToLower(strings.TrimSpace(r.Method))
		if !domain.ValidMethod(method) {
			return nil, domain.ErrInvalidPaymentMethod
		}
		currency := strings.ToUpper(strings.TrimSpace(r.Currency))
		if !domain.AcceptsCurrency(method, currency) {
			return nil, domain.ErrInvalidCurrency
		}
		if !r.Amount.IsPositive() {
			return nil, domain.ErrInvalidPaymentAmount
		}
		tenders = append(tenders, tender{method: method, currency: currency, amount: r.Amount})
	}
	return tenders, nil
}

func toResponse(sale *domain.Sale, items []domain.SaleItem, payments []domain.SalePayment) domain.Response {
	resp := domain.Response{
		ID:            snowflake.ID(sale.ID).String(),
		ReceiptNumber: sale.ReceiptNumber,
		Status:        sale.Status,
		SubtotalUSD:   sale.SubtotalUSD,
		TotalUSD:      sale.TotalUSD,
		TotalVES:      nullableDecimal(sale.TotalVES),
		ExchangeRate:  nullableDecimal(sale.ExchangeRate),
		PaidUSD:       sale.PaidUSD,
		ChangeUSD:     sale.ChangeUSD,
		Notes:         sale.Notes,
		CreatedAt:     sale.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, domain.ItemResponse{
			ProductID:    strconv.FormatInt(item.ProductID, 10),
			SKU:          item.SKU,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPriceUSD: item.UnitPriceUSD,
			LineTotalUSD: item.LineTotalUSD,
		})
	}
	for _, payment := range payments {
		resp.Payments = append(resp.Payments, domain.PaymentResponse{
			Method:    payment.Method,
			Currency:  payment.Currency,
			Amount:    payment.Amount,
			AmountUSD: payment.AmountUSD,
		})
	}
	return resp
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullableDecimal(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	return &value.Decimal
}
