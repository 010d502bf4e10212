package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/clock"
	"github.com/smallbiznis/motopos/internal/config"
	exchangerate "github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"github.com/smallbiznis/motopos/internal/observability/metrics"
	"github.com/smallbiznis/motopos/internal/product/domain"
	"github.com/smallbiznis/motopos/pkg/db"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// writeAttempts bounds retries after a unique violation on insert or SKU swap.
const writeAttempts = 2

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Generator *barcode.Generator
	Repo      domain.Repository
	Rates     exchangerate.Service     `optional:"true"`
	Shop      *config.ShopConfigHolder `optional:"true"`
	Metrics   *metrics.Metrics         `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	gen     *barcode.Generator
	repo    domain.Repository
	rates   exchangerate.Service
	shop    *config.ShopConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		clock:   p.Clock,
		gen:     p.Generator,
		repo:    p.Repo,
		rates:   p.Rates,
		shop:    p.Shop,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.PriceUSD.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	cost := decimal.Zero
	if req.CostUSD != nil {
		if req.CostUSD.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		cost = *req.CostUSD
	}
	if req.Stock < 0 || req.MinStock < 0 {
		return nil, domain.ErrInvalidStock
	}

	sku := strings.TrimSpace(req.SKU)
	supplied := sku != "" && barcode.IsValid(sku)
	source := "generated"
	if supplied {
		source = "supplied"
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var created *domain.Product
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			id, err := s.repo.NextID(ctx, tx)
			if err != nil {
				return err
			}

			code := sku
			if supplied {
				taken, err := s.repo.ExistsBySKU(ctx, tx, sku)
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrSKUConflict
				}
			} else {
				code, err = s.allocate(ctx, tx, id)
				if err != nil {
					return err
				}
			}

			now := s.clock.Now()
			p := &domain.Product{
				ID:          id,
				SKU:         code,
				Name:        name,
				Description: trimmedPtr(req.Description),
				Category:    strings.TrimSpace(req.Category),
				Brand:       strings.TrimSpace(req.Brand),
				PriceUSD:    req.PriceUSD.Round(2),
				CostUSD:     cost.Round(2),
				Stock:       req.Stock,
				MinStock:    req.MinStock,
				Active:      active,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if req.Metadata != nil {
				p.Metadata = datatypes.JSONMap(req.Metadata)
			}
			if err := s.repo.Create(ctx, tx, p); err != nil {
				return err
			}
			created = p
			return nil
		})
		if err == nil || !db.IsDuplicateKeyErr(err) {
			break
		}
		s.log.Warn("product insert raced, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	s.metrics.RecordSKUAllocation(source, err)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUConflict
		}
		return nil, err
	}

	s.log.Info("product created",
		zap.Int64("product_id", created.ID),
		zap.String("sku", created.SKU),
		zap.String("sku_source", source),
	)
	resp := s.toResponse(created, s.currentRate(ctx))
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(strings.TrimSpace(req.PageToken))
	if err != nil {
		return nil, err
	}
	limit := req.Limit()

	filter := domain.ListFilter{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Active:   req.Active,
		LowStock: req.LowStock,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter, cursor.Offset, limit+1)
	if err != nil {
		return nil, err
	}
	items, pageInfo, err := pagination.Page(items, cursor.Offset, limit)
	if err != nil {
		return nil, err
	}

	rate := s.currentRate(ctx)
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i], rate))
	}
	return &domain.ListResponse{Items: resp, PageInfo: pageInfo}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item, s.currentRate(ctx))
	return &resp, nil
}

// GetBySKU matches the stored code exactly.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*domain.Response, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, domain.ErrInvalidSKU
	}

	item, err := s.repo.FindBySKU(ctx, s.db, sku)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item, s.currentRate(ctx))
	return &resp, nil
}

// GetMany returns products in the order of ids.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]domain.Response, error) {
	parsed := make([]int64, 0, len(ids))
	for _, id := range ids {
		productID, err := parseID(id)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, productID)
	}

	items, err := s.repo.FindByIDs(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	rate := s.currentRate(ctx)
	resp := make([]domain.Response, 0, len(parsed))
	for _, id := range parsed {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		resp = append(resp, s.toResponse(item, rate))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = trimmedPtr(req.Description)
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Brand != nil {
		item.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.PriceUSD != nil {
		if req.PriceUSD.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.PriceUSD = req.PriceUSD.Round(2)
	}
	if req.CostUSD != nil {
		if req.CostUSD.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.CostUSD = req.CostUSD.Round(2)
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return nil, domain.ErrInvalidStock
		}
		item.MinStock = *req.MinStock
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item, s.currentRate(ctx))
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, productID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.log.Info("product deleted", zap.Int64("product_id", productID))
	return nil
}

// RegenerateSKU replaces the product's code with a freshly allocated one.
func (s *Service) RegenerateSKU(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var item *domain.Product
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			found, err := s.repo.FindByID(ctx, tx, productID)
			if err != nil {
				return err
			}
			if found == nil {
				return domain.ErrNotFound
			}

			code, err := s.allocate(ctx, tx, productID)
			if err != nil {
				return err
			}

			now := s.clock.Now()
			if err := s.repo.UpdateSKU(ctx, tx, productID, code, now); err != nil {
				return err
			}
			found.SKU = code
			found.UpdatedAt = now
			item = found
			return nil
		})
		if err == nil || !db.IsDuplicateKeyErr(err) {
			break
		}
	}
	s.metrics.RecordSKUAllocation("regenerated", err)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUConflict
		}
		return nil, err
	}

	s.log.Info("product sku regenerated",
		zap.Int64("product_id", item.ID),
		zap.String("sku", item.SKU),
	)
	resp := s.toResponse(item, s.currentRate(ctx))
	return &resp, nil
}

func (s *Service) AdjustStock(ctx context.Context, req domain.AdjustStockRequest) (*domain.Response, error) {
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	if req.Delta == 0 {
		return nil, domain.ErrInvalidStock
	}

	var item *domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now()
		ok, err := s.repo.AdjustStock(ctx, tx, productID, req.Delta, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientStock
		}
		found.Stock += req.Delta
		found.UpdatedAt = now
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(item, s.currentRate(ctx))
	return &resp, nil
}

func (s *Service) allocate(ctx context.Context, tx *gorm.DB, productID int64) (string, error) {
	exists := func(ctx context.Context, code string) (bool, error) {
		taken, err := s.repo.ExistsBySKU(ctx, tx, code)
		if taken {
			s.metrics.RecordSKUCollision()
		}
		return taken, err
	}

	code, err := s.gen.Allocate(ctx, productID, exists, s.shop.Get().Barcode.MaxAttempts)
	if err != nil {
		if errors.Is(err, barcode.ErrMaxAttemptsExceeded) {
			s.log.Warn("sku allocation exhausted",
				zap.Int64("product_id", productID),
				zap.Error(err),
			)
			return "", fmt.Errorf("%w: %w", domain.ErrSKUExhausted, err)
		}
		return "", err
	}
	return code, nil
}

func (s *Service) currentRate(ctx context.Context) *decimal.Decimal {
	if s.rates == nil {
		return nil
	}
	current, err := s.rates.Current(ctx)
	if err != nil {
		if !errors.Is(err, exchangerate.ErrNotFound) {
			s.log.Warn("exchange rate lookup failed", zap.Error(err))
		}
		return nil
	}
	return &current.Rate
}

func (s *Service) toResponse(p *domain.Product, rate *decimal.Decimal) domain.Response {
	resp := domain.Response{
		ID:          strconv.FormatInt(p.ID, 10),
		SKU:         p.SKU,
		ExtractedID: barcode.ExtractEntityID(p.SKU),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		PriceUSD:    p.PriceUSD,
		CostUSD:     p.CostUSD,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		LowStock:    p.LowStock(),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if rate != nil {
		ves := p.PriceUSD.Mul(*rate).Round(2)
		resp.PriceVES = &ves
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

func parseID(id string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || value <= 0 {
		return 0, domain.ErrInvalidID
	}
	return value, nil
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
