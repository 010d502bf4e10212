package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/internal/clock"
	"github.com/smallbiznis/motopos/internal/config"
	"github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Shop  *config.ShopConfigHolder `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	shop  *config.ShopConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("exchangerate.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		shop:  p.Shop,
	}
}

func (s *Service) Set(ctx context.Context, req domain.SetRequest) (*domain.Response, error) {
	if !req.Rate.IsPositive() {
		return nil, domain.ErrInvalidRate
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = s.shop.Get().Sale.DefaultRateSource
	}

	now := s.clock.Now()
	effectiveAt := now
	if req.EffectiveAt != nil && !req.EffectiveAt.IsZero() {
		effectiveAt = req.EffectiveAt.UTC()
	}

	rate := &domain.ExchangeRate{
		ID:          s.genID.Generate().Int64(),
		Base:        domain.CurrencyUSD,
		Quote:       domain.CurrencyVES,
		Rate:        req.Rate,
		Source:      source,
		EffectiveAt: effectiveAt,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, rate); err != nil {
		return nil, err
	}

	s.log.Info("exchange rate updated",
		zap.String("rate", rate.Rate.String()),
		zap.String("source", rate.Source),
	)
	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) Current(ctx context.Context) (*domain.Response, error) {
	rate, err := s.repo.Latest(ctx, s.db, domain.CurrencyUSD, domain.CurrencyVES)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.Response, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	items, err := s.repo.List(ctx, s.db, domain.CurrencyUSD, domain.CurrencyVES, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Convert(ctx context.Context, req domain.ConvertRequest) (*domain.ConvertResponse, error) {
	from := strings.ToUpper(strings.TrimSpace(req.From))
	to := strings.ToUpper(strings.TrimSpace(req.To))
	if !isSupported(from) || !isSupported(to) {
		return nil, domain.ErrInvalidCurrency
	}
	if req.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if from == to {
		return &domain.ConvertResponse{
			Amount:    req.Amount,
			From:      from,
			To:        to,
			Rate:      decimal.NewFromInt(1),
			Converted: req.Amount.Round(2),
		}, nil
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	var converted decimal.Decimal
	if to == domain.CurrencyUSD {
		converted, err = domain.ToUSD(req.Amount, from, current.Rate)
	} else {
		converted, err = domain.FromUSD(req.Amount, to, current.Rate)
	}
	if err != nil {
		return nil, err
	}

	return &domain.ConvertResponse{
		Amount:    req.Amount,
		From:      from,
		To:        to,
		Rate:      current.Rate,
		Converted: converted,
	}, nil
}

func isSupported(currency string) bool {
	return currency == domain.CurrencyUSD || currency == domain.CurrencyVES
}

func toResponse(r *domain.ExchangeRate) domain.Response {
	return domain.Response{
		ID:          snowflake.ID(r.ID).String(),
		Base:        r.Base,
		Quote:       r.Quote,
		Rate:        r.Rate,
		Source:      r.Source,
		EffectiveAt: r.EffectiveAt,
		CreatedAt:   r.CreatedAt,
	}
}
