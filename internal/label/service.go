package label

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/config"
	"github.com/smallbiznis/motopos/internal/observability/metrics"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sheetWorkers = 4

var ErrEmptyCode = errors.New("empty_code")

// Image is a rendered PNG label.
type Image struct {
	Bytes   []byte
	Pattern barcode.Pattern
	Width   int
	Height  int
	Cached  bool
}

// SheetItem is one product on a printable label sheet.
type SheetItem struct {
	Name  string
	SKU   string
	Price string
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Cache   Cache
	PDF     pdf.Provider
	Shop    *config.ShopConfigHolder `optional:"true"`
	Metrics *metrics.Metrics         `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	face    FaceFunc
	cache   Cache
	pdf     pdf.Provider
	shop    *config.ShopConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) (*Service, error) {
	face, err := LoadFace(p.Cfg.LabelFontPath)
	if err != nil {
		return nil, fmt.Errorf("could not load label font: %w", err)
	}
	cache := p.Cache
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		log:     p.Log.Named("label.service"),
		face:    face,
		cache:   cache,
		pdf:     p.PDF,
		shop:    p.Shop,
		metrics: p.Metrics,
	}, nil
}

// PNG renders input as an EAN-13 label. Non-positive sizes use the shop
// defaults.
func (s *Service) PNG(ctx context.Context, input string, width, height int) (*Image, error) {
	if input == "" {
		return nil, ErrEmptyCode
	}

	cfg := s.shop.Get().Label
	width, height = ClampSize(width, height, cfg.Width, cfg.Height)
	pattern := barcode.Render(input)
	key := cacheKey(pattern.Code, width, height)

	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.RecordLabelRender("png", true)
		return &Image{Bytes: data, Pattern: pattern, Width: width, Height: height, Cached: true}, nil
	case !errors.Is(err, ErrCacheMiss):
		s.log.Warn("label cache read failed", zap.String("key", key), zap.Error(err))
	}

	geometry := barcode.Layout(pattern, width, height, cfg.QuietZoneModules)
	data, err = Draw(geometry, s.face())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLabelRender("png", false)

	if err := s.cache.Set(ctx, key, data, defaultCacheTTL); err != nil {
		s.log.Warn("label cache write failed", zap.String("key", key), zap.Error(err))
	}
	return &Image{Bytes: data, Pattern: pattern, Width: width, Height: height}, nil
}

// Sheet renders every item's barcode and lays them out as a PDF.
func (s *Service) Sheet(ctx context.Context, items []SheetItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, pdf.ErrEmptySheet
	}

	rows := make([]pdf.LabelRow, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sheetWorkers)
	for i, item := range items {
		g.Go(func() error {
			img, err := s.PNG(gctx, item.SKU, 0, 0)
			if err != nil {
				return fmt.Errorf("render %s: %w", item.SKU, err)
			}
			rows[i] = pdf.LabelRow{
				Name:  item.Name,
				SKU:   img.Pattern.Code,
				Price: item.Price,
				PNG:   img.Bytes,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc, err := s.pdf.GenerateLabelSheet(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLabelRender("pdf", false)
	return doc, nil
}
