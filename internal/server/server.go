package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/config"
	"github.com/smallbiznis/motopos/internal/exchangerate"
	exchangeratedomain "github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"github.com/smallbiznis/motopos/internal/label"
	"github.com/smallbiznis/motopos/internal/observability"
	obsmiddleware "github.com/smallbiznis/motopos/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/motopos/internal/observability/metrics"
	obstracing "github.com/smallbiznis/motopos/internal/observability/tracing"
	"github.com/smallbiznis/motopos/internal/product"
	productdomain "github.com/smallbiznis/motopos/internal/product/domain"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	"github.com/smallbiznis/motopos/internal/sale"
	saledomain "github.com/smallbiznis/motopos/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	barcode.Module,
	exchangerate.Module,
	product.Module,
	sale.Module,
	pdf.Module,
	label.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	shop       *config.ShopConfigHolder
	generator  *barcode.Generator
	productSvc productdomain.Service
	rateSvc    exchangeratedomain.Service
	saleSvc    saledomain.Service
	labelSvc   *label.Service
	pdf        pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Shop       *config.ShopConfigHolder `optional:"true"`
	Generator  *barcode.Generator
	ProductSvc productdomain.Service
	RateSvc    exchangeratedomain.Service
	SaleSvc    saledomain.Service
	LabelSvc   *label.Service
	PDF        pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		shop:       p.Shop,
		generator:  p.Generator,
		productSvc: p.ProductSvc,
		rateSvc:    p.RateSvc,
		saleSvc:    p.SaleSvc,
		labelSvc:   p.LabelSvc,
		pdf:        p.PDF,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/sku/:sku", s.GetProductBySKU)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)
	api.POST("/products/:id/sku/regenerate", s.RegenerateProductSKU)
	api.POST("/products/:id/stock", s.AdjustProductStock)

	// -------- Barcodes --------
	api.POST("/barcodes/sheet", s.BarcodeSheet)
	api.POST("/barcodes/generate", s.GenerateBarcode)
	api.GET("/barcodes/:code", s.RenderBarcode)
	api.GET("/barcodes/:code/validate", s.ValidateBarcode)
	api.GET("/barcodes/:code/extract", s.ExtractBarcode)
	api.GET("/barcodes/:code/png", s.BarcodePNG)

	// -------- Exchange rates --------
	api.GET("/exchange-rates/current", s.CurrentExchangeRate)
	api.GET("/exchange-rates/convert", s.ConvertAmount)
	api.GET("/exchange-rates", s.ListExchangeRates)
	api.POST("/exchange-rates", s.SetExchangeRate)

	// -------- Sales --------
	api.POST("/sales", s.CreateSale)
	api.GET("/sales", s.ListSales)
	api.GET("/sales/:id", s.GetSale)
	api.GET("/sales/:id/receipt", s.SaleReceipt)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
