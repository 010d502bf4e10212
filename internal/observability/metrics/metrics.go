package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	skuAllocated  *prometheus.CounterVec
	skuCollisions prometheus.Counter
	salesTotal    prometheus.Counter
	salesUSD      prometheus.Counter
	labelRenders  *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "motopos_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motopos_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		skuAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "motopos_sku_allocations_total",
			Help: "EAN-13 SKU allocations by outcome.",
		}, []string{"source", "result"}),
		skuCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motopos_sku_collisions_total",
			Help: "Generated SKUs rejected because they were already stored.",
		}),
		salesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motopos_sales_committed_total",
			Help: "Committed sales.",
		}),
		salesUSD: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motopos_sales_usd_total",
			Help: "Committed sales amount in USD.",
		}),
		labelRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "motopos_label_renders_total",
			Help: "Barcode label renders by format and cache outcome.",
		}, []string{"format", "cache"}),
	}

	collectors := []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.skuAllocated, m.skuCollisions,
		m.salesTotal, m.salesUSD, m.labelRenders,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RecordSKUAllocation counts one allocation; source is "generated" or "supplied".
func (m *Metrics) RecordSKUAllocation(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.skuAllocated.WithLabelValues(source, result).Inc()
}

func (m *Metrics) RecordSKUCollision() {
	if m == nil {
		return
	}
	m.skuCollisions.Inc()
}

func (m *Metrics) RecordSale(totalUSD float64) {
	if m == nil {
		return
	}
	m.salesTotal.Inc()
	if totalUSD > 0 {
		m.salesUSD.Add(totalUSD)
	}
}

func (m *Metrics) RecordLabelRender(format string, cacheHit bool) {
	if m == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.labelRenders.WithLabelValues(format, cache).Inc()
}
