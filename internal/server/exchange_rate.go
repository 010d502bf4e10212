package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	exchangeratedomain "github.com/smallbiznis/motopos/internal/exchangerate/domain"
)

func (s *Server) CurrentExchangeRate(c *gin.Context) {
	resp, err := s.rateSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListExchangeRates(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	resp, err := s.rateSvc.History(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setExchangeRateRequest struct {
	Rate        decimal.Decimal `json:"rate"`
	Source      string          `json:"source"`
	EffectiveAt *time.Time      `json:"effective_at"`
}

func (s *Server) SetExchangeRate(c *gin.Context) {
	var req setExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rateSvc.Set(c.Request.Context(), exchangeratedomain.SetRequest{
		Rate:        req.Rate,
		Source:      strings.TrimSpace(req.Source),
		EffectiveAt: req.EffectiveAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ConvertAmount(c *gin.Context) {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Query("amount")))
	if err != nil {
		AbortWithError(c, exchangeratedomain.ErrInvalidAmount)
		return
	}

	resp, err := s.rateSvc.Convert(c.Request.Context(), exchangeratedomain.ConvertRequest{
		Amount: amount,
		From:   c.DefaultQuery("from", exchangeratedomain.CurrencyUSD),
		To:     c.DefaultQuery("to", exchangeratedomain.CurrencyVES),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
