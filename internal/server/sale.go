package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	saledomain "github.com/smallbiznis/motopos/internal/sale/domain"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
)

func (s *Server) CreateSale(c *gin.Context) {
	var req saledomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.saleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSales(c *gin.Context) {
	var query struct {
		pagination.Pagination

		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.saleSvc.List(c.Request.Context(), saledomain.ListRequest{
		Pagination: query.Pagination,
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "page_info": resp.PageInfo})
}

func (s *Server) GetSale(c *gin.Context) {
	resp, err := s.saleSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaleReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	sale, err := s.saleSvc.Get(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.GenerateReceipt(ctx, receiptData(sale))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, sale.ReceiptNumber))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func receiptData(sale *saledomain.Response) pdf.ReceiptData {
	data := pdf.ReceiptData{
		ReceiptNumber: sale.ReceiptNumber,
		Date:          sale.CreatedAt.Format("2006-01-02 15:04"),
		ExchangeRate:  optionalFixed(sale.ExchangeRate),
		TotalUSD:      sale.TotalUSD.StringFixed(2),
		TotalVES:      optionalFixed(sale.TotalVES),
		PaidUSD:       sale.PaidUSD.StringFixed(2),
		ChangeUSD:     sale.ChangeUSD.StringFixed(2),
	}
	if sale.Notes != nil {
		data.Notes = *sale.Notes
	}
	for _, item := range sale.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: item.Name,
			SKU:         item.SKU,
			Qty:         item.Quantity,
			UnitPrice:   item.UnitPriceUSD.StringFixed(2),
			Amount:      item.LineTotalUSD.StringFixed(2),
		})
	}
	for _, payment := range sale.Payments {
		data.Payments = append(data.Payments, pdf.ReceiptPayment{
			Method: payment.Method,
			Amount: payment.Currency + " " + payment.Amount.StringFixed(2),
		})
	}
	return data
}

func optionalFixed(value *decimal.Decimal) string {
	if value == nil {
		return "-"
	}
	return value.StringFixed(2)
}
