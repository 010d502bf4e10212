package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/label"
)

type barcodeResponse struct {
	Input       string           `json:"input"`
	Code        string           `json:"code"`
	Bits        string           `json:"bits"`
	Converted   bool             `json:"converted"`
	Valid       bool             `json:"valid"`
	ExtractedID string           `json:"extracted_id"`
	Geometry    barcode.Geometry `json:"geometry"`
}

// RenderBarcode returns the bit pattern and drawing geometry for a code.
func (s *Server) RenderBarcode(c *gin.Context) {
	input := strings.TrimSpace(c.Param("code"))
	width, height, err := s.labelSize(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pattern := barcode.Render(input)
	geometry := barcode.Layout(pattern, width, height, s.shop.Get().Label.QuietZoneModules)

	c.JSON(http.StatusOK, gin.H{"data": barcodeResponse{
		Input:       input,
		Code:        pattern.Code,
		Bits:        pattern.Bits,
		Converted:   pattern.Converted(input),
		Valid:       barcode.IsValid(input),
		ExtractedID: barcode.ExtractEntityID(pattern.Code),
		Geometry:    geometry,
	}})
}

func (s *Server) ValidateBarcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	normalized := barcode.Normalize(code)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"code":                 code,
		"valid":                barcode.IsValid(code),
		"normalized":           normalized,
		"expected_check_digit": barcode.CheckDigit(normalized[:barcode.PayloadLength]),
	}})
}

func (s *Server) ExtractBarcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"code":      code,
		"entity_id": barcode.ExtractEntityID(code),
	}})
}

func (s *Server) BarcodePNG(c *gin.Context) {
	width, height, err := s.labelSize(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	img, err := s.labelSvc.PNG(c.Request.Context(), strings.TrimSpace(c.Param("code")), width, height)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("X-Barcode-Code", img.Pattern.Code)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", img.Bytes)
}

type barcodeSheetRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// BarcodeSheet renders a printable PDF of labels for the given products.
func (s *Server) BarcodeSheet(c *gin.Context) {
	var req barcodeSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.ProductIDs) == 0 {
		AbortWithError(c, newValidationError("product_ids", "required", "product_ids is required"))
		return
	}

	ctx := c.Request.Context()
	products, err := s.productSvc.GetMany(ctx, req.ProductIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]label.SheetItem, 0, len(products))
	for _, p := range products {
		items = append(items, label.SheetItem{
			Name:  p.Name,
			SKU:   p.SKU,
			Price: "$" + p.PriceUSD.StringFixed(2),
		})
	}

	doc, err := s.labelSvc.Sheet(ctx, items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="labels.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

type generateBarcodeRequest struct {
	EntityID int64 `json:"entity_id"`
	Attempt  int   `json:"attempt"`
}

// GenerateBarcode previews the code a product would receive. Nothing is stored.
func (s *Server) GenerateBarcode(c *gin.Context) {
	var req generateBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.EntityID < 0 {
		AbortWithError(c, newValidationError("entity_id", "invalid_entity_id", "entity_id must not be negative"))
		return
	}
	if req.Attempt < 0 {
		AbortWithError(c, newValidationError("attempt", "invalid_attempt", "attempt must not be negative"))
		return
	}

	code := s.generator.Generate(req.EntityID)
	if req.Attempt > 0 {
		code = s.generator.Alternative(req.EntityID, req.Attempt)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"entity_id": req.EntityID,
		"attempt":   req.Attempt,
		"code":      code,
	}})
}

func (s *Server) labelSize(c *gin.Context) (int, int, error) {
	width, err := parseOptionalInt(c.Query("width"))
	if err != nil {
		return 0, 0, newValidationError("width", "invalid_width", "invalid width")
	}
	height, err := parseOptionalInt(c.Query("height"))
	if err != nil {
		return 0, 0, newValidationError("height", "invalid_height", "invalid height")
	}
	defaults := s.shop.Get().Label
	width, height = label.ClampSize(width, height, defaults.Width, defaults.Height)
	return width, height, nil
}
