package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/clock"
	"github.com/smallbiznis/motopos/internal/config"
	exchangeraterepo "github.com/smallbiznis/motopos/internal/exchangerate/repository"
	exchangeratesvc "github.com/smallbiznis/motopos/internal/exchangerate/service"
	"github.com/smallbiznis/motopos/internal/label"
	"github.com/smallbiznis/motopos/internal/observability"
	productrepo "github.com/smallbiznis/motopos/internal/product/repository"
	productsvc "github.com/smallbiznis/motopos/internal/product/service"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	salerepo "github.com/smallbiznis/motopos/internal/sale/repository"
	salesvc "github.com/smallbiznis/motopos/internal/sale/service"
	"github.com/smallbiznis/motopos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.UnixMilli(1_700_000_000_123))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	shop := config.NewStaticShopConfigHolder(config.DefaultShopConfig())
	gen := barcode.NewGenerator(clk)
	pdfProvider := pdf.New()

	rates := exchangeratesvc.New(exchangeratesvc.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  exchangeraterepo.Provide(),
		Shop:  shop,
	})
	products := productsvc.New(productsvc.Params{
		DB:        db,
		Log:       log,
		Clock:     clk,
		Generator: gen,
		Repo:      productrepo.Provide(),
		Rates:     rates,
		Shop:      shop,
	})
	sales := salesvc.New(salesvc.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     salerepo.Provide(),
		Products: productrepo.Provide(),
		Rates:    rates,
	})
	labels, err := label.New(label.Params{
		Log:   log,
		Cache: label.NoopCache{},
		PDF:   pdfProvider,
		Shop:  shop,
	})
	require.NoError(t, err)

	engine := NewEngine(config.Config{}, observability.Config{}, nil)
	NewServer(ServerParams{
		Gin:        engine,
		Shop:       shop,
		Generator:  gen,
		ProductSvc: products,
		RateSvc:    rates,
		SaleSvc:    sales,
		LabelSvc:   labels,
		PDF:        pdfProvider,
	})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decode(t, rec)
	out, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %s", rec.Body.String())
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decode(t, rec)
	out, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error in %s", rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorBody(t, rec)["type"])
}

func TestProductRoutes(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{
		"name":      "Bujia NGK",
		"price_usd": "12.50",
		"stock":     5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := data(t, rec)
	assert.Equal(t, "7891230000013", created["sku"])
	assert.Equal(t, "1", created["extracted_id"])

	rec = doJSON(t, engine, http.MethodGet, "/api/products/sku/7891230000013", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", data(t, rec)["id"])

	rec = doJSON(t, engine, http.MethodPatch, "/api/products/1", map[string]any{"price_usd": "15"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15", data(t, rec)["price_usd"])

	rec = doJSON(t, engine, http.MethodPost, "/api/products/1/stock", map[string]any{"delta": -9})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_stock", errorBody(t, rec)["type"])

	rec = doJSON(t, engine, http.MethodGet, "/api/products?page_size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["data"], 1)

	rec = doJSON(t, engine, http.MethodGet, "/api/products/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateProductValidation(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{"name": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := errorBody(t, rec)
	assert.Equal(t, "validation_error", errBody["type"])
	details := errBody["errors"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "invalid_name", details[0].(map[string]any)["code"])
	assert.Equal(t, "name", details[0].(map[string]any)["field"])

	rec = doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{"name": "A", "sku": "4006381333931"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{"name": "B", "sku": "4006381333931"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBarcodeRoutes(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/barcodes/12345", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rendered := data(t, rec)
	assert.Equal(t, "0000000123457", rendered["code"])
	assert.Equal(t, true, rendered["converted"])
	assert.Equal(t, false, rendered["valid"])
	assert.Len(t, rendered["bits"], barcode.Modules)
	geometry := rendered["geometry"].(map[string]any)
	assert.EqualValues(t, 300, geometry["width"])
	assert.EqualValues(t, 55, geometry["offset_x"])

	rec = doJSON(t, engine, http.MethodGet, "/api/barcodes/4006381333932/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	validated := data(t, rec)
	assert.Equal(t, false, validated["valid"])
	assert.EqualValues(t, 1, validated["expected_check_digit"])

	rec = doJSON(t, engine, http.MethodGet, "/api/barcodes/7891230000426/extract", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", data(t, rec)["entity_id"])

	rec = doJSON(t, engine, http.MethodPost, "/api/barcodes/generate", map[string]any{"entity_id": 42})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7891230000426", data(t, rec)["code"])

	rec = doJSON(t, engine, http.MethodPost, "/api/barcodes/generate", map[string]any{"entity_id": 5, "attempt": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7891230010050", data(t, rec)["code"])

	rec = doJSON(t, engine, http.MethodGet, "/api/barcodes/4006381333931/png?width=240&height=120", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4006381333931", rec.Header().Get("X-Barcode-Code"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = doJSON(t, engine, http.MethodGet, "/api/barcodes/4006381333931/png?width=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBarcodeSheet(t *testing.T) {
	engine := newTestEngine(t)

	for _, name := range []string{"Bujia", "Filtro"} {
		rec := doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{"name": name, "price_usd": "3"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, engine, http.MethodPost, "/api/barcodes/sheet", map[string]any{"product_ids": []string{"1", "2"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = doJSON(t, engine, http.MethodPost, "/api/barcodes/sheet", map[string]any{"product_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/barcodes/sheet", map[string]any{"product_ids": []string{"8"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExchangeRateRoutes(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/exchange-rates/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/exchange-rates", map[string]any{"rate": "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/exchange-rates", map[string]any{"rate": "40"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bcv", data(t, rec)["source"])

	rec = doJSON(t, engine, http.MethodGet, "/api/exchange-rates/convert?amount=10&from=USD&to=VES", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "400", data(t, rec)["converted"])

	rec = doJSON(t, engine, http.MethodGet, "/api/exchange-rates/convert?amount=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/exchange-rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestSaleRoutes(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/exchange-rates", map[string]any{"rate": "40"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, engine, http.MethodPost, "/api/products", map[string]any{"name": "Casco", "price_usd": "25", "stock": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/sales", map[string]any{
		"items":    []map[string]any{{"product_id": "1", "quantity": 1}},
		"payments": []map[string]any{{"method": "cash_ves", "currency": "VES", "amount": "1200"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := data(t, rec)
	assert.Equal(t, "1000", sale["total_ves"])
	assert.Equal(t, "5", sale["change_usd"])
	saleID := sale["id"].(string)

	rec = doJSON(t, engine, http.MethodGet, "/api/sales/"+saleID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, rec)["items"], 1)

	rec = doJSON(t, engine, http.MethodGet, "/api/sales/"+saleID+"/receipt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = doJSON(t, engine, http.MethodPost, "/api/sales", map[string]any{
		"items":    []map[string]any{{"product_id": "1", "quantity": 5}},
		"payments": []map[string]any{{"method": "cash_usd", "currency": "USD", "amount": "500"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_stock", errorBody(t, rec)["type"])

	rec = doJSON(t, engine, http.MethodPost, "/api/sales", map[string]any{
		"items":    []map[string]any{{"product_id": "1", "quantity": 1}},
		"payments": []map[string]any{{"method": "cash_usd", "currency": "USD", "amount": "1"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "underpaid", errorBody(t, rec)["type"])

	rec = doJSON(t, engine, http.MethodGet, "/api/sales?from=2023-11-14&to=2023-11-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = doJSON(t, engine, http.MethodGet, "/api/sales?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
