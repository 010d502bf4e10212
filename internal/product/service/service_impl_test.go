package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/motopos/internal/barcode"
	"github.com/smallbiznis/motopos/internal/clock"
	"github.com/smallbiznis/motopos/internal/config"
	exchangerate "github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"github.com/smallbiznis/motopos/internal/product/domain"
	"github.com/smallbiznis/motopos/internal/product/repository"
	"github.com/smallbiznis/motopos/internal/testutil"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fakeRates struct {
	rate *decimal.Decimal
}

func (f *fakeRates) Set(context.Context, exchangerate.SetRequest) (*exchangerate.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRates) Current(context.Context) (*exchangerate.Response, error) {
	if f.rate == nil {
		return nil, exchangerate.ErrNotFound
	}
	return &exchangerate.Response{Rate: *f.rate}, nil
}

func (f *fakeRates) History(context.Context, int) ([]exchangerate.Response, error) {
	return nil, nil
}

func (f *fakeRates) Convert(context.Context, exchangerate.ConvertRequest) (*exchangerate.ConvertResponse, error) {
	return nil, errors.New("not implemented")
}

type testEnv struct {
	svc   domain.Service
	clock *clock.FakeClock
	rates *fakeRates
}

func newTestEnv(t *testing.T, shop config.ShopConfig) *testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, shop, repository.Provide())
}

func newTestEnvWithRepo(t *testing.T, shop config.ShopConfig, repo domain.Repository) *testEnv {
	t.Helper()
	clk := clock.NewFakeClock(time.UnixMilli(1_700_000_000_123))
	rates := &fakeRates{}
	svc := New(Params{
		DB:        testutil.NewDB(t),
		Log:       zaptest.NewLogger(t),
		Clock:     clk,
		Generator: barcode.NewGenerator(clk),
		Repo:      repo,
		Rates:     rates,
		Shop:      config.NewStaticShopConfigHolder(shop),
	})
	return &testEnv{svc: svc, clock: clk, rates: rates}
}

func createReq(name, sku string) domain.CreateRequest {
	return domain.CreateRequest{
		SKU:      sku,
		Name:     name,
		PriceUSD: decimal.RequireFromString("12.50"),
		Stock:    5,
	}
}

func TestCreateGeneratesSKU(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())

	resp, err := env.svc.Create(context.Background(), createReq("  Bujia NGK  ", ""))
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "7891230000013", resp.SKU)
	assert.True(t, barcode.IsValid(resp.SKU))
	assert.Equal(t, "1", resp.ExtractedID)
	assert.Equal(t, "Bujia NGK", resp.Name)
	assert.Equal(t, "12.5", resp.PriceUSD.String())
	assert.Nil(t, resp.PriceVES)

	second, err := env.svc.Create(context.Background(), createReq("Filtro", "not-a-barcode"))
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, "7891230000020", second.SKU)
}

func TestCreateKeepsSuppliedSKU(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	resp, err := env.svc.Create(ctx, createReq("Cadena", "4006381333931"))
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", resp.SKU)

	_, err = env.svc.Create(ctx, createReq("Otra cadena", "4006381333931"))
	assert.ErrorIs(t, err, domain.ErrSKUConflict)
}

func TestCreateResolvesCollision(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	_, err := env.svc.Create(ctx, createReq("Ocupa el codigo", "7891230000020"))
	require.NoError(t, err)

	resp, err := env.svc.Create(ctx, createReq("Casco", ""))
	require.NoError(t, err)
	assert.Equal(t, "2", resp.ID)
	assert.Equal(t, "7891230010029", resp.SKU)
}

func TestCreateExhaustsAttempts(t *testing.T) {
	shop := config.DefaultShopConfig()
	shop.Barcode.MaxAttempts = 1
	env := newTestEnv(t, shop)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, createReq("Ocupa el codigo", "7891230000020"))
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, createReq("Casco", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSKUExhausted)
	assert.ErrorIs(t, err, barcode.ErrMaxAttemptsExceeded)

	var attemptsErr *barcode.AttemptsError
	require.ErrorAs(t, err, &attemptsErr)
	assert.Equal(t, int64(2), attemptsErr.EntityID)
	assert.Equal(t, 1, attemptsErr.Attempts)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	_, err := env.svc.Create(ctx, createReq("   ", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req := createReq("Aceite", "")
	req.PriceUSD = decimal.NewFromInt(-1)
	_, err = env.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	req = createReq("Aceite", "")
	req.Stock = -1
	_, err = env.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidStock)
}

func TestGetAndGetBySKU(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()
	rate := decimal.RequireFromString("40")
	env.rates.rate = &rate

	created, err := env.svc.Create(ctx, createReq("Pastillas", ""))
	require.NoError(t, err)
	require.NotNil(t, created.PriceVES)
	assert.Equal(t, "500", created.PriceVES.String())

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SKU, got.SKU)

	bySKU, err := env.svc.GetBySKU(ctx, created.SKU)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySKU.ID)

	_, err = env.svc.GetBySKU(ctx, "7891230000037")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = env.svc.Get(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetManyKeepsOrder(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := env.svc.Create(ctx, createReq(name, ""))
		require.NoError(t, err)
	}

	items, err := env.svc.GetMany(ctx, []string{"3", "1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C", items[0].Name)
	assert.Equal(t, "A", items[1].Name)

	_, err = env.svc.GetMany(ctx, []string{"1", "7"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	created, err := env.svc.Create(ctx, createReq("Manilla", ""))
	require.NoError(t, err)

	price := decimal.RequireFromString("9.999")
	minStock := int64(5)
	env.clock.Advance(time.Minute)
	updated, err := env.svc.Update(ctx, domain.UpdateRequest{
		ID:       created.ID,
		PriceUSD: &price,
		MinStock: &minStock,
		Metadata: map[string]any{"color": "negro"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.SKU, updated.SKU)
	assert.Equal(t, "10", updated.PriceUSD.String())
	assert.True(t, updated.LowStock)
	assert.Equal(t, "negro", updated.Metadata["color"])
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", got.PriceUSD.String())
	assert.Equal(t, "negro", got.Metadata["color"])

	empty := " "
	_, err = env.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	created, err := env.svc.Create(ctx, createReq("Espejo", ""))
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, created.ID))
	_, err = env.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, env.svc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestRegenerateSKU(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	created, err := env.svc.Create(ctx, createReq("Guaya", ""))
	require.NoError(t, err)

	env.clock.Advance(250 * time.Millisecond)
	regenerated, err := env.svc.RegenerateSKU(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "7893730000012", regenerated.SKU)

	got, err := env.svc.GetBySKU(ctx, "7893730000012")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = env.svc.RegenerateSKU(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	created, err := env.svc.Create(ctx, createReq("Tripa", ""))
	require.NoError(t, err)

	_, err = env.svc.AdjustStock(ctx, domain.AdjustStockRequest{ID: created.ID, Delta: -6})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	resp, err := env.svc.AdjustStock(ctx, domain.AdjustStockRequest{ID: created.ID, Delta: -5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Stock)

	resp, err = env.svc.AdjustStock(ctx, domain.AdjustStockRequest{ID: created.ID, Delta: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Stock)

	_, err = env.svc.AdjustStock(ctx, domain.AdjustStockRequest{ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)
}

func TestListFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t, config.DefaultShopConfig())
	ctx := context.Background()

	for _, name := range []string{"Aceite 20W50", "Aceite 10W40", "Bujia"} {
		req := createReq(name, "")
		req.Category = "motor"
		_, err := env.svc.Create(ctx, req)
		require.NoError(t, err)
	}
	low := createReq("Casco", "")
	low.Category = "accesorios"
	low.Stock = 1
	low.MinStock = 2
	_, err := env.svc.Create(ctx, low)
	require.NoError(t, err)

	first, err := env.svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.PageInfo.HasMore)
	assert.Equal(t, "1", first.Items[0].ID)

	second, err := env.svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.False(t, second.PageInfo.HasMore)
	assert.Equal(t, "3", second.Items[0].ID)

	byName, err := env.svc.List(ctx, domain.ListRequest{Name: "aceite", SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, byName.Items, 2)
	assert.Equal(t, "Aceite 10W40", byName.Items[0].Name)

	lowStock, err := env.svc.List(ctx, domain.ListRequest{LowStock: true})
	require.NoError(t, err)
	require.Len(t, lowStock.Items, 1)
	assert.Equal(t, "Casco", lowStock.Items[0].Name)

	byCategory, err := env.svc.List(ctx, domain.ListRequest{Category: "motor"})
	require.NoError(t, err)
	assert.Len(t, byCategory.Items, 3)

	_, err = env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}

// racingRepo fails writes with a unique violation, as a concurrent insert of
// the same id or SKU would.
type racingRepo struct {
	domain.Repository
	createFailures int
	updateFailures int
	createCalls    int
	updateCalls    int
}

var errUniqueSKU = errors.New("UNIQUE constraint failed: products.sku")

func (r *racingRepo) Create(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	r.createCalls++
	if r.createFailures != 0 {
		r.createFailures--
		return errUniqueSKU
	}
	return r.Repository.Create(ctx, db, p)
}

func (r *racingRepo) UpdateSKU(ctx context.Context, db *gorm.DB, id int64, sku string, at time.Time) error {
	r.updateCalls++
	if r.updateFailures != 0 {
		r.updateFailures--
		return errUniqueSKU
	}
	return r.Repository.UpdateSKU(ctx, db, id, sku, at)
}

func TestCreateRetriesAfterInsertRace(t *testing.T) {
	repo := &racingRepo{Repository: repository.Provide(), createFailures: 1}
	env := newTestEnvWithRepo(t, config.DefaultShopConfig(), repo)
	ctx := context.Background()

	resp, err := env.svc.Create(ctx, createReq("Manillar", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.createCalls)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "7891230000013", resp.SKU)

	got, err := env.svc.GetBySKU(ctx, resp.SKU)
	require.NoError(t, err)
	assert.Equal(t, "Manillar", got.Name)
}

func TestCreateReportsConflictWhenRaceRepeats(t *testing.T) {
	repo := &racingRepo{Repository: repository.Provide(), createFailures: -1}
	env := newTestEnvWithRepo(t, config.DefaultShopConfig(), repo)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, createReq("Manillar", ""))
	assert.ErrorIs(t, err, domain.ErrSKUConflict)
	assert.Equal(t, writeAttempts, repo.createCalls)

	_, err = env.svc.Get(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegenerateSKURetriesAfterUpdateRace(t *testing.T) {
	repo := &racingRepo{Repository: repository.Provide()}
	env := newTestEnvWithRepo(t, config.DefaultShopConfig(), repo)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, createReq("Guaya", ""))
	require.NoError(t, err)

	repo.updateFailures = 1
	env.clock.Advance(250 * time.Millisecond)
	regenerated, err := env.svc.RegenerateSKU(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.updateCalls)
	assert.Equal(t, "7893730000012", regenerated.SKU)

	repo.updateFailures = -1
	repo.updateCalls = 0
	_, err = env.svc.RegenerateSKU(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrSKUConflict)
	assert.Equal(t, writeAttempts, repo.updateCalls)

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "7893730000012", got.SKU)
}
