package label

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/motopos/internal/config"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

func (c *memoryCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func newTestService(t *testing.T, cache Cache) *Service {
	t.Helper()
	svc, err := New(Params{
		Log:   zaptest.NewLogger(t),
		Cache: cache,
		PDF:   pdf.New(),
		Shop:  config.NewStaticShopConfigHolder(config.DefaultShopConfig()),
	})
	require.NoError(t, err)
	return svc
}

func TestPNGRendersBars(t *testing.T) {
	svc := newTestService(t, NoopCache{})

	img, err := svc.PNG(context.Background(), "4006381333931", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 150, img.Height)
	assert.Equal(t, "4006381333931", img.Pattern.Code)

	decoded, err := png.Decode(bytes.NewReader(img.Bytes))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())
	assert.Equal(t, 150, decoded.Bounds().Dy())

	// start guard begins at offset 55 with a 2px module
	r, _, _, _ := decoded.At(55, 10).RGBA()
	assert.Equal(t, uint32(0), r)
	r, _, _, _ = decoded.At(5, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestPNGClampsSize(t *testing.T) {
	svc := newTestService(t, NoopCache{})

	img, err := svc.PNG(context.Background(), "12345", 5000, 10)
	require.NoError(t, err)
	assert.Equal(t, MaxWidth, img.Width)
	assert.Equal(t, MinHeight, img.Height)
	assert.Equal(t, "0000000123457", img.Pattern.Code)

	_, err = svc.PNG(context.Background(), "", 0, 0)
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestPNGUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache)
	ctx := context.Background()

	first, err := svc.PNG(ctx, "4006381333931", 240, 120)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Contains(t, cache.data, "label:png:4006381333931:240x120")

	second, err := svc.PNG(ctx, "4006381333931", 240, 120)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Bytes, second.Bytes)
	assert.Equal(t, 1, cache.sets)
}

func TestPNGIgnoresCacheFailures(t *testing.T) {
	svc := newTestService(t, brokenCache{})

	img, err := svc.PNG(context.Background(), "4006381333931", 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, img.Bytes)
	assert.False(t, img.Cached)
}

func TestSheet(t *testing.T) {
	svc := newTestService(t, newMemoryCache())

	doc, err := svc.Sheet(context.Background(), []SheetItem{
		{Name: "Bujia NGK", SKU: "7891230000013", Price: "$12.50"},
		{Name: "Filtro", SKU: "7891230000020", Price: "$3.00"},
		{Name: "Casco", SKU: "7891230010029", Price: "$45.00"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	_, err = svc.Sheet(context.Background(), nil)
	assert.ErrorIs(t, err, pdf.ErrEmptySheet)
}

func TestClampSize(t *testing.T) {
	w, h := ClampSize(0, -1, 300, 150)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)

	w, h = ClampSize(50, 9000, 300, 150)
	assert.Equal(t, MinWidth, w)
	assert.Equal(t, MaxHeight, h)
}

func TestLoadFaceMissingFile(t *testing.T) {
	_, err := LoadFace("/nonexistent/font.ttf")
	assert.Error(t, err)

	face, err := LoadFace("")
	require.NoError(t, err)
	assert.NotNil(t, face())
}
