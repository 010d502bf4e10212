package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewShopConfigHolder()
	require.NoError(t, err)
	assert.Equal(t, DefaultShopConfig(), holder.Get())
}

func TestShopConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := []byte("barcode:\n  max_attempts: 4\nlabel:\n  width: 400\n  height: 200\n  quiet_zone_modules: 12\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yml"), content, 0o600))

	holder, err := NewShopConfigHolder()
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 4, cfg.Barcode.MaxAttempts)
	assert.Equal(t, 400, cfg.Label.Width)
	assert.Equal(t, 200, cfg.Label.Height)
	assert.Equal(t, 12, cfg.Label.QuietZoneModules)
	assert.Equal(t, "bcv", cfg.Sale.DefaultRateSource)
}

func TestShopConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yml"), []byte("barcode:\n  max_attempts: 0\n"), 0o600))

	_, err := NewShopConfigHolder()
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *ShopConfigHolder
	assert.Equal(t, DefaultShopConfig(), holder.Get())
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}
