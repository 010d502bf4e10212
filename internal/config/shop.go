package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ShopConfig holds operator-tunable settings that may change at runtime.
type ShopConfig struct {
	Barcode BarcodeConfig `mapstructure:"barcode"`
	Label   LabelConfig   `mapstructure:"label"`
	Sale    SaleConfig    `mapstructure:"sale"`
}

type BarcodeConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

type LabelConfig struct {
	Width            int `mapstructure:"width"`
	Height           int `mapstructure:"height"`
	QuietZoneModules int `mapstructure:"quiet_zone_modules"`
}

type SaleConfig struct {
	DefaultRateSource string `mapstructure:"default_rate_source"`
}

func DefaultShopConfig() ShopConfig {
	return ShopConfig{
		Barcode: BarcodeConfig{MaxAttempts: 10},
		Label: LabelConfig{
			Width:            300,
			Height:           150,
			QuietZoneModules: 10,
		},
		Sale: SaleConfig{DefaultRateSource: "bcv"},
	}
}

type ShopConfigHolder struct {
	current atomic.Value // holds ShopConfig
}

// NewStaticShopConfigHolder returns a holder that never reloads.
func NewStaticShopConfigHolder(cfg ShopConfig) *ShopConfigHolder {
	holder := &ShopConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewShopConfigHolder reads shop.yml and keeps it hot-reloaded.
func NewShopConfigHolder() (*ShopConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("shop")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/motopos")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOTOPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultShopConfig()
	v.SetDefault("barcode.max_attempts", defaults.Barcode.MaxAttempts)
	v.SetDefault("label.width", defaults.Label.Width)
	v.SetDefault("label.height", defaults.Label.Height)
	v.SetDefault("label.quiet_zone_modules", defaults.Label.QuietZoneModules)
	v.SetDefault("sale.default_rate_source", defaults.Sale.DefaultRateSource)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg ShopConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateShopConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticShopConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ShopConfig
		if err := v.Unmarshal(&updated); err != nil {
			zap.L().Warn("shop config reload failed", zap.Error(err))
			return
		}
		if err := validateShopConfig(updated); err != nil {
			zap.L().Warn("invalid shop config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("shop config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ShopConfigHolder) Get() ShopConfig {
	if h == nil {
		return DefaultShopConfig()
	}
	cfg, ok := h.current.Load().(ShopConfig)
	if !ok {
		return DefaultShopConfig()
	}
	return cfg
}

func validateShopConfig(cfg ShopConfig) error {
	if cfg.Barcode.MaxAttempts < 1 || cfg.Barcode.MaxAttempts > 1000 {
		return errors.New("barcode.max_attempts must be between 1 and 1000")
	}
	if cfg.Label.Width <= 0 || cfg.Label.Height <= 0 {
		return errors.New("label.width and label.height must be positive")
	}
	if cfg.Label.QuietZoneModules < 0 {
		return errors.New("label.quiet_zone_modules cannot be negative")
	}
	return nil
}
