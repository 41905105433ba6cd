package tradehub

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	DB    DBConfig    `toml:"db"`
	HTTP  HTTPConfig  `toml:"http"`
	Trade TradeConfig `toml:"trade"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type HTTPConfig struct {
	Addr         string   `toml:"addr"`
	CORSOrigins  []string `toml:"cors_origins"`
	ReadTimeout  int      `toml:"read_timeout_seconds"`
	WriteTimeout int      `toml:"write_timeout_seconds"`
}

// TradeConfig tunes the trade lifecycle engine and the catalog cache.
type TradeConfig struct {
	ListingTTLHours      int `toml:"listing_ttl_hours"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
	MaxItemsPerSide      int `toml:"max_items_per_side"`
	CatalogCacheSize     int `toml:"catalog_cache_size"`
	CatalogCacheTTLSecs  int `toml:"catalog_cache_ttl_seconds"`
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Trade.ListingTTLHours <= 0 {
		c.Trade.ListingTTLHours = 72
	}
	if c.Trade.SweepIntervalSeconds <= 0 {
		c.Trade.SweepIntervalSeconds = 60
	}
	if c.Trade.MaxItemsPerSide <= 0 {
		c.Trade.MaxItemsPerSide = 9
	}
	if c.Trade.CatalogCacheSize <= 0 {
		c.Trade.CatalogCacheSize = 512
	}
	if c.Trade.CatalogCacheTTLSecs <= 0 {
		c.Trade.CatalogCacheTTLSecs = 300
	}
}

func (c TradeConfig) ListingTTL() time.Duration {
	return time.Duration(c.ListingTTLHours) * time.Hour
}

func (c TradeConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c TradeConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSecs) * time.Second
}
