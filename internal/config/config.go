package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/country-insights/internal/common"
	"github.com/i474232898/country-insights/internal/logging"
)

var validate = validator.New()

type AppConfig struct {
	// OpenWeatherAPIKey is optional; without it the weather section reports
	// a missing credential.
	OpenWeatherAPIKey string

	RestCountriesURL string `validate:"required,url"`
	OpenWeatherURL   string `validate:"required,url"`
	ExchangeRateURL  string `validate:"required,url"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// Revalidation windows for cached upstream responses (0 disables caching).
	CountriesCacheTTL time.Duration `validate:"gte=0"`
	WeatherCacheTTL   time.Duration `validate:"gte=0"`
	RatesCacheTTL     time.Duration `validate:"gte=0"`

	CacheMaxEntries    int           `validate:"gte=0"` // 0 = unlimited
	CachePruneInterval time.Duration `validate:"gt=0"`

	// Outbound throttle for the weather API (0 rps = unthrottled).
	WeatherRPS   float64 `validate:"gte=0"`
	WeatherBurst int     `validate:"gte=0"`

	FavoritesPath string `validate:"required"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logging.For("config").Debugf("no .env file loaded: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(common.FirstNonEmpty(
		os.Getenv("OPENWEATHER_API_KEY"),
		os.Getenv("PUBLIC_OPENWEATHER_API_KEY"),
	))

	cfg.RestCountriesURL = getenvDefault("RESTCOUNTRIES_BASE_URL", "https://restcountries.com/v3.1")
	cfg.OpenWeatherURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.ExchangeRateURL = getenvDefault("EXCHANGE_BASE_URL", "https://open.er-api.com/v6")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CountriesCacheTTL, err = getenvDuration("COUNTRIES_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.RatesCacheTTL, err = getenvDuration("RATES_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.CachePruneInterval, err = getenvDuration("CACHE_PRUNE_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 512)
	cfg.WeatherBurst = getenvInt("WEATHER_BURST", 5)

	rps, err := strconv.ParseFloat(getenvDefault("WEATHER_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_RPS: %w", err)
	}
	cfg.WeatherRPS = rps

	cfg.FavoritesPath = getenvDefault("FAVORITES_PATH", "saved-countries.json")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// WeatherConfigured reports whether a weather credential is available.
func (c *AppConfig) WeatherConfigured() bool {
	return c.OpenWeatherAPIKey != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
