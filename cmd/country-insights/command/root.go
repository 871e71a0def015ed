// Package command provides the root and sub-commands of country-insights.
// The root command starts the HTTP API; the other commands query the same
// aggregation layer and favorites store from the terminal.
//
//	./country-insights                         # start web server
//	./country-insights country <code>          # print one country page
//	./country-insights favorites list
//	./country-insights favorites remove <code>
//	./country-insights favorites clear
package command

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/country-insights/internal/config"
	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/country/providers"
	"github.com/i474232898/country-insights/internal/favorites"
	"github.com/i474232898/country-insights/internal/logging"
	"github.com/i474232898/country-insights/internal/store"
)

var (
	cfg           *config.AppConfig
	favoritesPath string
)

var rootCmd = &cobra.Command{
	Use:   "country-insights",
	Short: "Country information aggregated from REST Countries, OpenWeather and ExchangeRate",
	Long: `country-insights serves a JSON API that combines country metadata,
current weather for the capital and live exchange rates for the primary
currency into one view per country, and keeps a local list of favorite
countries.
Weather needs OPENWEATHER_API_KEY; without it the weather section reports a
missing credential and everything else keeps working.`,
	PersistentPreRunE: loadConfig,
	RunE:              serve,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
}

// Execute runs the rootCmd which in turn parses CLI arguments and flags and
// runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&favoritesPath, "favorites", "f", "", "favorites file path (overrides FAVORITES_PATH)",
	)
}

func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load(): %w", err)
	}
	if favoritesPath != "" {
		c.FavoritesPath = favoritesPath
	}
	logging.Setup(c.LogLevel, c.LogFormat)
	cfg = c
	return nil
}

// components is everything a command needs, built from cfg.
type components struct {
	cache     *store.MemoryStore
	directory *providers.RestCountriesClient
	service   *country.Service
	favorites *favorites.Store
}

func buildComponents() (*components, error) {
	cache := store.NewMemoryStore(cfg.CacheMaxEntries)

	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
		Cache:  cache,
	}

	directory := providers.NewRestCountriesClient(httpCfg, cfg.RestCountriesURL, cfg.CountriesCacheTTL)
	weather := providers.NewOpenWeatherProvider(
		httpCfg, cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey, cfg.WeatherCacheTTL, cfg.WeatherRPS, cfg.WeatherBurst,
	)
	rates := providers.NewExchangeRateProvider(httpCfg, cfg.ExchangeRateURL, cfg.RatesCacheTTL)

	saved, err := favorites.NewStore(favorites.NewFilePersister(cfg.FavoritesPath))
	if err != nil {
		return nil, fmt.Errorf("loading favorites from %q: %w", cfg.FavoritesPath, err)
	}

	if !weather.Configured() {
		logging.For("command").Warn("OPENWEATHER_API_KEY is not set; weather sections will be unavailable")
	}

	return &components{
		cache:     cache,
		directory: directory,
		service:   country.NewService(directory, weather, rates),
		favorites: saved,
	}, nil
}
