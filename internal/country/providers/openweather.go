package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/logging"
)

// DefaultOpenWeatherURL is the OpenWeather current-conditions API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements country.WeatherSource for OpenWeatherMap.
type OpenWeatherProvider struct {
	BaseURL  string
	apiKey   string
	upstream *upstream
}

// NewOpenWeatherProvider creates a weather adapter. An empty apiKey leaves
// the adapter unconfigured; rps <= 0 disables the outbound throttle.
func NewOpenWeatherProvider(cfg HTTPClientConfig, baseURL, apiKey string, ttl time.Duration, rps float64, burst int) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	up := newUpstream("openweather", cfg, ttl)
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		up.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &OpenWeatherProvider{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   strings.TrimSpace(apiKey),
		upstream: up,
	}
}

// Configured reports whether a credential is present.
func (p *OpenWeatherProvider) Configured() bool {
	return p.apiKey != ""
}

// Current returns the weather for city. It never reaches the network
// without both a city and a credential, and every failure yields ok=false.
func (p *OpenWeatherProvider) Current(ctx context.Context, city, countryCode string) (country.WeatherSnapshot, bool) {
	city = strings.TrimSpace(city)
	if city == "" || !p.Configured() {
		return country.WeatherSnapshot{}, false
	}

	q := city
	if countryCode != "" {
		q = fmt.Sprintf("%s,%s", city, countryCode)
	}

	values := url.Values{}
	values.Set("q", q)
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)
	u := fmt.Sprintf("%s/weather?%s", p.BaseURL, values.Encode())

	log := logging.For("providers.openweather").WithField("q", q)

	body, err := p.upstream.get(ctx, u)
	if err != nil {
		log.WithError(err).Warn("weather unavailable")
		return country.WeatherSnapshot{}, false
	}

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.WithError(err).Warn("malformed weather payload")
		return country.WeatherSnapshot{}, false
	}

	snap := country.WeatherSnapshot{
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
	}
	if len(payload.Weather) > 0 {
		snap.Description = payload.Weather[0].Description
		snap.Icon = payload.Weather[0].Icon
	}
	return snap, true
}

var _ country.WeatherSource = (*OpenWeatherProvider)(nil)
