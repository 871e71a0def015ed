package country

import (
	"context"
	"strings"
	"sync"

	"github.com/i474232898/country-insights/internal/logging"
)

// Availability explains why a best-effort section of a page has no data.
type Availability string

const (
	Available         Availability = "available"
	CredentialMissing Availability = "credential_missing"
	NoCapital         Availability = "no_capital"
	NoCurrency        Availability = "no_currency"
	Unavailable       Availability = "unavailable"
)

// Fallback texts shown in place of a missing section.
const (
	MsgNoResults         = "No countries found. Try adjusting your search or region filter."
	MsgWeatherCredential = "Weather data requires an OpenWeather API key. Set OPENWEATHER_API_KEY in your environment to enable this section."
	MsgWeatherNoCapital  = "Capital city unknown."
	MsgWeatherDown       = "Current weather is temporarily unavailable."
	MsgRatesNoCurrency   = "Currency details are missing from the REST Countries response."
	MsgRatesDown         = "Live rates are temporarily unavailable. The ExchangeRate API may be responding slowly, please refresh later."
	MsgNoNeighbors       = "No bordering countries were found for this nation."
	MsgNeighborsDown     = "Bordering countries could not be loaded right now."
)

// WeatherSection is the weather slot of a page.
type WeatherSection struct {
	City     string           `json:"city,omitempty"`
	Snapshot *WeatherSnapshot `json:"snapshot"`
	Status   Availability     `json:"status"`
	Message  string           `json:"message,omitempty"`
}

// RatesSection is the exchange-rate slot of a page.
type RatesSection struct {
	Currency   string         `json:"currency,omitempty"`
	Rates      *CurrencyRates `json:"rates"`
	Highlights []Rate         `json:"highlights"`
	Status     Availability   `json:"status"`
	Message    string         `json:"message,omitempty"`
}

// NeighborsSection is the neighbor slot of a page.
type NeighborsSection struct {
	Countries []CountrySummary `json:"countries"`
	Status    Availability     `json:"status"`
	Message   string           `json:"message,omitempty"`
}

// Page is everything the country detail view needs. The three dependent
// sections are filled independently of one another.
type Page struct {
	Country   CountryDetail    `json:"country"`
	Weather   WeatherSection   `json:"weather"`
	Rates     RatesSection     `json:"exchange"`
	Neighbors NeighborsSection `json:"neighbors"`
}

// Service composes the directory, weather and rates adapters into views.
type Service struct {
	directory Directory
	weather   WeatherSource
	rates     RatesSource
	queries   *QueryTracker
}

// NewService creates a new Service.
func NewService(directory Directory, weather WeatherSource, rates RatesSource) *Service {
	return &Service{
		directory: directory,
		weather:   weather,
		rates:     rates,
		queries:   NewQueryTracker(),
	}
}

// Countries runs a directory query. Directory errors propagate unchanged.
func (s *Service) Countries(ctx context.Context, q Query) ([]CountrySummary, error) {
	return s.directory.Countries(ctx, q)
}

// Search is Countries under last-issued-wins ordering for slot. An empty slot
// opts out of tracking.
func (s *Service) Search(ctx context.Context, slot string, q Query) ([]CountrySummary, error) {
	if slot == "" {
		return s.Countries(ctx, q)
	}
	return Track(ctx, s.queries, slot, func(ctx context.Context) ([]CountrySummary, error) {
		return s.directory.Countries(ctx, q)
	})
}

// CountryPage resolves the country first, then fetches weather, rates and
// neighbors concurrently. ErrNotFound and directory errors for the country
// itself end the request before any dependent call is made.
func (s *Service) CountryPage(ctx context.Context, code string) (Page, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	log := logging.For("country.service").WithField("code", code)

	detail, err := s.directory.Country(ctx, code)
	if err != nil {
		return Page{}, err
	}

	page := Page{Country: detail}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		page.Weather = s.weatherSection(ctx, detail.Capital, detail.Code)
	}()

	go func() {
		defer wg.Done()
		page.Rates = s.ratesSection(ctx, detail.PrimaryCurrency())
	}()

	go func() {
		defer wg.Done()
		neighbors, err := s.directory.Neighbors(ctx, detail.Borders)
		switch {
		case err != nil:
			log.WithError(err).Warn("neighbor lookup failed")
			page.Neighbors = NeighborsSection{Countries: []CountrySummary{}, Status: Unavailable, Message: MsgNeighborsDown}
		case len(neighbors) == 0:
			page.Neighbors = NeighborsSection{Countries: []CountrySummary{}, Status: Available, Message: MsgNoNeighbors}
		default:
			page.Neighbors = NeighborsSection{Countries: neighbors, Status: Available}
		}
	}()

	wg.Wait()

	log.WithFields(map[string]interface{}{
		"weather":   page.Weather.Status,
		"rates":     page.Rates.Status,
		"neighbors": len(page.Neighbors.Countries),
	}).Debug("country page assembled")

	return page, nil
}

// Weather returns the weather section for a city on its own.
func (s *Service) Weather(ctx context.Context, city, countryCode string) WeatherSection {
	return s.weatherSection(ctx, strings.TrimSpace(city), strings.ToUpper(strings.TrimSpace(countryCode)))
}

// Rates returns the exchange-rate section for a base currency on its own.
func (s *Service) Rates(ctx context.Context, base string) RatesSection {
	return s.ratesSection(ctx, strings.ToUpper(strings.TrimSpace(base)))
}

func (s *Service) weatherSection(ctx context.Context, city, countryCode string) WeatherSection {
	sec := WeatherSection{City: city}
	switch {
	case s.weather == nil || !s.weather.Configured():
		sec.Status, sec.Message = CredentialMissing, MsgWeatherCredential
		return sec
	case city == "":
		sec.Status, sec.Message = NoCapital, MsgWeatherNoCapital
		return sec
	}

	snap, ok := s.weather.Current(ctx, city, countryCode)
	if !ok {
		sec.Status, sec.Message = Unavailable, MsgWeatherDown
		return sec
	}
	sec.Snapshot = &snap
	sec.Status = Available
	return sec
}

func (s *Service) ratesSection(ctx context.Context, base string) RatesSection {
	sec := RatesSection{Currency: base, Highlights: []Rate{}}
	if base == "" {
		sec.Status, sec.Message = NoCurrency, MsgRatesNoCurrency
		return sec
	}
	if s.rates == nil {
		sec.Status, sec.Message = Unavailable, MsgRatesDown
		return sec
	}

	rates, ok := s.rates.Latest(ctx, base)
	if !ok {
		sec.Status, sec.Message = Unavailable, MsgRatesDown
		return sec
	}
	sec.Rates = &rates
	sec.Highlights = HighlightRates(rates.Rates, base)
	sec.Status = Available
	return sec
}
