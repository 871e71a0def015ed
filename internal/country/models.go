package country

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// RegionAll is the sentinel region meaning "no region filter".
const RegionAll = "all"

// CurrencyInfo describes one currency used by a country.
type CurrencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// CountrySummary is the normalized view of a country used in listings.
// Values are immutable once returned by a Directory.
type CountrySummary struct {
	Code         string         `json:"code" validate:"required,len=2"`
	Alpha3       string         `json:"alpha3,omitempty"`
	Name         string         `json:"name"`
	OfficialName string         `json:"officialName"`
	Capital      string         `json:"capital,omitempty"`
	Region       string         `json:"region"`
	Subregion    string         `json:"subregion,omitempty"`
	Population   int64          `json:"population" validate:"gte=0"`
	Area         *float64       `json:"area,omitempty" validate:"omitempty,gte=0"`
	FlagPNG      string         `json:"flagPng"`
	FlagAlt      string         `json:"flagAlt,omitempty"`
	Timezones    []string       `json:"timezones"`
	Currencies   []CurrencyInfo `json:"currencies"`
	Languages    []string       `json:"languages"`
}

// PrimaryCurrency returns the first listed currency code, or "" when the
// country has none.
func (c CountrySummary) PrimaryCurrency() string {
	if len(c.Currencies) == 0 {
		return ""
	}
	return c.Currencies[0].Code
}

// MapLinks are external map references for a country.
type MapLinks struct {
	GoogleMaps     string `json:"googleMaps,omitempty"`
	OpenStreetMaps string `json:"openStreetMaps,omitempty"`
}

// Demonym holds the feminine and masculine forms for one language.
type Demonym struct {
	F string `json:"f,omitempty"`
	M string `json:"m,omitempty"`
}

// CountryDetail extends CountrySummary with the fields shown on a detail page.
// Borders may reference codes that no longer resolve upstream.
type CountryDetail struct {
	CountrySummary
	Borders     []string           `json:"borders"`
	Maps        MapLinks           `json:"maps"`
	LatLng      [2]float64         `json:"latlng"`
	Demonyms    map[string]Demonym `json:"demonyms"`
	DrivingSide string             `json:"drivingSide,omitempty"`
	Independent *bool              `json:"independent,omitempty"`
}

// WeatherSnapshot is the current weather for a city. A missing snapshot
// means "unavailable", never zero degrees.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}

// Rate is one entry of a conversion table.
type Rate struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

// Rates is a currency-code to rate mapping that keeps the upstream order.
type Rates []Rate

// Get looks up the rate for code.
func (r Rates) Get(code string) (float64, bool) {
	for _, rate := range r {
		if rate.Code == code {
			return rate.Value, true
		}
	}
	return 0, false
}

// Map copies the rates into a plain map.
func (r Rates) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, rate := range r {
		m[rate.Code] = rate.Value
	}
	return m
}

// MarshalJSON encodes the rates as a JSON object in their natural order.
func (r Rates) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rate := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rate.Code)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(rate.Value, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CurrencyRates is the conversion table for one base currency.
type CurrencyRates struct {
	Base        string `json:"base"`
	LastUpdated string `json:"lastUpdated"`
	Rates       Rates  `json:"rates"`
}

// Query selects countries from the directory. Search takes the network
// query; Region narrows it locally when both are set.
type Query struct {
	Search string `json:"search,omitempty"`
	Region string `json:"region,omitempty"`
}

// Key returns the canonical identity of the query, used to tell repeated
// queries apart from new ones.
func (q Query) Key() string {
	region := q.Region
	if region == "" {
		region = RegionAll
	}
	return strings.ToLower(strings.TrimSpace(q.Search)) + ":" + strings.ToLower(strings.TrimSpace(region))
}
