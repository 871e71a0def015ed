package country

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a country code matches nothing upstream.
	ErrNotFound = errors.New("country not found")

	// ErrSuperseded is returned to a query whose slot received a newer query
	// before it settled. Its result must not be applied.
	ErrSuperseded = errors.New("query superseded by a newer one")
)

// UpstreamError reports a non-success status from the country directory.
type UpstreamError struct {
	Source     string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Directory is the primary source of country data. A 404 upstream is an
// empty result; every other failure is returned as an error.
type Directory interface {
	Countries(ctx context.Context, q Query) ([]CountrySummary, error)
	Country(ctx context.Context, code string) (CountryDetail, error)
	Neighbors(ctx context.Context, borders []string) ([]CountrySummary, error)
}

// WeatherSource is a best-effort weather feed. ok is false whenever no
// snapshot is available; failures are never returned.
type WeatherSource interface {
	Configured() bool
	Current(ctx context.Context, city, countryCode string) (snapshot WeatherSnapshot, ok bool)
}

// RatesSource is a best-effort exchange-rate feed with the same contract as
// WeatherSource.
type RatesSource interface {
	Latest(ctx context.Context, base string) (rates CurrencyRates, ok bool)
}
