package country

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock for Directory
type MockDirectory struct {
	CountriesFunc func(ctx context.Context, q Query) ([]CountrySummary, error)
	CountryFunc   func(ctx context.Context, code string) (CountryDetail, error)
	NeighborsFunc func(ctx context.Context, borders []string) ([]CountrySummary, error)
}

func (m *MockDirectory) Countries(ctx context.Context, q Query) ([]CountrySummary, error) {
	return m.CountriesFunc(ctx, q)
}

func (m *MockDirectory) Country(ctx context.Context, code string) (CountryDetail, error) {
	return m.CountryFunc(ctx, code)
}

func (m *MockDirectory) Neighbors(ctx context.Context, borders []string) ([]CountrySummary, error) {
	return m.NeighborsFunc(ctx, borders)
}

// Mock for WeatherSource
type MockWeather struct {
	configured  bool
	calls       int32
	CurrentFunc func(ctx context.Context, city, code string) (WeatherSnapshot, bool)
}

func (m *MockWeather) Configured() bool { return m.configured }

func (m *MockWeather) Current(ctx context.Context, city, code string) (WeatherSnapshot, bool) {
	atomic.AddInt32(&m.calls, 1)
	return m.CurrentFunc(ctx, city, code)
}

// Mock for RatesSource
type MockRates struct {
	calls      int32
	LatestFunc func(ctx context.Context, base string) (CurrencyRates, bool)
}

func (m *MockRates) Latest(ctx context.Context, base string) (CurrencyRates, bool) {
	atomic.AddInt32(&m.calls, 1)
	return m.LatestFunc(ctx, base)
}

func germany() CountryDetail {
	return CountryDetail{
		CountrySummary: CountrySummary{
			Code:       "DE",
			Name:       "Germany",
			Capital:    "Berlin",
			Region:     "Europe",
			Currencies: []CurrencyInfo{{Code: "EUR", Name: "Euro", Symbol: "€"}},
		},
		Borders: []string{"AUT", "FRA"},
	}
}

func okWeather() *MockWeather {
	return &MockWeather{
		configured: true,
		CurrentFunc: func(ctx context.Context, city, code string) (WeatherSnapshot, bool) {
			return WeatherSnapshot{Temperature: 18, Description: "clear sky"}, true
		},
	}
}

func okRates() *MockRates {
	return &MockRates{
		LatestFunc: func(ctx context.Context, base string) (CurrencyRates, bool) {
			return CurrencyRates{Base: base, Rates: ratesOf("EUR", "USD", "GBP", "JPY", "AUD", "CAD", "CHF")}, true
		},
	}
}

func TestCountryPage_ComposesAllSections(t *testing.T) {
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) {
			assert.Equal(t, "DE", code)
			return germany(), nil
		},
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			assert.Equal(t, []string{"AUT", "FRA"}, borders)
			return []CountrySummary{{Code: "AT", Name: "Austria"}, {Code: "FR", Name: "France"}}, nil
		},
	}
	weather := &MockWeather{
		configured: true,
		CurrentFunc: func(ctx context.Context, city, code string) (WeatherSnapshot, bool) {
			assert.Equal(t, "Berlin", city)
			assert.Equal(t, "DE", code)
			return WeatherSnapshot{Temperature: 18}, true
		},
	}
	rates := &MockRates{
		LatestFunc: func(ctx context.Context, base string) (CurrencyRates, bool) {
			assert.Equal(t, "EUR", base)
			return CurrencyRates{Base: "EUR", Rates: ratesOf("EUR", "USD", "GBP", "JPY", "AUD", "CAD", "CHF")}, true
		},
	}

	svc := NewService(dir, weather, rates)
	page, err := svc.CountryPage(context.Background(), " de ")
	require.NoError(t, err)

	assert.Equal(t, "Germany", page.Country.Name)
	assert.Equal(t, Available, page.Weather.Status)
	require.NotNil(t, page.Weather.Snapshot)
	assert.Equal(t, 18.0, page.Weather.Snapshot.Temperature)
	assert.Equal(t, Available, page.Rates.Status)
	assert.Equal(t, []string{"USD", "GBP", "JPY", "AUD", "CAD"}, codes(page.Rates.Highlights))
	assert.Len(t, page.Neighbors.Countries, 2)
	assert.Equal(t, Available, page.Neighbors.Status)
	assert.Empty(t, page.Neighbors.Message)
}

func TestCountryPage_NotFoundSkipsDependentCalls(t *testing.T) {
	neighborsCalled := false
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) {
			return CountryDetail{}, ErrNotFound
		},
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			neighborsCalled = true
			return nil, nil
		},
	}
	weather, rates := okWeather(), okRates()

	svc := NewService(dir, weather, rates)
	_, err := svc.CountryPage(context.Background(), "ZZ")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, neighborsCalled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&weather.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&rates.calls))
}

func TestCountryPage_PrimaryErrorPropagates(t *testing.T) {
	upstream := &UpstreamError{Source: "restcountries", StatusCode: 503}
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) {
			return CountryDetail{}, upstream
		},
	}

	svc := NewService(dir, okWeather(), okRates())
	_, err := svc.CountryPage(context.Background(), "DE")

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 503, ue.StatusCode)
}

func TestCountryPage_BestEffortSlotsAreIndependent(t *testing.T) {
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) { return germany(), nil },
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			return []CountrySummary{{Code: "AT"}}, nil
		},
	}
	weather := &MockWeather{
		configured: true,
		CurrentFunc: func(ctx context.Context, city, code string) (WeatherSnapshot, bool) {
			return WeatherSnapshot{}, false
		},
	}

	svc := NewService(dir, weather, okRates())
	page, err := svc.CountryPage(context.Background(), "DE")
	require.NoError(t, err)

	assert.Nil(t, page.Weather.Snapshot)
	assert.Equal(t, Unavailable, page.Weather.Status)
	assert.Equal(t, MsgWeatherDown, page.Weather.Message)
	assert.Equal(t, Available, page.Rates.Status)
	assert.Len(t, page.Neighbors.Countries, 1)
}

func TestCountryPage_NeighborFailureIsReportedAsUnavailable(t *testing.T) {
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) { return germany(), nil },
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			return nil, &UpstreamError{StatusCode: 500}
		},
	}

	svc := NewService(dir, okWeather(), okRates())
	page, err := svc.CountryPage(context.Background(), "DE")
	require.NoError(t, err)
	assert.Equal(t, []CountrySummary{}, page.Neighbors.Countries)
	assert.Equal(t, Unavailable, page.Neighbors.Status)
	assert.Equal(t, MsgNeighborsDown, page.Neighbors.Message)
	assert.NotEqual(t, MsgNoNeighbors, page.Neighbors.Message)
	assert.Equal(t, Available, page.Weather.Status)
}

func TestCountryPage_FallbackReasons(t *testing.T) {
	island := germany()
	island.Capital = ""
	island.Currencies = nil
	island.Borders = nil

	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) { return island, nil },
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			return []CountrySummary{}, nil
		},
	}
	rates := okRates()

	svc := NewService(dir, okWeather(), rates)
	page, err := svc.CountryPage(context.Background(), "DE")
	require.NoError(t, err)

	assert.Equal(t, NoCapital, page.Weather.Status)
	assert.Equal(t, NoCurrency, page.Rates.Status)
	assert.Equal(t, MsgRatesNoCurrency, page.Rates.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&rates.calls))
	assert.Equal(t, MsgNoNeighbors, page.Neighbors.Message)
	assert.Equal(t, Available, page.Neighbors.Status)
}

func TestCountryPage_CredentialMissingMessage(t *testing.T) {
	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) { return germany(), nil },
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			return nil, nil
		},
	}
	weather := &MockWeather{configured: false}

	svc := NewService(dir, weather, okRates())
	page, err := svc.CountryPage(context.Background(), "DE")
	require.NoError(t, err)

	assert.Equal(t, CredentialMissing, page.Weather.Status)
	assert.Equal(t, MsgWeatherCredential, page.Weather.Message)
	assert.NotEqual(t, MsgWeatherDown, page.Weather.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&weather.calls))
}

func TestCountryPage_DependentCallsRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	release := make(chan struct{})

	wait := func() {
		started.Done()
		<-release
	}

	dir := &MockDirectory{
		CountryFunc: func(ctx context.Context, code string) (CountryDetail, error) { return germany(), nil },
		NeighborsFunc: func(ctx context.Context, borders []string) ([]CountrySummary, error) {
			wait()
			return nil, nil
		},
	}
	weather := &MockWeather{
		configured: true,
		CurrentFunc: func(ctx context.Context, city, code string) (WeatherSnapshot, bool) {
			wait()
			return WeatherSnapshot{}, true
		},
	}
	rates := &MockRates{
		LatestFunc: func(ctx context.Context, base string) (CurrencyRates, bool) {
			wait()
			return CurrencyRates{}, true
		},
	}

	go func() {
		started.Wait()
		close(release)
	}()

	svc := NewService(dir, weather, rates)
	done := make(chan error, 1)
	go func() {
		_, err := svc.CountryPage(context.Background(), "DE")
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dependent calls did not run concurrently")
	}
}

func TestSearch_EmptySlotIsUntracked(t *testing.T) {
	dir := &MockDirectory{
		CountriesFunc: func(ctx context.Context, q Query) ([]CountrySummary, error) {
			return []CountrySummary{{Code: "FR"}}, nil
		},
	}
	svc := NewService(dir, nil, nil)

	got, err := svc.Search(context.Background(), "", Query{Search: "fra"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, svc.queries.InFlight())
}

func TestWeatherAndRatesStandalone(t *testing.T) {
	svc := NewService(&MockDirectory{}, okWeather(), okRates())

	w := svc.Weather(context.Background(), " Paris ", "fr")
	assert.Equal(t, Available, w.Status)
	assert.Equal(t, "Paris", w.City)

	r := svc.Rates(context.Background(), "chf")
	assert.Equal(t, Available, r.Status)
	assert.Equal(t, "CHF", r.Currency)

	none := NewService(&MockDirectory{}, nil, nil)
	assert.Equal(t, CredentialMissing, none.Weather(context.Background(), "Paris", "FR").Status)
	assert.Equal(t, Unavailable, none.Rates(context.Background(), "EUR").Status)
}
