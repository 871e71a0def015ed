package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/i474232898/country-insights/internal/common"
	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/logging"
)

// DefaultExchangeRateURL is the keyless ExchangeRate-API endpoint root.
const DefaultExchangeRateURL = "https://open.er-api.com/v6"

// ExchangeRateProvider implements country.RatesSource for ExchangeRate-API.
type ExchangeRateProvider struct {
	BaseURL  string
	upstream *upstream
}

// NewExchangeRateProvider creates a rates adapter.
func NewExchangeRateProvider(cfg HTTPClientConfig, baseURL string, ttl time.Duration) *ExchangeRateProvider {
	if baseURL == "" {
		baseURL = DefaultExchangeRateURL
	}
	return &ExchangeRateProvider{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		upstream: newUpstream("exchangerate", cfg, ttl),
	}
}

// Latest returns the conversion table for base with rates in the order the
// upstream lists them. An empty base, a failed call, or a payload whose
// result is not "success" all yield ok=false.
func (p *ExchangeRateProvider) Latest(ctx context.Context, base string) (country.CurrencyRates, bool) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return country.CurrencyRates{}, false
	}

	u := fmt.Sprintf("%s/latest/%s", p.BaseURL, url.PathEscape(base))
	log := logging.For("providers.exchangerate").WithField("base", base)

	body, err := p.upstream.get(ctx, u)
	if err != nil {
		log.WithError(err).Warn("exchange rates unavailable")
		return country.CurrencyRates{}, false
	}

	if !gjson.ValidBytes(body) {
		log.Warn("malformed exchange rate payload")
		return country.CurrencyRates{}, false
	}
	doc := gjson.ParseBytes(body)
	if result := doc.Get("result").String(); result != "success" {
		log.WithField("result", result).Warn("exchange rate lookup unsuccessful")
		return country.CurrencyRates{}, false
	}

	rates := country.Rates{}
	doc.Get("rates").ForEach(func(code, value gjson.Result) bool {
		rates = append(rates, country.Rate{Code: code.String(), Value: value.Float()})
		return true
	})

	return country.CurrencyRates{
		Base:        common.FirstNonEmpty(doc.Get("base_code").String(), base),
		LastUpdated: doc.Get("time_last_update_utc").String(),
		Rates:       rates,
	}, true
}

var _ country.RatesSource = (*ExchangeRateProvider)(nil)
