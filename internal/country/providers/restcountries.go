package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/i474232898/country-insights/internal/common"
	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/logging"
)

const (
	// DefaultRestCountriesURL is the public REST Countries v3.1 API.
	DefaultRestCountriesURL = "https://restcountries.com/v3.1"

	countryFields = "name,cca2,cca3,capital,region,subregion,population,area,timezones," +
		"currencies,languages,flags,maps,borders,latlng,demonyms,car,independent"
)

// RestCountriesClient implements country.Directory against REST Countries.
type RestCountriesClient struct {
	BaseURL  string
	upstream *upstream
}

// NewRestCountriesClient creates a directory client. ttl is the revalidation
// window for cached responses.
func NewRestCountriesClient(cfg HTTPClientConfig, baseURL string, ttl time.Duration) *RestCountriesClient {
	if baseURL == "" {
		baseURL = DefaultRestCountriesURL
	}
	return &RestCountriesClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		upstream: newUpstream("restcountries", cfg, ttl),
	}
}

// restCountry mirrors the subset of the upstream payload we select with
// the fields parameter. Currencies and languages are kept raw so their
// upstream order can be read.
type restCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2       string          `json:"cca2"`
	CCA3       string          `json:"cca3"`
	Capital    []string        `json:"capital"`
	Region     string          `json:"region"`
	Subregion  string          `json:"subregion"`
	Population int64           `json:"population"`
	Area       *float64        `json:"area"`
	Timezones  []string        `json:"timezones"`
	Currencies json.RawMessage `json:"currencies"`
	Languages  json.RawMessage `json:"languages"`
	Flags      struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
		Alt string `json:"alt"`
	} `json:"flags"`
	Maps struct {
		GoogleMaps     string `json:"googleMaps"`
		OpenStreetMaps string `json:"openStreetMaps"`
	} `json:"maps"`
	Borders  []string  `json:"borders"`
	LatLng   []float64 `json:"latlng"`
	Demonyms map[string]struct {
		F string `json:"f"`
		M string `json:"m"`
	} `json:"demonyms"`
	Car struct {
		Side string `json:"side"`
	} `json:"car"`
	Independent *bool `json:"independent"`
}

// Countries implements the three query modes. A search term takes the
// network query and a specific region becomes a local post-filter.
func (c *RestCountriesClient) Countries(ctx context.Context, q country.Query) ([]country.CountrySummary, error) {
	search := strings.TrimSpace(q.Search)
	region := strings.ToLower(strings.TrimSpace(q.Region))
	byRegion := region != "" && region != country.RegionAll

	var path string
	switch {
	case search != "":
		path = "/name/" + url.PathEscape(search)
	case byRegion:
		path = "/region/" + url.PathEscape(region)
	default:
		path = "/all"
	}

	list, err := c.fetchList(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	summaries := make([]country.CountrySummary, 0, len(list))
	for _, rc := range list {
		summaries = append(summaries, toSummary(rc))
	}

	if search != "" && byRegion {
		return country.FilterRegion(summaries, region), nil
	}
	return summaries, nil
}

// Country looks up a single country by code.
func (c *RestCountriesClient) Country(ctx context.Context, code string) (country.CountryDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return country.CountryDetail{}, country.ErrNotFound
	}

	list, err := c.fetchList(ctx, "/alpha/"+url.PathEscape(code), nil)
	if err != nil {
		return country.CountryDetail{}, err
	}
	if len(list) == 0 {
		return country.CountryDetail{}, fmt.Errorf("%w: %s", country.ErrNotFound, code)
	}
	return toDetail(list[0]), nil
}

// Neighbors resolves border codes to summaries. Codes that do not resolve
// are simply absent from the result.
func (c *RestCountriesClient) Neighbors(ctx context.Context, borders []string) ([]country.CountrySummary, error) {
	if len(borders) == 0 {
		return []country.CountrySummary{}, nil
	}
	codes := common.NormalizeCodes(borders)
	if len(codes) == 0 {
		return []country.CountrySummary{}, nil
	}

	values := url.Values{}
	values.Set("codes", strings.Join(codes, ","))
	list, err := c.fetchList(ctx, "/alpha", values)
	if err != nil {
		return nil, err
	}

	summaries := make([]country.CountrySummary, 0, len(list))
	for _, rc := range list {
		summaries = append(summaries, toSummary(rc))
	}
	return summaries, nil
}

// fetchList performs the request and decodes the payload as a list. A 404
// yields an empty list; a single object is treated as a one-element list.
func (c *RestCountriesClient) fetchList(ctx context.Context, path string, values url.Values) ([]restCountry, error) {
	if values == nil {
		values = url.Values{}
	}
	values.Set("fields", countryFields)
	u := fmt.Sprintf("%s%s?%s", c.BaseURL, path, values.Encode())

	log := logging.For("providers.restcountries").WithField("path", path)

	body, err := c.upstream.get(ctx, u)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			log.Debug("no results")
			return nil, nil
		}
		if errors.Is(err, ErrCanceled) {
			log.WithError(err).Debug("country directory request canceled")
			return nil, err
		}
		log.WithError(err).Error("country directory request failed")
		return nil, err
	}

	list, err := decodeCountries(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return list, nil
}

func decodeCountries(body []byte) ([]restCountry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one restCountry
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []restCountry{one}, nil
	}

	var list []restCountry
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func toSummary(rc restCountry) country.CountrySummary {
	var capital string
	if len(rc.Capital) > 0 {
		capital = rc.Capital[0]
	}
	timezones := rc.Timezones
	if timezones == nil {
		timezones = []string{}
	}
	return country.CountrySummary{
		Code:         rc.CCA2,
		Alpha3:       rc.CCA3,
		Name:         rc.Name.Common,
		OfficialName: rc.Name.Official,
		Capital:      capital,
		Region:       rc.Region,
		Subregion:    rc.Subregion,
		Population:   rc.Population,
		Area:         rc.Area,
		FlagPNG:      rc.Flags.PNG,
		FlagAlt:      rc.Flags.Alt,
		Timezones:    timezones,
		Currencies:   toCurrencies(rc.Currencies),
		Languages:    toLanguages(rc.Languages),
	}
}

func toDetail(rc restCountry) country.CountryDetail {
	borders := rc.Borders
	if borders == nil {
		borders = []string{}
	}
	var latlng [2]float64
	copy(latlng[:], rc.LatLng)

	demonyms := make(map[string]country.Demonym, len(rc.Demonyms))
	for lang, d := range rc.Demonyms {
		demonyms[lang] = country.Demonym{F: d.F, M: d.M}
	}

	return country.CountryDetail{
		CountrySummary: toSummary(rc),
		Borders:        borders,
		Maps: country.MapLinks{
			GoogleMaps:     rc.Maps.GoogleMaps,
			OpenStreetMaps: rc.Maps.OpenStreetMaps,
		},
		LatLng:      latlng,
		Demonyms:    demonyms,
		DrivingSide: rc.Car.Side,
		Independent: rc.Independent,
	}
}

// toCurrencies flattens the code-keyed currency object in upstream order,
// so the first entry stays the primary currency.
func toCurrencies(raw json.RawMessage) []country.CurrencyInfo {
	out := []country.CurrencyInfo{}
	if len(raw) == 0 {
		return out
	}
	gjson.ParseBytes(raw).ForEach(func(code, info gjson.Result) bool {
		out = append(out, country.CurrencyInfo{
			Code:   code.String(),
			Name:   info.Get("name").String(),
			Symbol: info.Get("symbol").String(),
		})
		return true
	})
	return out
}

func toLanguages(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	gjson.ParseBytes(raw).ForEach(func(_, name gjson.Result) bool {
		out = append(out, name.String())
		return true
	})
	return out
}
