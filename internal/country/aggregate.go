package country

import "strings"

const (
	maxHighlights    = 6
	minPreferredHits = 4
)

// preferredCurrencies is the basket shown first when enough of it is present.
var preferredCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD"}

// HighlightRates picks up to six rates to display for base. Preferred
// currencies win when at least four of them are present; otherwise the first
// six entries in upstream order are used. The base itself is never included.
func HighlightRates(rates Rates, base string) []Rate {
	base = strings.ToUpper(strings.TrimSpace(base))

	preferred := make(map[string]bool, len(preferredCurrencies))
	for _, code := range preferredCurrencies {
		if code != base {
			preferred[code] = true
		}
	}

	entries := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.Code != base {
			entries = append(entries, r)
		}
	}

	prioritized := make([]Rate, 0, maxHighlights)
	for _, r := range entries {
		if preferred[r.Code] && len(prioritized) < maxHighlights {
			prioritized = append(prioritized, r)
		}
	}
	if len(prioritized) >= minPreferredHits {
		return prioritized
	}

	if len(entries) > maxHighlights {
		entries = entries[:maxHighlights]
	}
	return entries
}

// FilterRegion keeps the countries whose region equals region, ignoring case.
func FilterRegion(countries []CountrySummary, region string) []CountrySummary {
	out := make([]CountrySummary, 0, len(countries))
	for _, c := range countries {
		if strings.EqualFold(c.Region, region) {
			out = append(out, c)
		}
	}
	return out
}
