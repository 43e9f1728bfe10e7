// Package country maps countries to their primary currency for company
// signup. A static table answers instantly; the full list can be fetched
// from restcountries.com and is cached for a day.
package country

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Country struct {
	Name     string
	Currency string
}

var topCountries = []Country{
	{Name: "United States", Currency: "USD"},
	{Name: "United Kingdom", Currency: "GBP"},
	{Name: "Canada", Currency: "CAD"},
	{Name: "Australia", Currency: "AUD"},
	{Name: "Germany", Currency: "EUR"},
	{Name: "France", Currency: "EUR"},
	{Name: "India", Currency: "INR"},
	{Name: "Japan", Currency: "JPY"},
	{Name: "China", Currency: "CNY"},
	{Name: "Brazil", Currency: "BRL"},
	{Name: "Mexico", Currency: "MXN"},
	{Name: "South Africa", Currency: "ZAR"},
	{Name: "Singapore", Currency: "SGD"},
	{Name: "Netherlands", Currency: "EUR"},
	{Name: "Switzerland", Currency: "CHF"},
	{Name: "Sweden", Currency: "SEK"},
	{Name: "Norway", Currency: "NOK"},
	{Name: "Denmark", Currency: "DKK"},
	{Name: "New Zealand", Currency: "NZD"},
	{Name: "South Korea", Currency: "KRW"},
}

// Top returns the static country list sorted by name.
func Top() []Country {
	countries := make([]Country, len(topCountries))
	copy(countries, topCountries)
	sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })

	return countries
}

// CurrencyFor returns the currency for a country name, falling back to USD
// for countries outside the static table.
func CurrencyFor(name string) string {
	for _, c := range topCountries {
		if c.Name == name {
			return c.Currency
		}
	}

	return "USD"
}

const (
	fullListURL  = "https://restcountries.com/v3.1/all?fields=name,currencies"
	cacheTTL     = 24 * time.Hour
	fetchTimeout = 3 * time.Second
)

// Service serves the full country list with a cached remote fetch.
type Service struct {
	client *http.Client

	mu        sync.Mutex
	cached    []Country
	fetchedAt time.Time
}

func NewService() *Service {
	return &Service{client: &http.Client{Timeout: fetchTimeout}}
}

// Full returns every known country. On a cold or stale cache it fetches the
// list remotely and falls back to the static table if the fetch fails.
func (s *Service) Full(ctx context.Context) []Country {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < cacheTTL {
		return s.cached
	}

	countries, err := s.fetch(ctx)
	if err != nil {
		return Top()
	}

	s.cached = countries
	s.fetchedAt = time.Now()

	return countries
}

func (s *Service) fetch(ctx context.Context) ([]Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching countries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var payload []struct {
		Name struct {
			Common string `json:"common"`
		} `json:"name"`
		Currencies map[string]struct{} `json:"currencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding countries: %w", err)
	}

	countries := make([]Country, 0, len(payload))

	for _, entry := range payload {
		currency := "USD"
		for code := range entry.Currencies {
			currency = code
			break
		}

		countries = append(countries, Country{Name: entry.Name.Common, Currency: currency})
	}

	sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })

	return countries, nil
}
