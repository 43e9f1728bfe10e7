package country_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendflow/spendflow/internal/country"
)

func TestCurrencyFor(t *testing.T) {
	assert.Equal(t, "GBP", country.CurrencyFor("United Kingdom"))
	assert.Equal(t, "EUR", country.CurrencyFor("Germany"))
	assert.Equal(t, "JPY", country.CurrencyFor("Japan"))

	// Anything outside the static table falls back to USD.
	assert.Equal(t, "USD", country.CurrencyFor("Atlantis"))
	assert.Equal(t, "USD", country.CurrencyFor(""))
}

func TestTop_SortedByName(t *testing.T) {
	countries := country.Top()
	require.Len(t, countries, 20)

	assert.True(t, sort.SliceIsSorted(countries, func(i, j int) bool {
		return countries[i].Name < countries[j].Name
	}))
}
