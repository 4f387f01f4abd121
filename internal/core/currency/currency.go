// Package currency converts and formats amounts using a fixed rate table.
package currency

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnsupportedCurrency is returned when no rate exists for a pair.
var ErrUnsupportedCurrency = errors.New("unsupported currency pair")

// Table maps a source code to target codes and their rates.
type Table map[string]map[string]float64

// DefaultTable returns the built-in indicative rates.
func DefaultTable() Table {
	return Table{
		"USD": {"EUR": 0.85, "GBP": 0.73, "CAD": 1.25, "AUD": 1.35},
		"EUR": {"USD": 1.18, "GBP": 0.86, "CAD": 1.47, "AUD": 1.59},
		"GBP": {"USD": 1.37, "EUR": 1.16, "CAD": 1.71, "AUD": 1.85},
		"CAD": {"USD": 0.80, "EUR": 0.68, "GBP": 0.58, "AUD": 1.08},
		"AUD": {"USD": 0.74, "EUR": 0.63, "GBP": 0.54, "CAD": 0.93},
	}
}

// Converter converts amounts between the codes in its table.
type Converter struct {
	rates Table
}

// NewConverter returns a converter over rates. Codes are normalized to upper
// case. A nil or empty table selects DefaultTable.
func NewConverter(rates Table) *Converter {
	if len(rates) == 0 {
		rates = DefaultTable()
	}

	norm := make(Table, len(rates))
	for from, targets := range rates {
		row := make(map[string]float64, len(targets))
		for to, rate := range targets {
			row[strings.ToUpper(to)] = rate
		}
		norm[strings.ToUpper(from)] = row
	}

	return &Converter{rates: norm}
}

// Rate returns the rate from one code to another. A code converts to itself
// at 1 when it appears anywhere in the table.
func (c *Converter) Rate(from, to string) (float64, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to && c.Supports(from) {
		return 1, true
	}
	rate, ok := c.rates[from][to]
	return rate, ok
}

// Convert returns amount in the target currency rounded to two decimals.
// Converting a currency to itself returns amount unchanged.
func (c *Converter) Convert(amount float64, from, to string) (float64, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}

	rate, ok := c.Rate(from, to)
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedCurrency, strings.ToUpper(from), strings.ToUpper(to))
	}

	return math.Round(amount*rate*100) / 100, nil
}

// Supports reports whether code appears as a source or target in the table.
func (c *Converter) Supports(code string) bool {
	code = strings.ToUpper(code)
	if _, ok := c.rates[code]; ok {
		return true
	}
	for _, targets := range c.rates {
		if _, ok := targets[code]; ok {
			return true
		}
	}
	return false
}

// Codes returns every currency code in the table, sorted.
func (c *Converter) Codes() []string {
	seen := make(map[string]bool)
	for from, targets := range c.rates {
		seen[from] = true
		for to := range targets {
			seen[to] = true
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
}

// Symbol returns the display symbol for code, or the upper-cased code itself
// when it has none.
func Symbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

var printer = message.NewPrinter(language.English)

// Format renders amount with the currency symbol, thousands grouping and two
// decimals, e.g. "$1,234.50" or "-€12.00".
func Format(amount float64, code string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + Symbol(code) + printer.Sprintf("%.2f", amount)
}
