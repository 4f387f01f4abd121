package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	c := NewConverter(nil)

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{"usd to eur", 100, "USD", "EUR", 85},
		{"eur to gbp", 250, "EUR", "GBP", 215},
		{"rounds to cents", 33.33, "USD", "CAD", 41.66},
		{"case insensitive", 10, "gbp", "aud", 18.5},
		{"same currency unchanged", 12.345, "USD", "USD", 12.345},
		{"zero", 0, "CAD", "EUR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.amount, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvert_Unsupported(t *testing.T) {
	c := NewConverter(nil)

	_, err := c.Convert(10, "USD", "JPY")
	require.ErrorIs(t, err, ErrUnsupportedCurrency)
	assert.Contains(t, err.Error(), "USD to JPY")
}

func TestNewConverter_CustomTable(t *testing.T) {
	c := NewConverter(Table{"usd": {"jpy": 150}})

	got, err := c.Convert(2, "USD", "JPY")
	require.NoError(t, err)
	assert.InDelta(t, 300.0, got, 1e-9)

	_, err = c.Convert(2, "USD", "EUR")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency, "custom table replaces the defaults")

	assert.Equal(t, []string{"JPY", "USD"}, c.Codes())
}

func TestRate(t *testing.T) {
	c := NewConverter(nil)

	rate, ok := c.Rate("EUR", "EUR")
	assert.True(t, ok)
	assert.InDelta(t, 1.0, rate, 1e-9)

	_, ok = c.Rate("XYZ", "XYZ")
	assert.False(t, ok)

	assert.Equal(t, []string{"AUD", "CAD", "EUR", "GBP", "USD"}, c.Codes())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "USD", "$1,234.50"},
		{0, "EUR", "€0.00"},
		{12, "cad", "C$12.00"},
		{-12, "AUD", "-A$12.00"},
		{5, "CHF", "CHF5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.amount, tt.code))
		})
	}
}
