package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"soles with US separators", "S/ 1,234.56", 1234.56},
		{"european separators", "1.234,56", 1234.56},
		{"no digits", "no price", 0},
		{"empty", "", 0},
		{"plain integer", "899", 899},
		{"currency code", "PEN 899", 899},
		{"dollar amount", "$1,299.00", 1299},
		{"soles with dot prefix", "S/. 2.499", 2.499},
		{"comma decimal", "1,5", 1.5},
		{"comma decimal two digits", "S/ 19,90", 19.9},
		{"comma thousands", "12,345", 12345},
		{"multiple comma thousands", "1,234,567", 1234567},
		{"dot thousands", "1.234.567", 1234567},
		{"falabella noise", "Precio normal S/ 3,299", 3299},
		{"case insensitive tokens", "ahora s/ 150", 150},
		{"lone comma", ",", 0},
		{"negative sign dropped", "-50", 50},
		{"negative sign with separators", "S/ -1,299.90", 1299.9},
		{"repeated commas short tail", "1,2,34", 1234},
		{"repeated commas one digit tail", "1,234,5", 12345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Parse(tt.raw), 1e-9)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1299.5", FormatAmount(1299.5))
	assert.Equal(t, "899", FormatAmount("899"))
	assert.Equal(t, "", FormatAmount(nil))
	assert.InDelta(t, 1299.5, Parse(FormatAmount(1299.5)), 1e-9)
}

func TestParseRating(t *testing.T) {
	v, ok := ParseRating("4,5 (120 opiniones)")
	assert.True(t, ok)
	assert.InDelta(t, 4.5, v, 1e-9)

	v, ok = ParseRating("Calificación 4.8 de 5")
	assert.True(t, ok)
	assert.InDelta(t, 4.8, v, 1e-9)

	_, ok = ParseRating("sin opiniones")
	assert.False(t, ok)
}

func TestParseDiscount(t *testing.T) {
	v, ok := ParseDiscount("-29%")
	assert.True(t, ok)
	assert.Equal(t, 29, v)

	_, ok = ParseDiscount("Envío gratis")
	assert.False(t, ok)
}
