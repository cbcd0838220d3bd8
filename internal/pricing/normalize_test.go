// internal/pricing/normalize_test.go
package pricing

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"european thousands", "1.234,56", 1234.56, true},
		{"us thousands", "1,234.56", 1234.56, true},
		{"brl with qualifier", "R$ 99,90 à vista", 99.90, true},
		{"brl pix qualifier", "R$ 1.299,00 no pix", 1299.00, true},
		{"starting from qualifier", "$49.99 starting from today", 49.99, true},
		{"dollar sign", "$19.99", 19.99, true},
		{"euro comma decimal", "€ 7,50", 7.50, true},
		{"pound lone comma reads as decimal", "£1,000", 1.0, true},
		{"bare integer", "250", 250, true},
		{"lone period reads as decimal", "1.234", 1.234, true},
		{"single comma is decimal", "1234,56", 1234.56, true},
		{"trailing stray period", "1234.", 1234, true},
		{"trailing stray comma", "1234,", 1234, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"no digits", "preço indisponível", 0, false},
		{"qualifier only", "à vista", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
