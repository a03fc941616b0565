package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"padded day first", "01/03/2025", "2025-03-01", true},
		{"unpadded day first", "1/3/2025", "2025-03-01", true},
		{"dashed day first", "01-03-2025", "2025-03-01", true},
		{"two digit year", "1/3/25", "2025-03-01", true},
		{"two digit year padded", "01/03/25", "2025-03-01", true},
		{"day first wins for ambiguous dates", "05/03/2025", "2025-03-05", true},
		{"iso", "2025-03-01", "2025-03-01", true},
		{"iso with time", "2025-03-01 14:30:22", "2025-03-01", true},
		{"iso t separator", "2025-03-01T14:30:22", "2025-03-01", true},
		{"slash iso", "2025/03/01", "2025-03-01", true},
		{"textual month", "1 March 2025", "2025-03-01", true},
		{"abbreviated month", "1 Mar 2025", "2025-03-01", true},
		{"us textual month", "March 1, 2025", "2025-03-01", true},
		{"surrounding whitespace", "  01/03/2025  ", "2025-03-01", true},
		{"empty", "", "", false},
		{"garbage", "not a date", "", false},
		{"month out of range", "01/13/2025", "", false},
		{"day out of range", "32/01/2025", "", false},
		{"bare number", "42", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.token)
			if !tt.ok {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
			assert.Equal(t, 0, got.Hour())
		})
	}
}

func TestParseDateTwoDigitYearCentury(t *testing.T) {
	// Two digit years always resolve into the 2000s, even ones the
	// standard library would place in the 1900s.
	got, ok := ParseDate("1/3/99")
	require.True(t, ok)
	assert.Equal(t, 2099, got.Year())

	got, ok = ParseDate("1/3/25")
	require.True(t, ok)
	assert.Equal(t, 2025, got.Year())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"european decimal comma", "45,90", "45.90", true},
		{"european thousands", "1.234,56", "1234.56", true},
		{"european millions", "1.234.567,89", "1234567.89", true},
		{"european negative", "-12,50", "-12.50", true},
		{"european negative thousands", "-1.234,56", "-1234.56", true},
		{"us thousands", "1,234.56", "1234.56", true},
		{"us negative thousands", "-1,234.56", "-1234.56", true},
		{"us plain decimal", "45.90", "45.90", true},
		{"plain integer", "960", "960", true},
		{"zero", "0,00", "0", true},
		{"explicit plus", "+45,90", "45.90", true},
		{"euro symbol", "€45,90", "45.90", true},
		{"euro symbol with space", "€ 45,90", "45.90", true},
		{"dollar symbol", "$1,234.56", "1234.56", true},
		{"pound symbol", "£12.34", "12.34", true},
		{"trailing currency code", "45,90 EUR", "45.90", true},
		{"leading currency code", "USD 1,234.56", "1234.56", true},
		{"space as thousands separator", "1 234,56", "1234.56", true},
		{"dotted thousands without decimals", "1.234", "1234", true},
		{"single comma reads as decimal", "1,234", "1.234", true},
		{"three digit dot group reads as thousands", "12.345", "12345", true},
		{"empty", "", "", false},
		{"garbage", "abc", "", false},
		{"mixed separators", "12.34,56.78", "", false},
		{"double sign", "--5", "", false},
		{"bare symbol", "€", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.token)
			if !tt.ok {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestParseAmountLocalePrecedence(t *testing.T) {
	// The same digits mean different things per locale. European
	// grouping is tried first, so "1.234" is one thousand, while the
	// unambiguous US shape "1,234.56" still parses as US.
	eu, ok := ParseAmount("1.234")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1234).Equal(eu))

	us, ok := ParseAmount("1,234.56")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(us))
}
