package money

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Basic Money Operations Tests
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		want     int64
	}{
		{"positive cents", 1234, EUR, 1234},
		{"zero", 0, EUR, 0},
		{"negative cents", -5000, EUR, -5000},
		{"large amount", 999999999, EUR, 999999999},
		{"dollar", 1000, USD, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cents, tt.currency)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"precise decimal", "123.45", EUR, 12345},
		{"many decimals", "99.999", EUR, 10000}, // Rounds up
		{"whole number", "500", EUR, 50000},
		{"negative", "-25.50", EUR, -2550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := decimal.NewFromString(tt.amount)
			m := NewFromDecimal(d, tt.currency)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestNewFromString(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		european bool
		want     int64
		wantErr  bool
	}{
		{"simple", "123.45", EUR, false, 12345, false},
		{"with comma thousands", "1,234.56", USD, false, 123456, false},
		{"european format", "1.234,56", EUR, true, 123456, false},
		{"with euro sign", "€50,00", EUR, true, 5000, false},
		{"with dollar sign", "$99.99", USD, false, 9999, false},
		{"with spaces", "  100.00  ", EUR, false, 10000, false},
		{"invalid", "abc", EUR, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFromString(tt.amount, tt.currency, tt.european)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestZero(t *testing.T) {
	m := Zero(EUR)
	assert.True(t, m.IsZero())
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, EUR, m.Currency())
}

// ============================================================================
// Arithmetic Operations Tests
// ============================================================================

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		a       *Money
		b       *Money
		want    int64
		wantErr bool
	}{
		{"positive + positive", New(1000, EUR), New(500, EUR), 1500, false},
		{"positive + negative", New(1000, EUR), New(-300, EUR), 700, false},
		{"negative + negative", New(-100, EUR), New(-200, EUR), -300, false},
		{"with zero", New(1000, EUR), Zero(EUR), 1000, false},
		{"nil + value", nil, New(500, EUR), 500, false},
		{"different currencies", New(100, EUR), New(100, USD), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.a.Add(tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Amount())
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name    string
		a       *Money
		b       *Money
		want    int64
		wantErr bool
	}{
		{"positive - positive", New(1000, EUR), New(300, EUR), 700, false},
		{"positive - negative", New(1000, EUR), New(-300, EUR), 1300, false},
		{"result negative", New(100, EUR), New(300, EUR), -200, false},
		{"with zero", New(1000, EUR), Zero(EUR), 1000, false},
		{"different currencies", New(100, EUR), New(100, USD), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.a.Subtract(tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Amount())
		})
	}
}

func TestMultiply(t *testing.T) {
	tests := []struct {
		name   string
		m      *Money
		factor int64
		want   int64
	}{
		{"positive * positive", New(100, EUR), 5, 500},
		{"positive * negative", New(100, EUR), -3, -300},
		{"positive * zero", New(100, EUR), 0, 0},
		{"negative * positive", New(-100, EUR), 4, -400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.m.Multiply(tt.factor)
			assert.Equal(t, tt.want, result.Amount())
		})
	}
}

// ============================================================================
// Comparison Tests
// ============================================================================

func TestComparisons(t *testing.T) {
	a := New(1000, EUR)
	b := New(500, EUR)
	c := New(1000, EUR)

	assert.True(t, a.GreaterThan(b))
	assert.False(t, b.GreaterThan(a))
	assert.True(t, b.LessThan(a))
	assert.False(t, a.LessThan(b))
	assert.True(t, a.Equals(c))
	assert.False(t, a.Equals(b))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    *Money
		b    *Money
		want int
	}{
		{"greater", New(1000, EUR), New(500, EUR), 1},
		{"less", New(500, EUR), New(1000, EUR), -1},
		{"equal", New(1000, EUR), New(1000, EUR), 0},
		{"nil vs positive", nil, New(100, EUR), -1},
		{"nil vs nil", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestSameCurrency(t *testing.T) {
	a := New(100, EUR)
	b := New(200, EUR)
	c := New(100, USD)

	assert.True(t, a.SameCurrency(b))
	assert.False(t, a.SameCurrency(c))
}

// ============================================================================
// JSON Marshaling Tests
// ============================================================================

func TestJSONMarshal(t *testing.T) {
	m := New(12345, EUR)
	data, err := json.Marshal(m)

	require.NoError(t, err)

	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	require.NoError(t, err)

	assert.Equal(t, float64(12345), result["amount"])
	assert.Equal(t, "EUR", result["currency"])
	assert.Contains(t, result["display"], "€")
}

func TestJSONUnmarshal(t *testing.T) {
	data := []byte(`{"amount": 9999, "currency": "EUR"}`)

	var m Money
	err := json.Unmarshal(data, &m)

	require.NoError(t, err)
	assert.Equal(t, int64(9999), m.Amount())
	assert.Equal(t, EUR, m.Currency())
}

// ============================================================================
// Display and Formatting Tests
// ============================================================================

func TestDisplay(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		contains string
	}{
		{"EUR", 12345, EUR, "€"},
		{"USD", 12345, USD, "$"},
		{"negative", -5000, EUR, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cents, tt.currency)
			assert.Contains(t, m.Display(), tt.contains)
		})
	}
}

func TestString(t *testing.T) {
	m := New(12345, EUR)
	s := m.String()
	assert.Equal(t, "123.45", s)
}

func TestToDecimal(t *testing.T) {
	m := New(12345, EUR)
	d := m.ToDecimal()

	expected, _ := decimal.NewFromString("123.45")
	assert.True(t, d.Equal(expected))
}

func TestToFloat64(t *testing.T) {
	m := New(12345, EUR)
	f := m.ToFloat64()

	assert.InDelta(t, 123.45, f, 0.001)
}

// ============================================================================
// Edge Cases and Nil Safety Tests
// ============================================================================

func TestNilSafety(t *testing.T) {
	var m *Money

	// All these should not panic
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.Equal(t, "", m.CurrencySymbol())
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.False(t, m.IsNegative())
	assert.Equal(t, "€0.00", m.Display())
	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.ToDecimal().IsZero())
	assert.Equal(t, int64(0), m.Abs().Amount())
	assert.Equal(t, int64(0), m.Negate().Amount())
	assert.Equal(t, int64(0), m.Multiply(5).Amount())
}

// ============================================================================
// Statement Rendering Tests
// ============================================================================

func TestEUAmount(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{"simple", 4590, "45,90"},
		{"thousands", 123456, "1.234,56"},
		{"millions", 123456789, "1.234.567,89"},
		{"negative", -1250, "-12,50"},
		{"zero", 0, "0,00"},
		{"sub-euro", 5, "0,05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EUAmount(tt.cents))
		})
	}
}

// ============================================================================
// Test Data Generator Tests
// ============================================================================

func TestTestDataGenerator(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	t.Run("generates transaction", func(t *testing.T) {
		tx := gen.Transaction(EUR)
		assert.NotEmpty(t, tx.ID)
		assert.NotEmpty(t, tx.Description)
		assert.NotNil(t, tx.Amount)
		assert.NotEmpty(t, tx.Category)
	})

	t.Run("generates multiple transactions", func(t *testing.T) {
		txs := gen.Transactions(EUR, 10)
		assert.Len(t, txs, 10)
	})

	t.Run("generates expense", func(t *testing.T) {
		tx := gen.ExpenseTransaction(EUR)
		assert.True(t, tx.IsExpense)
		assert.True(t, tx.Amount.IsNegative())
	})

	t.Run("generates income", func(t *testing.T) {
		tx := gen.IncomeTransaction(EUR)
		assert.False(t, tx.IsExpense)
		assert.True(t, tx.Amount.IsPositive())
	})

	t.Run("renders csv statement", func(t *testing.T) {
		data := gen.CSVStatement(EUR, ';', 5)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, "ΗΜΕΡΟΜΗΝΙΑ;ΠΟΣΟ;ΠΕΡΙΓΡΑΦΗ", lines[0])
		for _, line := range lines[1:] {
			assert.Len(t, strings.Split(line, ";"), 3)
		}
	})

	t.Run("generates monthly set", func(t *testing.T) {
		txs := gen.MonthlyStatementSet(EUR)
		assert.Greater(t, len(txs), 20)
	})
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = New(12345, EUR)
	}
}

func BenchmarkNewFromDecimal(b *testing.B) {
	d := decimal.NewFromFloat(123.45)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewFromDecimal(d, EUR)
	}
}

func BenchmarkAdd(b *testing.B) {
	a := New(10000, EUR)
	c := New(5000, EUR)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Add(c)
	}
}

func BenchmarkEUAmount(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = EUAmount(123456789)
	}
}

func BenchmarkJSONMarshal(b *testing.B) {
	m := New(12345, EUR)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(m)
	}
}

func BenchmarkTestDataGenerator_Transaction(b *testing.B) {
	gen := NewTestDataGeneratorWithSeed(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.Transaction(EUR)
	}
}
