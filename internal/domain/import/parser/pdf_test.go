package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPDFText(t *testing.T) {
	t.Run("parses a statement line with a glued reference code", func(t *testing.T) {
		// A common statement layout glues the posting code onto the
		// amount: here "960,00" is code "96" plus amount "0,00", which
		// recombine into 960.00.
		lines := []string{"01/03Coffee Shop Athens960,0003/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 0, result.SkippedRows)
		require.Len(t, result.Candidates, 1)

		c := result.Candidates[0]
		assert.Equal(t, "Coffee Shop Athens", c.Description)
		assert.True(t, decimal.RequireFromString("960.00").Equal(c.Amount), "got %s", c.Amount)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), c.Date)
		assert.Equal(t, Uncategorized, c.Category)
		assert.NotEmpty(t, c.Identity)
	})

	t.Run("parses a plain negative amount", func(t *testing.T) {
		lines := []string{"01/03Taverna Dinner-45,9003/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		c := result.Candidates[0]
		assert.Equal(t, "Taverna Dinner", c.Description)
		assert.True(t, decimal.RequireFromString("-45.90").Equal(c.Amount), "got %s", c.Amount)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), c.Date)
	})

	t.Run("parses a thousands amount", func(t *testing.T) {
		lines := []string{"05/03Rent March-1.234,5605/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		assert.True(t, decimal.RequireFromString("-1234.56").Equal(result.Candidates[0].Amount))
	})

	t.Run("extracts several transactions from one line", func(t *testing.T) {
		lines := []string{"01/03Coffee-4,5003/03/202502/03Lunch-12,0004/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		require.Len(t, result.Candidates, 2)

		assert.Equal(t, "Coffee", result.Candidates[0].Description)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), result.Candidates[0].Date)
		assert.Equal(t, "Lunch", result.Candidates[1].Description)
		assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), result.Candidates[1].Date)
	})

	t.Run("start date borrows the year from the end date", func(t *testing.T) {
		lines := []string{"28/12Year End Dinner-80,0002/01/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		// 28/12 with the end date's year 2025.
		assert.Equal(t, time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC), result.Candidates[0].Date)
	})

	t.Run("impossible start date falls back to the end date", func(t *testing.T) {
		lines := []string{"31/02Leap Special-10,0003/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), result.Candidates[0].Date)
	})

	t.Run("accepts two digit end years", func(t *testing.T) {
		lines := []string{"01/03Kiosk-5,0003/03/25"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), result.Candidates[0].Date)
	})

	t.Run("blank description falls back to placeholder", func(t *testing.T) {
		lines := []string{"01/03 -4,5003/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		assert.Equal(t, PDFPlaceholderDescription, result.Candidates[0].Description)
	})

	t.Run("collapses whitespace in descriptions", func(t *testing.T) {
		lines := []string{"01/03Coffee  Shop   Athens-9,9903/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		require.Len(t, result.Candidates, 1)
		assert.Equal(t, "Coffee Shop Athens", result.Candidates[0].Description)
	})

	t.Run("drops matches that stay at zero", func(t *testing.T) {
		lines := []string{"01/03Stuff0,0003/03/2025"}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 1, result.SkippedRows)
		assert.Empty(t, result.Candidates)
	})

	t.Run("ignores lines that do not look like transactions", func(t *testing.T) {
		lines := []string{
			"ΤΡΑΠΕΖΑ ΕΛΛΑΔΟΣ - Statement of Account",
			"Page 1 of 3",
			"01/03Coffee Shop-4,5003/03/2025",
			"Closing balance 1.234,56",
		}

		result, err := ExtractPDFText(lines)
		require.NoError(t, err)

		assert.Equal(t, 1, result.TotalRows)
		require.Len(t, result.Candidates, 1)
		assert.Equal(t, "Coffee Shop", result.Candidates[0].Description)
	})

	t.Run("no text lines means a scanned pdf", func(t *testing.T) {
		result, err := ExtractPDFText(nil)
		require.ErrorIs(t, err, ErrPDFNotTextBased)
		assert.Nil(t, result)
	})

	t.Run("text without any transaction pattern means a scanned pdf", func(t *testing.T) {
		lines := []string{"Monthly newsletter", "Nothing transactional here"}

		result, err := ExtractPDFText(lines)
		require.ErrorIs(t, err, ErrPDFNotTextBased)
		assert.Nil(t, result)
	})
}

func TestExtractPDFRejectsBinaryGarbage(t *testing.T) {
	result, err := ExtractPDF([]byte("definitely not a pdf"))
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestCombineShortDate(t *testing.T) {
	tests := []struct {
		name  string
		token string
		year  int
		want  string
		ok    bool
	}{
		{"valid", "1/3", 2025, "2025-03-01", true},
		{"padded", "01/03", 2025, "2025-03-01", true},
		{"end of year", "31/12", 2024, "2024-12-31", true},
		{"leap day on leap year", "29/2", 2024, "2024-02-29", true},
		{"leap day off leap year", "29/2", 2025, "", false},
		{"day overflow", "31/02", 2025, "", false},
		{"month overflow", "01/13", 2025, "", false},
		{"zero day", "0/3", 2025, "", false},
		{"not a pair", "010325", 2025, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := combineShortDate(tt.token, tt.year)
			if !tt.ok {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}
