package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts attempted before the day-first bank formats. Every entry here
// is unambiguous about day/month order, so slash dates always fall
// through to the day-first list below.
var freeFormLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Day-first layouts used by Greek and most European bank exports.
// Non-padded layout digits also accept zero-padded input.
var dayFirstLayouts = []struct {
	layout    string
	shortYear bool
}{
	{"2/1/2006", false},
	{"2-1-2006", false},
	{"2/1/06", true},
}

// ParseDate parses a statement date token. It reports false when no
// layout matches; callers treat that as "skip this row", never as a
// fatal error. Two-digit years are corrected into the 2000s, so "1/3/25"
// is March 2025 rather than year 25.
func ParseDate(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}

	for _, layout := range freeFormLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return dateOnly(t), true
		}
	}

	for _, f := range dayFirstLayouts {
		t, err := time.Parse(f.layout, token)
		if err != nil {
			continue
		}
		if f.shortYear && t.Year() < 2000 {
			t = time.Date(2000+t.Year()%100, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return dateOnly(t), true
	}

	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Amount shapes per locale. A token must fully match one shape; partial
// matches fall through so "1,234.56" is never misread as one point two.
var (
	euAmountPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$|^\d+(?:,\d+)?$`)
	usAmountPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$|^\d+(?:\.\d+)?$`)
)

var currencySymbols = []string{"€", "$", "£", "EUR", "USD", "GBP", " "}

// ParseAmount parses a signed decimal token, trying the Greek/EU
// convention (dot thousands, comma decimal) before the US one. A leading
// minus survives both conventions. Reports false only when neither
// convention accepts the token.
func ParseAmount(token string) (decimal.Decimal, bool) {
	token = strings.TrimSpace(token)
	for _, sym := range currencySymbols {
		token = strings.ReplaceAll(token, sym, "")
	}
	token = strings.ReplaceAll(token, " ", "")
	if token == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	switch token[0] {
	case '-':
		negative = true
		token = token[1:]
	case '+':
		token = token[1:]
	}

	var normalized string
	switch {
	case euAmountPattern.MatchString(token):
		normalized = strings.ReplaceAll(token, ".", "")
		normalized = strings.ReplaceAll(normalized, ",", ".")
	case usAmountPattern.MatchString(token):
		normalized = strings.ReplaceAll(token, ",", "")
	default:
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
