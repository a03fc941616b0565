package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drachma-app/drachma-api/pkg/money"
)

// QuickAddDraft is the result of parsing free-text quick capture input.
type QuickAddDraft struct {
	Description string    // Cleaned description text
	AmountCents int64     // Amount magnitude in cents
	Currency    string    // Detected currency code (EUR, USD)
	OccurredOn  time.Time // Entry date (default: today)
	RawText     string    // Original input text
}

// QuickAddParser parses natural language entry input such as
// "Coffee 4,50" or "Dinner €25".
type QuickAddParser struct {
	amountRegex *regexp.Regexp
}

// NewQuickAddParser creates a quick capture parser.
func NewQuickAddParser() *QuickAddParser {
	// Matches: 5, 4,50, €5, 5€, EUR 5, 10.50$
	// Groups: (currency_prefix)(amount)(currency_suffix)
	pattern := `(?:(\$|€|EUR|USD)\s*)?(\d+(?:[.,]\d{1,2})?)\s*(\$|€|EUR|USD)?`
	return &QuickAddParser{
		amountRegex: regexp.MustCompile(pattern),
	}
}

// Parse extracts an amount and description from free text. When no
// amount is present the whole text becomes the description and the
// caller decides what to do with a zero amount.
func (p *QuickAddParser) Parse(rawText string) QuickAddDraft {
	draft := QuickAddDraft{
		RawText:    rawText,
		OccurredOn: time.Now().UTC(),
		Currency:   money.EUR,
	}

	matches := p.amountRegex.FindAllStringSubmatchIndex(rawText, -1)
	if len(matches) == 0 {
		draft.Description = cleanQuickAddText(rawText)
		return draft
	}

	// The last number in the text is taken as the amount.
	match := matches[len(matches)-1]

	amountStr := rawText[match[4]:match[5]]
	draft.AmountCents = quickAddCents(amountStr)
	draft.Currency = p.detectCurrency(rawText, match)

	description := rawText[:match[0]] + rawText[match[1]:]
	draft.Description = cleanQuickAddText(description)

	return draft
}

// detectCurrency reads the currency from the prefix or suffix group.
func (p *QuickAddParser) detectCurrency(text string, match []int) string {
	if match[2] != -1 && match[3] != -1 {
		return normalizeCurrency(text[match[2]:match[3]])
	}
	if match[6] != -1 && match[7] != -1 {
		return normalizeCurrency(text[match[6]:match[7]])
	}
	return money.EUR
}

func normalizeCurrency(symbol string) string {
	switch strings.ToUpper(symbol) {
	case "$", "USD":
		return money.USD
	default:
		return money.EUR
	}
}

// quickAddCents converts an amount token to cents without going through
// floats, so "4,56" is exactly 456.
func quickAddCents(amountStr string) int64 {
	normalized := strings.Replace(amountStr, ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0
	}
	return d.Shift(2).Round(0).IntPart()
}

// cleanQuickAddText collapses whitespace and capitalizes the first rune.
func cleanQuickAddText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > 0 {
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	}
	return string(runes)
}
