package ledger

import (
	"strings"
	"time"
)

// normalizeDescription lowercases and collapses whitespace so that
// cosmetic differences do not defeat the duplicate check.
func normalizeDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type manualKey struct {
	amountCents int64
	description string
}

// manualIndex answers whether a manual entry already covers a candidate:
// same signed amount, same normalized description, dated within one
// calendar day. Bank rows are excluded; those are caught by identity.
type manualIndex struct {
	entries map[manualKey][]time.Time
}

func newManualIndex(manuals []Transaction) *manualIndex {
	idx := &manualIndex{entries: make(map[manualKey][]time.Time, len(manuals))}
	for _, m := range manuals {
		key := manualKey{m.AmountCents, normalizeDescription(m.Description)}
		idx.entries[key] = append(idx.entries[key], m.OccurredOn)
	}
	return idx
}

func (idx *manualIndex) matches(date time.Time, amountCents int64, description string) bool {
	key := manualKey{amountCents, normalizeDescription(description)}
	for _, d := range idx.entries[key] {
		if dayDelta(date, d) <= 1 {
			return true
		}
	}
	return false
}

// dayDelta is the absolute difference in calendar days, ignoring the
// time of day.
func dayDelta(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	delta := int(au.Sub(bu).Hours() / 24)
	if delta < 0 {
		delta = -delta
	}
	return delta
}
