package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header synonym lists per semantic field, covering the English and
// Greek names seen across bank exports. Matching is case-insensitive
// substring; the first header containing any synonym wins the field.
var (
	dateSynonyms = []string{
		"date", "hmerominia", "ημερομηνια", "ημερομηνία",
		"transaction date", "booking date", "time",
	}
	amountSynonyms = []string{
		"amount", "poso", "ποσο", "ποσό", "value", "euro", "eur",
	}
	descriptionSynonyms = []string{
		"description", "perigrafi", "περιγραφη", "περιγραφή",
		"details", "memo", "notes", "transaction details",
	}
)

// ExtractCSV parses a delimited statement export into candidates.
// Bank CSVs are irregular: headers vary per bank, fields go missing, and
// balance or carry-over rows sit between transactions. Rows whose date
// or amount fail to parse are dropped silently, never reported as
// errors.
func ExtractCSV(data []byte, delimiter rune) (*ExtractResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &ExtractResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	dateCol := matchColumn(header, dateSynonyms)
	amountCol := matchColumn(header, amountSynonyms)
	descCol := matchColumn(header, descriptionSynonyms)

	result := &ExtractResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, same treatment as an unparsable one.
			result.TotalRows++
			result.SkippedRows++
			continue
		}

		result.TotalRows++

		date, ok := ParseDate(fieldAt(record, dateCol))
		if !ok {
			result.SkippedRows++
			continue
		}

		amount, ok := ParseAmount(fieldAt(record, amountCol))
		if !ok || amount.IsZero() {
			result.SkippedRows++
			continue
		}

		desc := cleanDescription(fieldAt(record, descCol))
		if desc == "" {
			desc = PlaceholderDescription
		}

		result.Candidates = append(result.Candidates, NewCandidate(date, amount, desc))
	}

	return result, nil
}

// matchColumn returns the index of the first header containing any of
// the synonyms, or -1 when none does.
func matchColumn(headers []string, synonyms []string) int {
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		for _, syn := range synonyms {
			if strings.Contains(name, syn) {
				return i
			}
		}
	}
	return -1
}

func fieldAt(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return record[col]
}
