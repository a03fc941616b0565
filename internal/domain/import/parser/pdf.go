package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

// ErrPDFNotTextBased reports a scanned or image-only PDF. Distinct from
// "no transactions found": the file had no extractable text at all.
var ErrPDFNotTextBased = errors.New("only text-based PDFs are supported; scanned statements cannot be imported")

// txLinePattern matches one transaction on an extracted statement line.
// PDF text extraction glues a visual row together with little or no
// whitespace, and several transactions may share one extracted line, so
// the pattern captures everything in a single pass:
//
//	start  - short date, day/month without year
//	desc   - lazily matched description span
//	code   - optional 2-3 digit bank/channel code
//	amount - strictly formatted signed EU amount
//	end    - full date carrying the authoritative year
var txLinePattern = regexp.MustCompile(
	`(?P<start>\d{1,2}/\d{1,2})` +
		`(?P<desc>.+?)` +
		`(?P<code>\d{2,3})?` +
		`(?P<amount>-?\d{1,3}(?:\.\d{3})*,\d{2})` +
		`(?P<end>\d{1,2}/\d{1,2}/\d{2,4})`)

var (
	startIdx  = txLinePattern.SubexpIndex("start")
	descIdx   = txLinePattern.SubexpIndex("desc")
	codeIdx   = txLinePattern.SubexpIndex("code")
	amountIdx = txLinePattern.SubexpIndex("amount")
	endIdx    = txLinePattern.SubexpIndex("end")
)

// ExtractPDF extracts candidates from a PDF statement.
func ExtractPDF(data []byte) (*ExtractResult, error) {
	lines, err := extractTextLines(data)
	if err != nil {
		return nil, err
	}
	return ExtractPDFText(lines)
}

// ExtractPDFText runs the composite pattern over already-extracted text
// lines. All non-overlapping matches on a line become independent
// candidates. Zero lines or zero matches across the whole document means
// the PDF carried no recognisable text layer.
func ExtractPDFText(lines []string) (*ExtractResult, error) {
	if len(lines) == 0 {
		return nil, ErrPDFNotTextBased
	}

	result := &ExtractResult{}
	totalMatches := 0

	for _, line := range lines {
		for _, m := range txLinePattern.FindAllStringSubmatch(line, -1) {
			totalMatches++
			result.TotalRows++

			// The end date is authoritative for the year.
			end, ok := ParseDate(m[endIdx])
			if !ok {
				result.SkippedRows++
				continue
			}

			// Start date borrows the end date's year; an impossible
			// combination (e.g. 31/02) falls back to the end date.
			start := end
			if t, ok := combineShortDate(m[startIdx], end.Year()); ok {
				start = t
			}

			amount, ok := ParseAmount(m[amountIdx])
			if !ok {
				result.SkippedRows++
				continue
			}

			// Recombination: the code group is a disambiguation hint,
			// not ground truth. When it captured digits and the amount
			// came out exactly zero, the digits belong to the amount.
			if code := m[codeIdx]; code != "" && amount.IsZero() {
				if fixed, ok := ParseAmount(code + m[amountIdx]); ok {
					amount = fixed
				}
			}
			if amount.IsZero() {
				result.SkippedRows++
				continue
			}

			desc := cleanDescription(m[descIdx])
			if desc == "" {
				desc = PDFPlaceholderDescription
			}

			result.Candidates = append(result.Candidates, NewCandidate(start, amount, desc))
		}
	}

	if totalMatches == 0 {
		return nil, ErrPDFNotTextBased
	}
	return result, nil
}

// combineShortDate builds a date from a "day/month" token and a year,
// rejecting combinations the calendar does not allow.
func combineShortDate(token string, year int) (time.Time, bool) {
	parts := strings.Split(token, "/")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		// time.Date normalised an invalid day, e.g. 31/02 -> 03/03.
		return time.Time{}, false
	}
	return t, true
}

// extractTextLines pulls the text layer out of a PDF. The reader library
// panics on some malformed files, so the recover converts that into an
// ordinary error.
func extractTextLines(data []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	raw, err := io.ReadAll(text)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf text: %w", err)
	}

	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
