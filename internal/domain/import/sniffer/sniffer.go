// Package sniffer decides whether an uploaded statement file can be
// processed and which extractor family should handle it.
package sniffer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind identifies the extractor family for an accepted upload.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindCSV
	KindExcel
	KindPDF
)

func (k FileKind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindExcel:
		return "excel"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyFile           = errors.New("file is empty")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExcelNotSupported   = errors.New("Excel files are not yet supported, please export the statement as CSV")
)

// Detect classifies an upload by its extension and, for delimited files,
// picks the field delimiter. Excel files are recognised but rejected
// explicitly so the caller reports that to the user instead of silently
// importing nothing.
func Detect(filename string, head []byte) (FileKind, rune, error) {
	if len(head) == 0 {
		return KindUnknown, 0, ErrEmptyFile
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV, DetectDelimiter(head), nil
	case ".xlsx", ".xls":
		return KindExcel, 0, ErrExcelNotSupported
	case ".pdf":
		return KindPDF, 0, nil
	default:
		return KindUnknown, 0, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filename)
	}
}

// DetectDelimiter picks the field delimiter from the first line.
// A semicolon anywhere on that line takes precedence over comma.
func DetectDelimiter(data []byte) rune {
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.ContainsRune(line, ';') {
		return ';'
	}
	return ','
}
