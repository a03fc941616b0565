package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	csvHead := []byte("Date,Amount,Description\n")

	tests := []struct {
		name     string
		filename string
		head     []byte
		wantKind FileKind
		wantErr  error
	}{
		{"csv", "statement.csv", csvHead, KindCSV, nil},
		{"csv uppercase extension", "STATEMENT.CSV", csvHead, KindCSV, nil},
		{"pdf", "statement.pdf", []byte("%PDF-1.4"), KindPDF, nil},
		{"xlsx rejected", "statement.xlsx", []byte{0x50, 0x4b, 0x03, 0x04}, KindExcel, ErrExcelNotSupported},
		{"xls rejected", "old-statement.xls", []byte{0xd0, 0xcf}, KindExcel, ErrExcelNotSupported},
		{"mixed case excel", "Statement.XlSx", []byte{0x50, 0x4b}, KindExcel, ErrExcelNotSupported},
		{"unknown extension", "notes.txt", []byte("hello"), KindUnknown, ErrUnsupportedFileType},
		{"no extension", "statement", []byte("data"), KindUnknown, ErrUnsupportedFileType},
		{"empty file", "statement.csv", nil, KindUnknown, ErrEmptyFile},
		{"empty pdf", "statement.pdf", []byte{}, KindUnknown, ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, err := Detect(tt.filename, tt.head)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"semicolon only", "ΗΜΕΡΟΜΗΝΙΑ;ΠΟΣΟ;ΠΕΡΙΓΡΑΦΗ\n01/03/2025;-45,90;ΚΑΦΕΣ", ';'},
		{"comma only", "Date,Amount,Description\n2025-03-01,-45.90,Coffee", ','},
		{"semicolon wins over comma", "Date;Amount,extra;Description\n", ';'},
		{"semicolon on later line ignored", "Date,Amount\n01/03/2025;-45,90", ','},
		{"no delimiter at all", "justoneword\n", ','},
		{"single line without newline", "a;b;c", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestFileKindString(t *testing.T) {
	assert.Equal(t, "csv", KindCSV.String())
	assert.Equal(t, "excel", KindExcel.String())
	assert.Equal(t, "pdf", KindPDF.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
