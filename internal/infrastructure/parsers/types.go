package parsers

import (
	"context"
	"io"
	"strings"
	"unicode"
)

// Row is one input record keyed by canonical column name
type Row map[string]string

// Sheet holds the rows read from one intake file
type Sheet struct {
	Rows        []Row
	Columns     []string
	TotalRows   int
	SkippedRows int
	Format      string
}

// RowReader reads tabular records from a stream
type RowReader interface {
	Read(ctx context.Context, r io.Reader) (*Sheet, error)

	// Formats returns the file extensions handled by this reader
	Formats() []string
}

// Config holds settings shared by every reader
type Config struct {
	SkipEmptyRows bool

	// MaxFileSize is the maximum file size in bytes (0 = unlimited)
	MaxFileSize int64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SkipEmptyRows: true,
		MaxFileSize:   100 * 1024 * 1024,
	}
}

// CanonicalColumn lowercases a header and drops everything but letters and digits,
// so "Tax ID", "tax_id" and "TaxId" all become "taxid".
func CanonicalColumn(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sheetBuilder turns header-plus-cells input into a Sheet
type sheetBuilder struct {
	cfg     *Config
	header  []string
	sheet   *Sheet
	columns map[string]bool
}

func newSheetBuilder(cfg *Config, format string) *sheetBuilder {
	return &sheetBuilder{
		cfg:     cfg,
		sheet:   &Sheet{Format: format},
		columns: make(map[string]bool),
	}
}

func (b *sheetBuilder) setHeader(header []string) {
	b.header = make([]string, len(header))
	for i, h := range header {
		b.header[i] = CanonicalColumn(h)
		b.addColumn(b.header[i])
	}
}

func (b *sheetBuilder) addColumn(name string) {
	if name != "" && !b.columns[name] {
		b.columns[name] = true
		b.sheet.Columns = append(b.sheet.Columns, name)
	}
}

func (b *sheetBuilder) addCells(cells []string) {
	row := make(Row, len(b.header))
	for i, col := range b.header {
		if col == "" {
			continue
		}
		if i < len(cells) {
			row[col] = strings.TrimSpace(cells[i])
		} else {
			row[col] = ""
		}
	}
	b.addRow(row)
}

func (b *sheetBuilder) addRow(row Row) {
	b.sheet.TotalRows++
	if b.cfg.SkipEmptyRows && row.empty() {
		b.sheet.SkippedRows++
		return
	}
	b.sheet.Rows = append(b.sheet.Rows, row)
}

func (b *sheetBuilder) skip() {
	b.sheet.TotalRows++
	b.sheet.SkippedRows++
}

func (r Row) empty() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
