package parsers

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelReader reads the first sheet of an .xlsx workbook
type ExcelReader struct {
	config *Config
}

// NewExcelReader creates a new Excel reader
func NewExcelReader(config *Config) *ExcelReader {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExcelReader{config: config}
}

func (p *ExcelReader) Read(ctx context.Context, r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	defer rows.Close()

	builder := newSheetBuilder(p.config, "XLSX")
	headerRead := false

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := rows.Columns()
		if err != nil {
			builder.skip()
			continue
		}

		if !headerRead {
			builder.setHeader(cells)
			headerRead = true
			continue
		}
		builder.addCells(cells)
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet %s: %w", sheetName, err)
	}

	return builder.sheet, nil
}

func (p *ExcelReader) Formats() []string {
	return []string{".xlsx"}
}
