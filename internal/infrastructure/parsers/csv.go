package parsers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVReader reads comma separated files with a header row
type CSVReader struct {
	config *Config
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(config *Config) *CSVReader {
	if config == nil {
		config = DefaultConfig()
	}
	return &CSVReader{config: config}
}

func (p *CSVReader) Read(ctx context.Context, r io.Reader) (*Sheet, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	builder := newSheetBuilder(p.config, "CSV")
	builder.setHeader(header)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// malformed rows are counted and skipped
			builder.skip()
			continue
		}

		builder.addCells(cells)
	}

	return builder.sheet, nil
}

func (p *CSVReader) Formats() []string {
	return []string{".csv"}
}
