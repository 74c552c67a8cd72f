package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONReader reads a JSON array of objects or a single object
type JSONReader struct {
	config *Config
}

// NewJSONReader creates a new JSON reader
func NewJSONReader(config *Config) *JSONReader {
	if config == nil {
		config = DefaultConfig()
	}
	return &JSONReader{config: config}
}

func (p *JSONReader) Read(ctx context.Context, r io.Reader) (*Sheet, error) {
	decoder := json.NewDecoder(bufio.NewReader(r))
	decoder.UseNumber()

	builder := newSheetBuilder(p.config, "JSON")

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object or array")
	}

	switch delim {
	case '[':
		for decoder.More() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			var object map[string]any
			if err := decoder.Decode(&object); err != nil {
				return nil, fmt.Errorf("failed to decode JSON record %d: %w", builder.sheet.TotalRows+1, err)
			}
			builder.addRow(objectRow(builder, object))
		}
	case '{':
		object, err := decodeObjectBody(decoder)
		if err != nil {
			return nil, err
		}
		builder.addRow(objectRow(builder, object))
	default:
		return nil, fmt.Errorf("expected a JSON object or array")
	}

	return builder.sheet, nil
}

func (p *JSONReader) Formats() []string {
	return []string{".json"}
}

// JSONLReader reads newline delimited JSON objects
type JSONLReader struct {
	config *Config
}

// NewJSONLReader creates a new JSONL reader
func NewJSONLReader(config *Config) *JSONLReader {
	if config == nil {
		config = DefaultConfig()
	}
	return &JSONLReader{config: config}
}

func (p *JSONLReader) Read(ctx context.Context, r io.Reader) (*Sheet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	builder := newSheetBuilder(p.config, "JSONL")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			builder.skip()
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()

		var object map[string]any
		if err := decoder.Decode(&object); err != nil {
			builder.skip()
			continue
		}
		builder.addRow(objectRow(builder, object))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL stream: %w", err)
	}

	return builder.sheet, nil
}

func (p *JSONLReader) Formats() []string {
	return []string{".jsonl", ".ndjson"}
}

// decodeObjectBody finishes decoding an object whose opening brace was consumed
func decodeObjectBody(decoder *json.Decoder) (map[string]any, error) {
	object := make(map[string]any)
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON key: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected JSON token %v", keyToken)
		}

		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode JSON value for %q: %w", key, err)
		}
		object[key] = value
	}
	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("failed to read closing brace: %w", err)
	}
	return object, nil
}

// objectRow flattens scalar fields; nested objects and arrays are ignored
func objectRow(builder *sheetBuilder, object map[string]any) Row {
	row := make(Row, len(object))
	for key, value := range object {
		col := CanonicalColumn(key)
		if col == "" {
			continue
		}

		switch v := value.(type) {
		case nil:
			row[col] = ""
		case string:
			row[col] = v
		case json.Number:
			row[col] = v.String()
		case bool:
			row[col] = fmt.Sprint(v)
		default:
			continue
		}
		builder.addColumn(col)
	}
	return row
}
