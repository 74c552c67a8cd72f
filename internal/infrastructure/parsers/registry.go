package parsers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Registry selects a RowReader by file extension
type Registry struct {
	config  *Config
	readers map[string]RowReader
}

// NewRegistry creates a registry with every built-in reader
func NewRegistry(config *Config) *Registry {
	if config == nil {
		config = DefaultConfig()
	}

	registry := &Registry{
		config:  config,
		readers: make(map[string]RowReader),
	}

	registry.Register(NewCSVReader(config))
	registry.Register(NewExcelReader(config))
	registry.Register(NewJSONReader(config))
	registry.Register(NewJSONLReader(config))

	return registry
}

// Register adds a reader for every extension it reports
func (f *Registry) Register(reader RowReader) {
	for _, ext := range reader.Formats() {
		f.readers[normalizeExt(ext)] = reader
	}
}

// ReaderFor returns the reader for a file path
func (f *Registry) ReaderFor(path string) (RowReader, error) {
	ext := normalizeExt(filepath.Ext(path))
	reader, ok := f.readers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q (supported: %s)", ext, strings.Join(f.Formats(), ", "))
	}
	return reader, nil
}

// ReadFile opens path and reads it with the matching reader
func (f *Registry) ReadFile(ctx context.Context, path string) (*Sheet, error) {
	reader, err := f.ReaderFor(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if f.config.MaxFileSize > 0 {
		stat, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		if stat.Size() > f.config.MaxFileSize {
			return nil, fmt.Errorf("file size %d exceeds maximum %d", stat.Size(), f.config.MaxFileSize)
		}
	}

	return reader.Read(ctx, file)
}

// Formats returns every supported extension, sorted
func (f *Registry) Formats() []string {
	formats := make([]string, 0, len(f.readers))
	for ext := range f.readers {
		formats = append(formats, ext)
	}
	slices.Sort(formats)
	return formats
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
