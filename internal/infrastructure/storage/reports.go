package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
)

// Report formats
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

const duplicatesSheet = "Duplicates"

// ScanReport is the persisted outcome of one batch detection run
type ScanReport struct {
	ID          uuid.UUID                      `json:"id"`
	TenantID    uuid.UUID                      `json:"tenant_id"`
	EntityType  domain.EntityType              `json:"entity_type"`
	GeneratedAt time.Time                      `json:"generated_at"`
	GroupCount  int                            `json:"group_count"`
	Groups      []deduplication.DuplicateGroup `json:"groups"`
}

// NewScanReport builds a report for the groups found in one scan
func NewScanReport(tenantID uuid.UUID, entityType domain.EntityType, groups []deduplication.DuplicateGroup) *ScanReport {
	if groups == nil {
		groups = []deduplication.DuplicateGroup{}
	}
	return &ScanReport{
		ID:          uuid.New(),
		TenantID:    tenantID,
		EntityType:  entityType,
		GeneratedAt: time.Now().UTC(),
		GroupCount:  len(groups),
		Groups:      groups,
	}
}

// FileMetadata contains information about a stored report file
type FileMetadata struct {
	ReportID    uuid.UUID
	StoredPath  string
	Size        int64
	Hash        string
	ContentType string
	CreatedAt   time.Time
}

// ReportStore keeps scan reports on the local filesystem, one directory per tenant and entity type
type ReportStore struct {
	basePath string
	logger   *slog.Logger
}

// NewReportStore creates the base directory and returns a store rooted at it
func NewReportStore(cfg *config.ReportsConfig, logger *slog.Logger) (*ReportStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("report directory is required")
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	return &ReportStore{
		basePath: cfg.Dir,
		logger:   logger,
	}, nil
}

// Save writes the report in the given format and returns its metadata
func (s *ReportStore) Save(ctx context.Context, report *ScanReport, format string) (*FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var encode func(io.Writer, *ScanReport) error
	switch format {
	case FormatJSON:
		encode = writeJSON
	case FormatXLSX:
		encode = writeXLSX
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}

	dir := s.ReportDir(report.TenantID, report.EntityType)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	destPath := filepath.Join(dir, reportFileName(report, format))
	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	defer destFile.Close()

	hash := sha256.New()
	counter := &countingWriter{}
	if err := encode(io.MultiWriter(destFile, hash, counter), report); err != nil {
		return nil, fmt.Errorf("failed to write %s report: %w", format, err)
	}

	metadata := &FileMetadata{
		ReportID:    report.ID,
		StoredPath:  destPath,
		Size:        counter.n,
		Hash:        hex.EncodeToString(hash.Sum(nil)),
		ContentType: getContentType(destPath),
		CreatedAt:   time.Now(),
	}

	s.logger.Info("scan report saved",
		slog.String("tenant_id", report.TenantID.String()),
		slog.String("entity_type", string(report.EntityType)),
		slog.String("format", format),
		slog.Int("groups", report.GroupCount),
		slog.String("path", destPath),
		slog.Int64("size", metadata.Size))

	return metadata, nil
}

// Load reads back a JSON report
func (s *ReportStore) Load(ctx context.Context, tenantID uuid.UUID, entityType domain.EntityType, name string) (*ScanReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath := filepath.Join(s.ReportDir(tenantID, entityType), filepath.Base(name))
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report not found: %s/%s/%s", tenantID, entityType, name)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", name, err)
	}
	return &report, nil
}

// List returns the stored report file names of a tenant keyed by entity type, oldest first
func (s *ReportStore) List(ctx context.Context, tenantID uuid.UUID) (map[domain.EntityType][]string, error) {
	result := make(map[domain.EntityType][]string)

	for _, entityType := range domain.ValidEntityTypes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := os.ReadDir(s.ReportDir(tenantID, entityType))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read report directory: %w", err)
		}

		var names []string
		for _, file := range files {
			if !file.IsDir() {
				names = append(names, file.Name())
			}
		}
		sort.Strings(names)

		if len(names) > 0 {
			result[entityType] = names
		}
	}

	return result, nil
}

// CleanupOld removes report files older than the given duration and returns how many were deleted
func (s *ReportStore) CleanupOld(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(s.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", path),
				slog.Any("error", err))
			return nil
		}

		if info.ModTime().Before(cutoffTime) {
			if err := os.Remove(path); err != nil {
				s.logger.Warn("failed to remove report",
					slog.String("path", path),
					slog.Any("error", err))
				return nil
			}
			removed++
			s.logger.Debug("removed old report",
				slog.String("path", path),
				slog.Time("mod_time", info.ModTime()))
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to cleanup reports: %w", err)
	}

	s.logger.Info("report cleanup completed",
		slog.Duration("older_than", olderThan),
		slog.Int("removed", removed))

	return removed, nil
}

// ReportDir returns the directory holding a tenant's reports for one entity type
func (s *ReportStore) ReportDir(tenantID uuid.UUID, entityType domain.EntityType) string {
	return filepath.Join(s.basePath, tenantID.String(), strings.ToLower(string(entityType)))
}

func reportFileName(report *ScanReport, format string) string {
	return fmt.Sprintf("%s_%s.%s", report.GeneratedAt.UTC().Format("20060102T150405Z"), report.ID, format)
}

func writeJSON(w io.Writer, report *ScanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeXLSX flattens the report to one row per match
func writeXLSX(w io.Writer, report *ScanReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", duplicatesSheet); err != nil {
		return err
	}

	header := []interface{}{"Master Candidate ID", "Entity Type", "Record ID", "Rule", "Confidence", "Matched Fields"}
	if err := f.SetSheetRow(duplicatesSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, group := range report.Groups {
		for _, match := range group.Matches {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				group.MasterCandidateID.String(),
				string(group.EntityType),
				match.RecordID.String(),
				match.RuleName,
				match.Confidence,
				strings.Join(match.MatchedFields, ", "),
			}
			if err := f.SetSheetRow(duplicatesSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}

	_, err := f.WriteTo(w)
	return err
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// getContentType returns the content type based on file extension
func getContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
