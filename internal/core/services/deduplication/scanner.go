package deduplication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// RunRecorder keeps the history of batch scans
type RunRecorder interface {
	StartRun(ctx context.Context, run *domain.ScanRun) error
	FinishRun(ctx context.Context, run *domain.ScanRun) error
}

// Scanner runs full scans by entity type and records each run when a recorder is set
type Scanner struct {
	detector Detector
	recorder RunRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewScanner creates a scanner. recorder may be nil.
func NewScanner(detector Detector, recorder RunRecorder, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		detector: detector,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan checks every active record of entityType in the tenant. The returned run is
// nil when no recorder is configured. History writes never fail the scan.
func (s *Scanner) Scan(ctx context.Context, tenantID uuid.UUID, entityType domain.EntityType, trigger string) ([]DuplicateGroup, *domain.ScanRun, error) {
	var run *domain.ScanRun
	if s.recorder != nil {
		run = domain.NewScanRun(tenantID, entityType, trigger, s.now().UTC())
		if err := s.recorder.StartRun(ctx, run); err != nil {
			s.logger.Warn("failed to record scan start",
				slog.String("run_id", run.ID.String()),
				slog.Any("error", err))
			run = nil
		}
	}

	groups, err := s.scan(ctx, tenantID, entityType)

	if run != nil {
		if err != nil {
			run.Fail(err, s.now().UTC())
		} else {
			run.Complete(len(groups), countMatches(groups), s.now().UTC())
		}
		// the scan context may already be cancelled
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if ferr := s.recorder.FinishRun(finishCtx, run); ferr != nil {
			s.logger.Warn("failed to record scan result",
				slog.String("run_id", run.ID.String()),
				slog.Any("error", ferr))
		}
	}

	if err != nil {
		return nil, run, err
	}
	return groups, run, nil
}

func (s *Scanner) scan(ctx context.Context, tenantID uuid.UUID, entityType domain.EntityType) ([]DuplicateGroup, error) {
	switch entityType {
	case domain.EntityTypeCustomer:
		return s.detector.FindCustomerDuplicates(ctx, tenantID, nil)
	case domain.EntityTypeLead:
		return s.detector.FindLeadDuplicates(ctx, tenantID, nil)
	}
	return nil, apperrors.BadRequest(fmt.Sprintf("unsupported entity type %q", entityType))
}

func countMatches(groups []DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Matches)
	}
	return n
}
