package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/app"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/logger"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// loadApp reads configuration, sends logs to stderr and connects every backend
func loadApp(opts *RootOptions, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log := logger.InitializeWithWriter(cfg.Environment, firstNonEmpty(opts.LogLevel, cfg.LogLevel), cmd.ErrOrStderr())
	cfg.LogConfig(log)

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to start", err)
	}
	return a, nil
}

func parseTenant(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperrors.BadRequest(fmt.Sprintf("invalid tenant id %q", raw))
	}
	return id, nil
}

func parseEntityType(raw string) (domain.EntityType, error) {
	entityType, ok := domain.ParseEntityType(strings.TrimSpace(raw))
	if !ok {
		return "", apperrors.BadRequest(fmt.Sprintf("unknown entity type %q: use customers or leads", raw))
	}
	return entityType, nil
}

// parseIDList accepts a comma separated list of record ids, keeping order and repeats
func parseIDList(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid record id %q", part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
