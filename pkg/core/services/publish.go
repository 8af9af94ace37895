package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mfenwick/oncall-roster/internal/config"
	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/history"
)

// SchedulePublisher writes a generated month somewhere visible to the team
type SchedulePublisher interface {
	PublishSchedule(spreadsheetID string, result *engine.Result) error
}

// PublishSchedule generates the target month and publishes it to the
// configured spreadsheet. History is committed unless opts.DryRun is set.
func PublishSchedule(
	ctx context.Context,
	store history.Store,
	publisher SchedulePublisher,
	cfg *config.Config,
	logger *zap.Logger,
	opts GenerateOptions,
) (*engine.Result, error) {
	if cfg.ScheduleSheetID == "" {
		return nil, fmt.Errorf("scheduleSheetID is not configured")
	}

	result, err := GenerateSchedule(ctx, store, cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("Publishing schedule",
		zap.String("spreadsheet_id", cfg.ScheduleSheetID),
		zap.String("run_id", result.RunID))

	if err := publisher.PublishSchedule(cfg.ScheduleSheetID, result); err != nil {
		return nil, fmt.Errorf("failed to publish schedule: %w", err)
	}

	logger.Info("Schedule published")
	return result, nil
}
