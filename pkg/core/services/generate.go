// Package services orchestrates the rotation engine against configuration,
// roster files, and the history store.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mfenwick/oncall-roster/internal/config"
	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/history"
	"github.com/mfenwick/oncall-roster/pkg/roster"
)

// GenerateOptions controls one schedule generation run
type GenerateOptions struct {
	Year  int
	Month time.Month

	// Seed makes shuffles and tie-breaks reproducible when set
	Seed *int64

	// DryRun skips committing cumulative history
	DryRun bool
}

// GenerateSchedule loads rosters and PTO per the configuration, runs the
// rotation engine for the target month, logs the audit findings, and commits
// cumulative history through the store unless DryRun is set.
func GenerateSchedule(
	ctx context.Context,
	store history.Store,
	cfg *config.Config,
	logger *zap.Logger,
	opts GenerateOptions,
) (*engine.Result, error) {
	logger.Info("Generating schedule",
		zap.Int("year", opts.Year),
		zap.Stringer("month", opts.Month),
		zap.Bool("dry_run", opts.DryRun))

	rosters, err := LoadRosters(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Rosters loaded",
		zap.Int("tier2", len(rosters.Tier2)),
		zap.Int("tier3", len(rosters.Tier3)),
		zap.Int("upgrade", len(rosters.Upgrade)))

	unavail, err := roster.BuildUnavailable(cfg.PTO, cfg.BlackoutRulesByUser(), opts.Year, opts.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to build unavailable set: %w", err)
	}

	logger.Debug("Loading cumulative history")
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	result, err := engine.Generate(engine.Input{
		Rosters:      rosters,
		Unavailable:  unavail,
		Year:         opts.Year,
		Month:        opts.Month,
		Continuation: engine.ContinuationState{LastWeekly: state.LastWeekly},
		Cumulative:   state.Cumulative,
		Seed:         opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule generation failed: %w", err)
	}

	for _, note := range result.Notes {
		logger.Warn("Generation note", zap.String("note", note))
	}
	for _, finding := range result.Report.Critical {
		logger.Error("Validation critical", zap.String("finding", finding))
	}
	for _, finding := range result.Report.Warning {
		logger.Warn("Validation warning", zap.String("finding", finding))
	}
	for _, finding := range result.Report.Info {
		logger.Info("Validation info", zap.String("finding", finding))
	}
	logger.Info("Schedule generated",
		zap.String("run_id", result.RunID),
		zap.Int("weeks", len(result.Weeks)),
		zap.Int("fallback_events", len(result.Fallbacks)),
		zap.Int("critical", len(result.Report.Critical)),
		zap.Int("warnings", len(result.Report.Warning)))

	if opts.DryRun {
		logger.Info("Dry run, history not committed")
		return result, nil
	}

	if err := store.Save(ctx, history.State{
		Cumulative: result.Cumulative,
		LastWeekly: result.Continuation.LastWeekly,
	}); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	logger.Info("Cumulative history committed")

	return result, nil
}

// LoadRosters reads the three tier rosters from the configured files
func LoadRosters(cfg *config.Config) (engine.Rosters, error) {
	tier2, err := roster.LoadUsers(cfg.Tier2RosterFile)
	if err != nil {
		return engine.Rosters{}, fmt.Errorf("failed to load tier2 roster: %w", err)
	}
	tier3, err := roster.LoadUsers(cfg.Tier3RosterFile)
	if err != nil {
		return engine.Rosters{}, fmt.Errorf("failed to load tier3 roster: %w", err)
	}
	upgrade, err := roster.LoadUsers(cfg.UpgradeRosterFile)
	if err != nil {
		return engine.Rosters{}, fmt.Errorf("failed to load upgrade roster: %w", err)
	}
	return engine.Rosters{Tier2: tier2, Tier3: tier3, Upgrade: upgrade}, nil
}
