package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/session"
)

type SessionLister interface {
	ListIdle(ctx context.Context, before time.Time) ([]models.InterviewSession, error)
	ListCompletedWithoutReport(ctx context.Context, limit int) ([]models.InterviewSession, error)
}

type SessionCloser interface {
	Abandon(ctx context.Context, sessionID, reason string) (*models.InterviewSession, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, session *models.InterviewSession) (*models.CandidateReport, error)
}

// MaintenanceConfig contains configuration for the maintenance job
type MaintenanceConfig struct {
	Schedule          string        // cron schedule, e.g. "*/10 * * * *"
	IdleTimeout       time.Duration // ACTIVE sessions untouched this long are abandoned
	BackfillBatchSize int           // reports generated per run at most
}

// Result counts what one run changed
type Result struct {
	Abandoned int
	Reports   int
}

// MaintenanceJob abandons idle sessions and generates reports that are missing for completed
// ones, e.g. after a crash between completion and report generation
type MaintenanceJob struct {
	sessions SessionLister
	closer   SessionCloser
	reports  ReportGenerator
	config   *MaintenanceConfig
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

func NewMaintenanceJob(sessions SessionLister, closer SessionCloser, reports ReportGenerator, config *MaintenanceConfig, logger *zap.Logger) *MaintenanceJob {
	if config.BackfillBatchSize <= 0 {
		config.BackfillBatchSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceJob{
		sessions: sessions,
		closer:   closer,
		reports:  reports,
		config:   config,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules RunOnce on the configured schedule
func (j *MaintenanceJob) Start() error {
	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error("Maintenance run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Maintenance job started", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (j *MaintenanceJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Maintenance job stopped")
	}
}

// RunOnce performs a single sweep followed by a report backfill
func (j *MaintenanceJob) RunOnce(ctx context.Context) (Result, error) {
	var result Result

	abandoned, sweepErr := j.sweepIdle(ctx)
	result.Abandoned = abandoned

	generated, backfillErr := j.backfillReports(ctx)
	result.Reports = generated

	j.logger.Info("Maintenance run finished",
		zap.Int("abandoned", result.Abandoned),
		zap.Int("reports", result.Reports))
	return result, errors.Join(sweepErr, backfillErr)
}

func (j *MaintenanceJob) sweepIdle(ctx context.Context) (int, error) {
	if j.config.IdleTimeout <= 0 {
		return 0, nil
	}
	idle, err := j.sessions.ListIdle(ctx, j.now().UTC().Add(-j.config.IdleTimeout))
	if err != nil {
		return 0, fmt.Errorf("failed to list idle sessions: %w", err)
	}

	count := 0
	var errs []error
	for _, s := range idle {
		_, err := j.closer.Abandon(ctx, s.ID, "idle")
		switch {
		case err == nil:
			count++
		case errors.Is(err, session.ErrSessionNotActive), errors.Is(err, session.ErrInconsistentState):
			// the candidate came back or finished meanwhile
		default:
			errs = append(errs, fmt.Errorf("abandon session %s: %w", s.ID, err))
		}
	}
	return count, errors.Join(errs...)
}

func (j *MaintenanceJob) backfillReports(ctx context.Context) (int, error) {
	pending, err := j.sessions.ListCompletedWithoutReport(ctx, j.config.BackfillBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions without report: %w", err)
	}

	count := 0
	var errs []error
	for i := range pending {
		if _, err := j.reports.Generate(ctx, &pending[i]); err != nil {
			errs = append(errs, fmt.Errorf("report for session %s: %w", pending[i].ID, err))
			continue
		}
		count++
	}
	return count, errors.Join(errs...)
}
