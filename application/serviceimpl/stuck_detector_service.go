package serviceimpl

import (
	"context"
	"time"

	"coffee-analysis/domain/repositories"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/scheduler"
)

// StuckDetectorService sweeps processing rows that never reached a terminal
// state, typically left behind by a worker crash between claim and persist.
type StuckDetectorService struct {
	logs       repositories.ProcessingLogRepository
	scheduler  scheduler.EventScheduler
	stuckAfter time.Duration
}

func NewStuckDetectorService(
	logs repositories.ProcessingLogRepository,
	eventScheduler scheduler.EventScheduler,
	stuckAfter time.Duration,
) *StuckDetectorService {
	if stuckAfter <= 0 {
		stuckAfter = 15 * time.Minute
	}
	return &StuckDetectorService{
		logs:       logs,
		scheduler:  eventScheduler,
		stuckAfter: stuckAfter,
	}
}

// RegisterDetectorJob schedules the sweep every minute.
func (s *StuckDetectorService) RegisterDetectorJob() error {
	return s.scheduler.AddJob("stuck_detector", "@every 1m", func() {
		s.RunDetection(context.Background())
	})
}

// RunDetection marks requests stuck in processing as failed.
func (s *StuckDetectorService) RunDetection(ctx context.Context) {
	cutoff := time.Now().Add(-s.stuckAfter)

	marked, err := s.logs.MarkStuckAsFailed(ctx, cutoff)
	if err != nil {
		logger.ErrorContext(ctx, "Stuck detection sweep failed", "error", err)
		return
	}

	if marked > 0 {
		logger.InfoContext(ctx, "Stuck requests marked as failed",
			"count", marked,
			"stuck_after", s.stuckAfter,
		)
	}
}
