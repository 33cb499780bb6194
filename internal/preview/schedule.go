package preview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
)

// scheduler requests a full rebuild on a fixed interval.
type scheduler struct {
	scheduler gocron.Scheduler
}

func newScheduler(interval time.Duration, r *rebuilder) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.Request, triggerInterval),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return &scheduler{scheduler: s}, nil
}

func (s *scheduler) Start() {
	slog.Info("Starting periodic rebuild scheduler")
	s.scheduler.Start()
}

func (s *scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown error", logfields.Error(err))
	}
}
