package spacetraveling

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// scheduler runs the app's periodic maintenance jobs.
type scheduler struct {
	s   gocron.Scheduler
	log *slog.Logger
}

func newScheduler(log *slog.Logger) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &scheduler{s: s, log: log}, nil
}

// every registers fn to run each interval. Runs of the same job never overlap.
func (s *scheduler) every(interval time.Duration, name string, fn func()) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	s.log.Debug("Scheduled job", "job", name, "interval", interval)
	return nil
}

func (s *scheduler) start() {
	s.s.Start()
}

func (s *scheduler) stop() error {
	return s.s.Shutdown()
}
