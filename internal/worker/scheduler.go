package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultInterval is the period between scheduled grid refreshes.
const DefaultInterval = 12 * time.Hour

// Runner is the job executed on every scheduler tick.
type Runner interface {
	Run(ctx context.Context) *RefreshResult
}

// SchedulerConfig holds configuration for the periodic refresh scheduler.
type SchedulerConfig struct {
	Job      Runner
	Interval time.Duration

	// RunOnStart triggers one refresh as soon as the scheduler starts.
	RunOnStart bool

	Logger zerolog.Logger
}

// Scheduler runs the refresh job on a fixed interval.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	job        Runner
	interval   time.Duration
	runOnStart bool
	logger     zerolog.Logger

	// ctx is cancelled by Stop so an in-flight run winds down.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		job:        cfg.Job,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.job == nil {
		return fmt.Errorf("scheduler: %w", ErrNoProvider)
	}

	sched := s.scheduler.Every(s.interval).SingletonMode()
	if s.runOnStart {
		sched = sched.StartImmediately()
	} else {
		sched = sched.WaitForSchedule()
	}

	if _, err := sched.Do(s.tick); err != nil {
		return fmt.Errorf("scheduling grid refresh: %w", err)
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Bool("run_on_start", s.runOnStart).
		Msg("grid refresh scheduled")

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) tick() {
	s.wg.Add(1)
	defer s.wg.Done()

	if s.ctx.Err() != nil {
		return
	}

	s.logger.Info().Msg("scheduler: running grid refresh")
	result := s.job.Run(s.ctx)
	s.logger.Info().
		Int("stored", result.Stored).
		Int("failed", result.Failed).
		Msg("scheduler: grid refresh finished")
}

// Stop cancels any in-flight run, stops future runs and waits for the
// current run to return.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.wg.Wait()
}
