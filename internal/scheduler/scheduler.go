package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cleaner drops expired entries and reports how many were removed.
type Cleaner interface {
	Cleanup() int
}

// Scheduler runs cache maintenance on a cron schedule. It never refreshes
// weather data; refreshes only happen on request.
type Scheduler struct {
	cron     *cron.Cron
	cleaner  Cleaner
	logger   *zap.Logger
	schedule string
	entryID  cron.EntryID

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	runs         int
	totalRemoved int
}

func NewScheduler(cleaner Cleaner, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger.Sugar()}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar()})),
		),
		cleaner:  cleaner,
		logger:   logger,
		schedule: schedule,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.runCleanup)
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("Cache janitor started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

func (s *Scheduler) runCleanup() {
	start := time.Now()
	removed := s.cleaner.Cleanup()

	s.mu.Lock()
	s.lastRun = start
	s.runs++
	s.totalRemoved += removed
	s.mu.Unlock()

	s.logger.Debug("Cache cleanup completed",
		zap.Int("removed", removed),
		zap.Duration("duration", time.Since(start)))
}

// Stop halts the schedule and waits for a running cleanup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping cache janitor")
	<-s.cron.Stop().Done()
}

// ForceRun performs a cleanup immediately on the calling goroutine.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering cache cleanup")
	s.runCleanup()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":       s.running,
		"schedule":      s.schedule,
		"last_run":      s.lastRun,
		"runs":          s.runs,
		"total_removed": s.totalRemoved,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
