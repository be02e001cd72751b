// Package scheduler drives the periodic background refresh of the current
// city using the interval from settings.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"weatherdesk/internal/service"
)

// refreshTimeout bounds one background refresh cycle.
const refreshTimeout = 30 * time.Second

// Scheduler runs the auto-refresh job. An interval of zero disables it.
type Scheduler struct {
	svc *service.Service
	log *zap.Logger

	mu    sync.Mutex
	cron  *gocron.Scheduler
	ivMin time.Duration
}

// New creates a stopped Scheduler.
func New(svc *service.Service, log *zap.Logger) *Scheduler {
	return &Scheduler{svc: svc, log: log}
}

// Start begins running the refresh job at the given interval. Zero leaves the
// scheduler idle until Reschedule is called with a positive interval.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(interval)
}

// Reschedule stops the running job and restarts it at the new interval. Zero
// stops auto-refresh entirely.
func (s *Scheduler) Reschedule(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.ivMin && s.cron != nil {
		return
	}
	s.stopLocked()
	s.startLocked(interval)
}

// Stop halts the refresh job. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) startLocked(interval time.Duration) {
	s.ivMin = interval
	if interval <= 0 {
		s.log.Info("auto-refresh disabled")
		return
	}

	s.cron = gocron.NewScheduler(time.UTC)
	if _, err := s.cron.Every(interval).Do(s.refresh); err != nil {
		s.log.Error("scheduling refresh job", zap.Error(err))
		s.cron = nil
		return
	}
	s.cron.StartAsync()
	s.log.Info("auto-refresh scheduled", zap.Duration("interval", interval))
}

func (s *Scheduler) stopLocked() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.svc.RefreshCurrent(ctx); err != nil {
		s.log.Warn("background refresh failed", zap.Error(err))
	}
}
