package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// Monitor is one track's processing cycle
type Monitor interface {
	Track() models.Track
	Run(ctx context.Context) error
}

// Status is a snapshot of the scheduler state for the ops API
type Status struct {
	IsRunning         bool       `json:"is_running"`
	Interval          string     `json:"interval"`
	CyclesCompleted   uint64     `json:"cycles_completed"`
	TicksSkipped      uint64     `json:"ticks_skipped"`
	LastCycleStarted  *time.Time `json:"last_cycle_started,omitempty"`
	LastCycleDuration string     `json:"last_cycle_duration,omitempty"`
}

// Scheduler drives the escalation engine: one cycle immediately on start,
// then one per fixed interval. A cycle runs every monitor sequentially;
// a monitor failure is logged and isolated so the other track still runs.
// Cycles never overlap: a tick arriving while a cycle is still executing is
// skipped, not queued.
type Scheduler struct {
	monitors []Monitor
	interval time.Duration
	logger   logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	inCycle      atomic.Bool
	cycles       atomic.Uint64
	ticksSkipped atomic.Uint64

	statusMu          sync.Mutex
	lastCycleStarted  time.Time
	lastCycleDuration time.Duration
}

// NewScheduler creates a new Scheduler
func NewScheduler(monitors []Monitor, interval time.Duration, logger logger.Logger) *Scheduler {
	return &Scheduler{
		monitors: monitors,
		interval: interval,
		logger:   logger,
	}
}

// Start begins periodic execution. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.loop()
	}()

	s.logger.Info("Escalation scheduler started", "interval", s.interval, "monitors", len(s.monitors))
}

// Stop cancels the timer and marks the service inactive. An in-flight cycle
// finishes; only future ticks are prevented.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false

	s.logger.Info("Escalation scheduler stopped")
}

// Trigger runs one cycle outside the timer, subject to the same overlap
// guard. Used by the ops API's manual-run endpoint.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	ctx := s.ctx
	running := s.running
	s.mu.Unlock()

	if !running {
		ctx = context.Background()
	}

	s.runCycle(ctx)
}

// Status returns a snapshot of the scheduler state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	s.statusMu.Lock()
	started := s.lastCycleStarted
	duration := s.lastCycleDuration
	s.statusMu.Unlock()

	status := Status{
		IsRunning:       running,
		Interval:        s.interval.String(),
		CyclesCompleted: s.cycles.Load(),
		TicksSkipped:    s.ticksSkipped.Load(),
	}

	if !started.IsZero() {
		status.LastCycleStarted = &started
		status.LastCycleDuration = duration.String()
	}

	return status
}

func (s *Scheduler) loop() {
	// First cycle runs immediately, before the first tick
	s.runCycle(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(s.ctx)
		}
	}
}

// runCycle processes both tracks once. The CAS is the re-entrancy guard: if
// a prior cycle is still executing, this tick is dropped.
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.inCycle.CompareAndSwap(false, true) {
		s.ticksSkipped.Add(1)
		s.logger.Warn("Previous cycle still running, skipping tick")
		return
	}
	defer s.inCycle.Store(false)

	start := time.Now()

	s.statusMu.Lock()
	s.lastCycleStarted = start
	s.statusMu.Unlock()

	for _, monitor := range s.monitors {
		if err := monitor.Run(ctx); err != nil {
			// One track failing must not prevent the other from running
			s.logger.Error("Monitor cycle failed", "track", monitor.Track(), "error", err)
		}
	}

	duration := time.Since(start)

	s.statusMu.Lock()
	s.lastCycleDuration = duration
	s.statusMu.Unlock()

	s.cycles.Add(1)
	s.logger.Debug("Cycle completed", "duration", duration)
}
