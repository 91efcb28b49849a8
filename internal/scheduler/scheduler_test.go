package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMonitor counts runs and can block until released to simulate a slow
// cycle
type fakeMonitor struct {
	track   models.Track
	runs    atomic.Int64
	err     error
	block   chan struct{}
	started chan struct{}
}

func newFakeMonitor(track models.Track) *fakeMonitor {
	return &fakeMonitor{
		track:   track,
		started: make(chan struct{}, 16),
	}
}

func (f *fakeMonitor) Track() models.Track { return f.track }

func (f *fakeMonitor) Run(context.Context) error {
	f.runs.Add(1)

	select {
	case f.started <- struct{}{}:
	default:
	}

	if f.block != nil {
		<-f.block
	}

	return f.err
}

func waitForRun(t *testing.T, m *fakeMonitor) {
	t.Helper()

	select {
	case <-m.started:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not run in time")
	}
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)

	s := NewScheduler([]Monitor{monitor}, time.Hour, logger.NewLogger("error"))
	s.Start()
	defer s.Stop()

	waitForRun(t, monitor)
	assert.GreaterOrEqual(t, monitor.runs.Load(), int64(1))
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)

	s := NewScheduler([]Monitor{monitor}, time.Hour, logger.NewLogger("error"))
	s.Start()
	s.Start()
	defer s.Stop()

	waitForRun(t, monitor)

	// A second Start must not spawn a second loop with its own immediate
	// cycle. Give a duplicate loop time to show up, then check.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), monitor.runs.Load())
}

func TestScheduler_RunsBothTracksSequentially(t *testing.T) {
	online := newFakeMonitor(models.TrackOnlinePayment)
	grace := newFakeMonitor(models.TrackGracePeriod)

	s := NewScheduler([]Monitor{online, grace}, time.Hour, logger.NewLogger("error"))
	s.Start()
	defer s.Stop()

	waitForRun(t, online)
	waitForRun(t, grace)

	assert.Equal(t, int64(1), online.runs.Load())
	assert.Equal(t, int64(1), grace.runs.Load())
}

func TestScheduler_MonitorFailureDoesNotBlockOtherTrack(t *testing.T) {
	online := newFakeMonitor(models.TrackOnlinePayment)
	online.err = errors.New("query failed")
	grace := newFakeMonitor(models.TrackGracePeriod)

	s := NewScheduler([]Monitor{online, grace}, time.Hour, logger.NewLogger("error"))
	s.Start()
	defer s.Stop()

	waitForRun(t, grace)
	assert.Equal(t, int64(1), grace.runs.Load())
}

func TestScheduler_OverlappingTriggerIsSkipped(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)
	monitor.block = make(chan struct{})

	s := NewScheduler([]Monitor{monitor}, time.Hour, logger.NewLogger("error"))
	s.Start()

	// Wait until the immediate cycle is inside the blocked monitor, then
	// trigger manually: the guard must drop the overlapping cycle.
	waitForRun(t, monitor)
	s.Trigger()

	assert.Equal(t, int64(1), monitor.runs.Load())
	assert.Equal(t, uint64(1), s.Status().TicksSkipped)

	close(monitor.block)
	s.Stop()
}

func TestScheduler_TriggerWorksWhenStopped(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)

	s := NewScheduler([]Monitor{monitor}, time.Hour, logger.NewLogger("error"))

	// Never started: a manual trigger still runs one cycle
	s.Trigger()

	assert.Equal(t, int64(1), monitor.runs.Load())
}

func TestScheduler_StopPreventsFurtherCycles(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)

	s := NewScheduler([]Monitor{monitor}, 20*time.Millisecond, logger.NewLogger("error"))
	s.Start()

	waitForRun(t, monitor)
	s.Stop()

	runsAtStop := monitor.runs.Load()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, runsAtStop, monitor.runs.Load())
	assert.False(t, s.Status().IsRunning)
}

func TestScheduler_Status(t *testing.T) {
	monitor := newFakeMonitor(models.TrackOnlinePayment)

	s := NewScheduler([]Monitor{monitor}, time.Hour, logger.NewLogger("error"))

	initial := s.Status()
	assert.False(t, initial.IsRunning)
	assert.Equal(t, uint64(0), initial.CyclesCompleted)
	assert.Nil(t, initial.LastCycleStarted)

	s.Start()
	defer s.Stop()
	waitForRun(t, monitor)

	// The cycle counter increments after the monitors finish
	require.Eventually(t, func() bool {
		return s.Status().CyclesCompleted >= 1
	}, 2*time.Second, 10*time.Millisecond)

	status := s.Status()
	assert.True(t, status.IsRunning)
	assert.Equal(t, "1h0m0s", status.Interval)
	assert.NotNil(t, status.LastCycleStarted)
}
