package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	calls []int
	err   error
}

func (r *recorder) RecordTime(_ context.Context, _ database.ID, minutes int) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, minutes)
	return nil
}

// run advances the clock and ticks once per simulated second.
func run(t *testing.T, tr *Tracker, clock *fakeClock, seconds int) {
	t.Helper()
	for i := 0; i < seconds; i++ {
		clock.Advance(time.Second)
		if err := tr.Tick(context.Background()); err != nil {
			t.Fatalf("Unexpected tick error: %v", err)
		}
	}
}

func TestTracker_PauseFlushesWholeMinutes(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{}
	tr := New(TaskRef{ID: 1, Title: "Test", TimeLimit: 60}, Options{Clock: clock.Now, Recorder: rec})

	tr.Start()
	run(t, tr, clock, 125)
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(rec.calls) != 1 || rec.calls[0] != 2 {
		t.Fatalf("Expected one call logging 2 minutes, got %v", rec.calls)
	}
	if got := tr.Pending(); got != 5 {
		t.Errorf("Expected 5 seconds carried over, got %d", got)
	}
	if got := tr.Remaining(); got != 60*60-125 {
		t.Errorf("Expected %d seconds remaining, got %d", 60*60-125, got)
	}
	if tr.Running() {
		t.Error("Expected tracker to be paused")
	}
}

func TestTracker_RemainderCarriesAcrossSessions(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{}
	tr := New(TaskRef{ID: 1, TimeLimit: 60}, Options{Clock: clock.Now, Recorder: rec})

	tr.Start()
	run(t, tr, clock, 40)
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("Expected nothing logged after 40s, got %v", rec.calls)
	}

	tr.Start()
	run(t, tr, clock, 30)
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 1 {
		t.Fatalf("Expected 1 minute logged, got %v", rec.calls)
	}
	if got := tr.Pending(); got != 10 {
		t.Errorf("Expected 10 seconds pending, got %d", got)
	}
	if got := tr.Logged(); got != 1 {
		t.Errorf("Expected 1 minute logged, got %d", got)
	}
}

func TestTracker_UsesWallClockNotTicks(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{}
	tr := New(TaskRef{ID: 1, TimeLimit: 60}, Options{Clock: clock.Now, Recorder: rec})

	tr.Start()
	clock.Advance(3*time.Minute + 500*time.Millisecond)
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(rec.calls) != 1 || rec.calls[0] != 3 {
		t.Fatalf("Expected 3 minutes logged, got %v", rec.calls)
	}
	if got := tr.Pending(); got != 0 {
		t.Errorf("Expected fractional seconds to be dropped, got %d pending", got)
	}
}

func TestTracker_ExpiryFlushesAndNotifies(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{}
	var expired []database.ID
	tr := New(TaskRef{ID: 9, TimeLimit: 2}, Options{
		Clock:    clock.Now,
		Recorder: rec,
		OnExpire: func(id database.ID) { expired = append(expired, id) },
	})

	tr.Start()
	run(t, tr, clock, 120)

	if tr.Running() {
		t.Error("Expected tracker to stop at zero")
	}
	if len(expired) != 1 || expired[0] != 9 {
		t.Errorf("Expected one expiry for task 9, got %v", expired)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 2 {
		t.Errorf("Expected 2 minutes logged, got %v", rec.calls)
	}

	run(t, tr, clock, 5)
	if len(expired) != 1 {
		t.Errorf("Expected ticks after expiry to be ignored, got %d expiries", len(expired))
	}
}

func TestTracker_RecorderFailureKeepsSeconds(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{err: errors.New("offline")}
	tr := New(TaskRef{ID: 1, TimeLimit: 60}, Options{Clock: clock.Now, Recorder: rec})

	tr.Start()
	clock.Advance(90 * time.Second)
	if err := tr.Pause(context.Background()); err == nil {
		t.Fatal("Expected recorder error")
	}
	if got := tr.Pending(); got != 90 {
		t.Errorf("Expected 90 seconds kept for retry, got %d", got)
	}

	rec.err = nil
	tr.Start()
	clock.Advance(30 * time.Second)
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 2 {
		t.Errorf("Expected retry to log 2 minutes, got %v", rec.calls)
	}
}

func TestTracker_ResetRestoresCountdown(t *testing.T) {
	clock := newFakeClock()
	rec := &recorder{}
	tr := New(TaskRef{ID: 1, TimeLimit: 10}, Options{Clock: clock.Now, Recorder: rec})

	tr.Start()
	run(t, tr, clock, 61)
	if err := tr.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := tr.Remaining(); got != 600 {
		t.Errorf("Expected countdown reset to 600, got %d", got)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 1 {
		t.Errorf("Expected 1 minute logged on reset, got %v", rec.calls)
	}
}

func TestTracker_Toggle(t *testing.T) {
	clock := newFakeClock()
	tr := New(TaskRef{ID: 1, TimeLimit: 10}, Options{Clock: clock.Now})

	if err := tr.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !tr.Running() {
		t.Fatal("Expected toggle to start the tracker")
	}
	clock.Advance(2 * time.Minute)
	if err := tr.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.Running() {
		t.Fatal("Expected toggle to pause the tracker")
	}
	if got := tr.Logged(); got != 2 {
		t.Errorf("Expected 2 minutes counted without a recorder, got %d", got)
	}
}

func TestTracker_StartCustom(t *testing.T) {
	tr := New(TaskRef{ID: 1, TimeLimit: 10}, Options{Clock: newFakeClock().Now})

	for _, m := range []int{0, -1, 481} {
		if err := tr.StartCustom(m); !errors.Is(err, ErrCustomDuration) {
			t.Errorf("Expected ErrCustomDuration for %d, got %v", m, err)
		}
	}
	if err := tr.StartCustom(120); err != nil {
		t.Fatal(err)
	}
	if got := tr.Remaining(); got != 7200 {
		t.Errorf("Expected 7200 seconds, got %d", got)
	}
	if !tr.Running() {
		t.Error("Expected custom timer to start")
	}
}

func TestTracker_LogManual(t *testing.T) {
	rec := &recorder{}
	tr := New(TaskRef{ID: 1, TimeLimit: 10}, Options{Recorder: rec})

	if err := tr.LogManual(context.Background(), 0); !errors.Is(err, ErrManualMinutes) {
		t.Errorf("Expected ErrManualMinutes, got %v", err)
	}
	if err := tr.LogManual(context.Background(), 15); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != 15 {
		t.Errorf("Expected 15 minutes recorded, got %v", rec.calls)
	}
	if got := tr.Pending(); got != 0 {
		t.Errorf("Expected manual log to bypass the accumulator, got %d pending", got)
	}
}

func TestTracker_ProgressAndAlmostDone(t *testing.T) {
	clock := newFakeClock()
	tr := New(TaskRef{ID: 1, TimeLimit: 1}, Options{Clock: clock.Now})

	if got := tr.Progress(); got != 100 {
		t.Errorf("Expected 100%% at start, got %v", got)
	}
	tr.Start()
	run(t, tr, clock, 48)
	if tr.AlmostDone() {
		t.Error("Expected 20% remaining to not be almost done")
	}
	run(t, tr, clock, 1)
	if !tr.AlmostDone() {
		t.Error("Expected under 20% remaining to be almost done")
	}
}

func TestTracker_NoLimitNeverExpires(t *testing.T) {
	clock := newFakeClock()
	expired := false
	tr := New(TaskRef{ID: 1}, Options{Clock: clock.Now, OnExpire: func(database.ID) { expired = true }})

	tr.Start()
	run(t, tr, clock, 90)
	if expired || !tr.Running() {
		t.Error("Expected a tracker without a limit to keep running")
	}
	if err := tr.Pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := tr.Logged(); got != 1 {
		t.Errorf("Expected 1 minute, got %d", got)
	}
}

func TestTracker_RunStopsWithContext(t *testing.T) {
	tr := New(TaskRef{ID: 1, TimeLimit: 10}, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}
}

func TestFormat(t *testing.T) {
	tests := map[int]string{
		0:     "00:00:00",
		59:    "00:00:59",
		3600:  "01:00:00",
		3725:  "01:02:05",
		-3:    "00:00:00",
		36000: "10:00:00",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Errorf("Format(%d): expected %s, got %s", in, want, got)
		}
	}
}
