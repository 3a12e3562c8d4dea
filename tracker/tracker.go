// Package tracker implements the per-task countdown timer. Elapsed wall
// clock time is accumulated across sessions and flushed to a Recorder in
// whole minutes; leftover seconds carry into the next session.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

const (
	MinCustomMinutes = 1
	MaxCustomMinutes = 480

	almostDonePercent = 20
)

var (
	ErrCustomDuration = fmt.Errorf("custom duration must be between %d and %d minutes", MinCustomMinutes, MaxCustomMinutes)
	ErrManualMinutes  = errors.New("logged minutes must be positive")
)

// Recorder receives whole minutes of tracked time.
type Recorder interface {
	RecordTime(ctx context.Context, taskID database.ID, minutes int) error
}

// TaskRef is the part of a task the tracker needs.
type TaskRef struct {
	ID        database.ID
	Title     string
	TimeLimit database.Minutes
}

type Options struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Recorder may be nil, in which case flushed minutes are only counted.
	Recorder Recorder
	// OnExpire is called after the countdown reached zero and the session
	// was flushed.
	OnExpire func(taskID database.ID)
	// OnTick is called with the remaining seconds after every tick.
	OnTick func(remaining int)
	// OnError receives flush failures from Run.
	OnError func(err error)
}

type Tracker struct {
	task TaskRef
	opts Options

	mu           sync.Mutex
	remaining    int
	running      bool
	sessionStart time.Time
	pending      int // seconds not yet flushed
	logged       int // minutes flushed so far
}

func New(task TaskRef, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tracker{
		task:      task,
		opts:      opts,
		remaining: int(task.TimeLimit) * 60,
	}
}

// Start begins a session. Starting a running tracker does nothing.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked()
}

func (t *Tracker) startLocked() {
	if t.running {
		return
	}
	t.running = true
	t.sessionStart = t.opts.Clock()
}

// StartCustom restarts the countdown at minutes and starts a session.
func (t *Tracker) StartCustom(minutes int) error {
	if minutes < MinCustomMinutes || minutes > MaxCustomMinutes {
		return ErrCustomDuration
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = minutes * 60
	t.startLocked()
	return nil
}

// Pause ends the session and flushes whole minutes.
func (t *Tracker) Pause(ctx context.Context) error {
	t.mu.Lock()
	t.endSessionLocked()
	t.mu.Unlock()
	return t.flush(ctx)
}

// Toggle pauses a running tracker and starts a stopped one.
func (t *Tracker) Toggle(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.startLocked()
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	return t.Pause(ctx)
}

// Reset ends the session, flushes, and restores the countdown to the task's
// time limit.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	t.endSessionLocked()
	t.remaining = int(t.task.TimeLimit) * 60
	t.mu.Unlock()
	return t.flush(ctx)
}

// Tick advances the countdown by one second. When it reaches zero the
// session ends, is flushed, and OnExpire fires. A stopped tracker or one
// without a countdown ignores ticks.
func (t *Tracker) Tick(ctx context.Context) error {
	t.mu.Lock()
	if !t.running || t.remaining <= 0 {
		t.mu.Unlock()
		return nil
	}
	t.remaining--
	remaining := t.remaining
	expired := remaining == 0
	if expired {
		t.endSessionLocked()
	}
	t.mu.Unlock()

	if t.opts.OnTick != nil {
		t.opts.OnTick(remaining)
	}
	if !expired {
		return nil
	}

	err := t.flush(ctx)
	if t.opts.OnExpire != nil {
		t.opts.OnExpire(t.task.ID)
	}
	return err
}

// Run ticks once per second until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Tick(ctx); err != nil && t.opts.OnError != nil {
				t.opts.OnError(err)
			}
		}
	}
}

// LogManual records minutes directly, bypassing the accumulator.
func (t *Tracker) LogManual(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return ErrManualMinutes
	}
	if t.opts.Recorder != nil {
		if err := t.opts.Recorder.RecordTime(ctx, t.task.ID, minutes); err != nil {
			return err
		}
	}

	t.mu.Lock()
	t.logged += minutes
	t.mu.Unlock()
	return nil
}

func (t *Tracker) endSessionLocked() {
	if !t.running {
		return
	}
	t.running = false
	elapsed := int(t.opts.Clock().Sub(t.sessionStart) / time.Second)
	if elapsed > 0 {
		t.pending += elapsed
	}
	t.sessionStart = time.Time{}
}

// flush sends the whole minutes of the accumulator to the recorder. On
// failure the seconds go back into the accumulator.
func (t *Tracker) flush(ctx context.Context) error {
	t.mu.Lock()
	minutes := t.pending / 60
	if minutes == 0 {
		t.mu.Unlock()
		return nil
	}
	t.pending -= minutes * 60
	t.mu.Unlock()

	var err error
	if t.opts.Recorder != nil {
		err = t.opts.Recorder.RecordTime(ctx, t.task.ID, minutes)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.pending += minutes * 60
		return fmt.Errorf("failed to record %d minutes: %w", minutes, err)
	}
	t.logged += minutes
	return nil
}

func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Remaining returns the countdown in seconds.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Pending returns the seconds accumulated but not yet flushed.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Logged returns the minutes flushed or logged manually.
func (t *Tracker) Logged() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logged
}

// Progress is the share of the task's time limit still remaining, as a
// percentage clamped to 0..100.
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	base := int(t.task.TimeLimit) * 60
	if base <= 0 {
		base = 1
	}
	p := float64(t.remaining) / float64(base) * 100
	return min(max(p, 0), 100)
}

// AlmostDone reports less than 20% of the time limit remaining.
func (t *Tracker) AlmostDone() bool {
	return t.Progress() < almostDonePercent
}

// Format renders seconds as HH:MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
