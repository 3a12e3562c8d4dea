package services

import (
	"sync"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// IDGenerator hands out time-based ids (Unix milliseconds). Ids are
// strictly increasing within a process even when several are requested in
// the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

func NewIDGenerator(now Clock) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() database.ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return database.ID(ms)
}
