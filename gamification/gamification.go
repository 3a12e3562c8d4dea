// Package gamification awards points, levels and badges in response to
// task and focus-timer events.
package gamification

import (
	"slices"
)

type Event string

const (
	EventTaskCreated   Event = "task_created"
	EventTaskCompleted Event = "task_completed"
	EventFocusSession  Event = "focus_session"
)

func (e Event) Valid() bool {
	switch e {
	case EventTaskCreated, EventTaskCompleted, EventFocusSession:
		return true
	}
	return false
}

// Badges. A badge is unlocked once and never revoked.
const (
	BadgeFirst10   = "first_10"
	BadgeCenturion = "centurion"
	BadgeFocused   = "focused"

	// BadgeRisingStar is derived from the level and never stored.
	BadgeRisingStar = "level_5"
)

const (
	pointsTaskCreated  = 2
	pointsFocusSession = 5
	pointsPerLevel     = 100
)

var completionPoints = map[string]int{
	"high":   10,
	"medium": 5,
	"low":    3,
}

// Points returns the tariff for an event. Completion points depend on the
// task priority; an unknown priority is treated as medium.
func Points(event Event, priority string) int {
	switch event {
	case EventTaskCreated:
		return pointsTaskCreated
	case EventTaskCompleted:
		if p, ok := completionPoints[priority]; ok {
			return p
		}
		return completionPoints["medium"]
	case EventFocusSession:
		return pointsFocusSession
	}
	return 0
}

// Level is floor(points/100)+1.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

type Profile struct {
	Points int      `json:"points"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`
}

func (p Profile) HasBadge(badge string) bool {
	if badge == BadgeRisingStar {
		return p.Level >= 5
	}
	return slices.Contains(p.Badges, badge)
}

// Progress holds the counters badge unlocks are evaluated against.
type Progress struct {
	CompletedTasks int `json:"completedTasks"`
	WorkSessions   int `json:"workSessions"`
}

type Result struct {
	Profile   Profile  `json:"profile"`
	Awarded   int      `json:"awarded"`
	LeveledUp bool     `json:"leveledUp"`
	NewBadges []string `json:"newBadges"`
}

// Notifier receives transient celebration notices.
type Notifier interface {
	LevelUp(level int)
	BadgeUnlocked(badge string)
}

type Engine struct {
	notifier Notifier
}

// NewEngine returns an Engine. notifier may be nil.
func NewEngine(notifier Notifier) *Engine {
	return &Engine{notifier: notifier}
}

// Award adds the event's points to p and recomputes the level.
func (e *Engine) Award(p Profile, event Event, priority string) Result {
	points := Points(event, priority)
	p.Points += points
	oldLevel := p.Level
	p.Level = Level(p.Points)
	p.Badges = slices.Clone(p.Badges)

	res := Result{Profile: p, Awarded: points, NewBadges: []string{}}
	if p.Level > oldLevel {
		res.LeveledUp = true
		if e.notifier != nil {
			e.notifier.LevelUp(p.Level)
		}
	}
	return res
}

// CheckBadges appends every badge whose threshold progress has reached and
// that p does not hold yet.
func (e *Engine) CheckBadges(p Profile, progress Progress) Result {
	p.Badges = slices.Clone(p.Badges)
	res := Result{NewBadges: []string{}}

	unlock := func(badge string, reached bool) {
		if !reached || slices.Contains(p.Badges, badge) {
			return
		}
		p.Badges = append(p.Badges, badge)
		res.NewBadges = append(res.NewBadges, badge)
		if e.notifier != nil {
			e.notifier.BadgeUnlocked(badge)
		}
	}
	unlock(BadgeFirst10, progress.CompletedTasks >= 10)
	unlock(BadgeCenturion, progress.CompletedTasks >= 100)
	unlock(BadgeFocused, progress.WorkSessions >= 50)

	if p.Badges == nil {
		p.Badges = []string{}
	}
	res.Profile = p
	return res
}

// Apply awards the event and then re-evaluates badges, merging both results.
func (e *Engine) Apply(p Profile, event Event, priority string, progress Progress) Result {
	awarded := e.Award(p, event, priority)
	badges := e.CheckBadges(awarded.Profile, progress)
	badges.Awarded = awarded.Awarded
	badges.LeveledUp = awarded.LeveledUp
	return badges
}
