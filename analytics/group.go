package analytics

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

const (
	streakGap         = 24 * time.Hour
	topPerformerCount = 3

	speedDemonTasks  = 5
	streakMasterRun  = 3
	teamPlayerTasks  = 3
	pointsCompleted  = 10
	pointsOnTimeTask = 5
)

type GroupStats struct {
	TotalTasks           int `json:"totalTasks"`
	CompletedTasks       int `json:"completedTasks"`
	ActiveMembers        int `json:"activeMembers"`
	AvgCompletionMinutes int `json:"avgCompletionMinutes"`
}

// ComputeGroupStats counts tasks and distinct assignees and averages the
// time from creation to completion of completed tasks.
func ComputeGroupStats(tasks []database.Task) GroupStats {
	stats := GroupStats{TotalTasks: len(tasks)}
	assignees := make(map[database.ID]struct{})
	var total time.Duration
	timed := 0

	for _, t := range tasks {
		if t.AssignedTo != 0 {
			assignees[t.AssignedTo] = struct{}{}
		}
		if t.Status != database.StatusCompleted {
			continue
		}
		stats.CompletedTasks++
		if t.CompletedAt != nil {
			total += t.CompletedAt.Sub(t.CreatedAt)
			timed++
		}
	}

	stats.ActiveMembers = len(assignees)
	if timed > 0 {
		stats.AvgCompletionMinutes = int(math.Round(total.Minutes() / float64(timed)))
	}
	return stats
}

func completionTimes(tasks []database.Task) []time.Time {
	times := []time.Time{}
	for _, t := range tasks {
		if t.Status == database.StatusCompleted && t.CompletedAt != nil {
			times = append(times, *t.CompletedAt)
		}
	}
	slices.SortFunc(times, func(a, b time.Time) int { return a.Compare(b) })
	return times
}

// LongestStreak is the longest run of completions each at most 24 hours
// after the previous one. It is 0 when nothing was completed.
func LongestStreak(tasks []database.Task) int {
	times := completionTimes(tasks)
	if len(times) == 0 {
		return 0
	}

	current, longest := 1, 1
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) <= streakGap {
			current++
			longest = max(longest, current)
		} else {
			current = 1
		}
	}
	return longest
}

func completionDuration(t database.Task) (time.Duration, bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	return t.CompletedAt.Sub(t.CreatedAt), true
}

func limit(t database.Task) time.Duration {
	return time.Duration(t.TimeLimit) * time.Minute
}

// onTime reports a completion within the task's time limit.
func onTime(t database.Task) bool {
	d, ok := completionDuration(t)
	return ok && d <= limit(t)
}

type Performer struct {
	UserID    database.ID `json:"userId"`
	Completed int         `json:"completed"`
	OnTime    int         `json:"onTime"`
	Score     int         `json:"score"`
}

// TopPerformers scores every member by completed*10 + onTime*5 over the
// tasks assigned to them and returns the best three. Ties keep member
// order.
func TopPerformers(group database.Group) []Performer {
	performers := make([]Performer, 0, len(group.Members))
	for _, member := range group.Members {
		p := Performer{UserID: member}
		for _, t := range group.Tasks {
			if t.AssignedTo != member {
				continue
			}
			if t.Status == database.StatusCompleted {
				p.Completed++
			}
			if onTime(t) {
				p.OnTime++
			}
		}
		p.Score = p.Completed*pointsCompleted + p.OnTime*pointsOnTimeTask
		performers = append(performers, p)
	}

	slices.SortStableFunc(performers, func(a, b Performer) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(performers) > topPerformerCount {
		performers = performers[:topPerformerCount]
	}
	return performers
}

type Contribution struct {
	UserID  database.ID `json:"userId"`
	Minutes int         `json:"minutes"`
}

// TimeContributions totals logged minutes per user, largest first.
func TimeContributions(tasks []database.Task) []Contribution {
	totals := make(map[database.ID]int)
	for _, t := range tasks {
		for _, e := range t.TimeHistory {
			totals[e.UserID] += e.Time
		}
	}

	out := make([]Contribution, 0, len(totals))
	for id, minutes := range totals {
		out = append(out, Contribution{UserID: id, Minutes: minutes})
	}
	slices.SortFunc(out, func(a, b Contribution) int {
		if c := cmp.Compare(b.Minutes, a.Minutes); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// Achievement ids.
const (
	AchievementSpeedDemon   = "speed_demon"
	AchievementStreakMaster = "streak_master"
	AchievementTeamPlayer   = "team_player"
)

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GroupAchievements evaluates the group-wide achievements.
func GroupAchievements(tasks []database.Task) []Achievement {
	achievements := []Achievement{}

	fast := 0
	for _, t := range tasks {
		if d, ok := completionDuration(t); ok && d < limit(t) {
			fast++
		}
	}
	if fast >= speedDemonTasks {
		achievements = append(achievements, Achievement{
			ID:          AchievementSpeedDemon,
			Title:       "Speed Demon",
			Description: "Completed 5 tasks before time limit",
		})
	}

	if streak := LongestStreak(tasks); streak >= streakMasterRun {
		achievements = append(achievements, Achievement{
			ID:          AchievementStreakMaster,
			Title:       "Task Streak Master",
			Description: strconv.Itoa(streak) + " tasks completed in a row",
		})
	}

	collaborative := 0
	for _, t := range tasks {
		if t.Status == database.StatusCompleted && len(t.Collaborators) > 1 {
			collaborative++
		}
	}
	if collaborative >= teamPlayerTasks {
		achievements = append(achievements, Achievement{
			ID:          AchievementTeamPlayer,
			Title:       "Team Player",
			Description: "Completed 3 collaborative tasks",
		})
	}
	return achievements
}

// Archived returns the archived tasks in list order.
func Archived(tasks []database.Task) []database.Task {
	out := []database.Task{}
	for _, t := range tasks {
		if t.Status == database.StatusArchived {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Dashboard bundles every group aggregate.
type Dashboard struct {
	GroupID           database.ID     `json:"groupId"`
	Stats             GroupStats      `json:"stats"`
	LongestStreak     int             `json:"longestStreak"`
	TopPerformers     []Performer     `json:"topPerformers"`
	TimeContributions []Contribution  `json:"timeContributions"`
	Achievements      []Achievement   `json:"achievements"`
	Archived          []database.Task `json:"archived"`
}

func BuildDashboard(group database.Group) Dashboard {
	return Dashboard{
		GroupID:           group.ID,
		Stats:             ComputeGroupStats(group.Tasks),
		LongestStreak:     LongestStreak(group.Tasks),
		TopPerformers:     TopPerformers(group),
		TimeContributions: TimeContributions(group.Tasks),
		Achievements:      GroupAchievements(group.Tasks),
		Archived:          Archived(group.Tasks),
	}
}
