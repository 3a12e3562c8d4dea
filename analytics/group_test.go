package analytics

import (
	"testing"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func completedTask(id, assignee int64, created time.Time, took time.Duration, limit database.Minutes) database.Task {
	done := created.Add(took)
	return database.Task{
		ID:          database.ID(id),
		AssignedTo:  database.ID(assignee),
		TimeLimit:   limit,
		Status:      database.StatusCompleted,
		CreatedAt:   created,
		CompletedAt: &done,
	}
}

func TestComputeGroupStats(t *testing.T) {
	tasks := []database.Task{
		completedTask(1, 10, base, 30*time.Minute, 60),
		completedTask(2, 20, base, 61*time.Minute, 60),
		{ID: 3, AssignedTo: 10, Status: database.StatusPending, CreatedAt: base},
		{ID: 4, Status: database.StatusArchived, CreatedAt: base},
	}

	s := ComputeGroupStats(tasks)
	if s.TotalTasks != 4 || s.CompletedTasks != 2 {
		t.Errorf("Unexpected counts %+v", s)
	}
	if s.ActiveMembers != 2 {
		t.Errorf("Expected 2 active members, got %d", s.ActiveMembers)
	}
	if s.AvgCompletionMinutes != 46 {
		t.Errorf("Expected 46 minute average, got %d", s.AvgCompletionMinutes)
	}
}

func TestLongestStreak(t *testing.T) {
	if got := LongestStreak(nil); got != 0 {
		t.Errorf("Expected 0 for no completions, got %d", got)
	}

	tasks := []database.Task{
		completedTask(1, 1, base, 0, 0),
		completedTask(2, 1, base, 20*time.Hour, 0),
		completedTask(3, 1, base, 44*time.Hour, 0),
		completedTask(4, 1, base, 100*time.Hour, 0),
		completedTask(5, 1, base, 110*time.Hour, 0),
	}
	if got := LongestStreak(tasks); got != 3 {
		t.Errorf("Expected streak of 3, got %d", got)
	}

	single := tasks[:1]
	if got := LongestStreak(single); got != 1 {
		t.Errorf("Expected streak of 1, got %d", got)
	}
}

func TestTopPerformers(t *testing.T) {
	group := database.Group{
		Members: []database.ID{1, 2, 3, 4},
		Tasks: []database.Task{
			completedTask(1, 2, base, 30*time.Minute, 60),
			completedTask(2, 2, base, 30*time.Minute, 60),
			completedTask(3, 3, base, 90*time.Minute, 60),
			completedTask(4, 4, base, 10*time.Minute, 60),
			{ID: 5, AssignedTo: 1, Status: database.StatusPending},
		},
	}

	got := TopPerformers(group)
	if len(got) != 3 {
		t.Fatalf("Expected 3 performers, got %d", len(got))
	}
	if got[0].UserID != 2 || got[0].Score != 30 {
		t.Errorf("Expected user 2 with 30, got %+v", got[0])
	}
	if got[1].UserID != 4 || got[1].Score != 15 {
		t.Errorf("Expected user 4 with 15, got %+v", got[1])
	}
	if got[2].UserID != 3 || got[2].Score != 10 || got[2].OnTime != 0 {
		t.Errorf("Expected user 3 with 10, got %+v", got[2])
	}
}

func TestTimeContributions(t *testing.T) {
	tasks := []database.Task{
		{TimeHistory: []database.TimeEntry{{UserID: 1, Time: 10}, {UserID: 2, Time: 30}}},
		{TimeHistory: []database.TimeEntry{{UserID: 1, Time: 5}, {UserID: 3, Time: 15}}},
	}

	got := TimeContributions(tasks)
	want := []Contribution{{UserID: 2, Minutes: 30}, {UserID: 1, Minutes: 15}, {UserID: 3, Minutes: 15}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d contributions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %+v at %d, got %+v", want[i], i, got[i])
		}
	}
}

func TestGroupAchievements(t *testing.T) {
	var tasks []database.Task
	for i := int64(0); i < 5; i++ {
		task := completedTask(i+1, 1, base.Add(time.Duration(i)*time.Hour), 10*time.Minute, 60)
		if i < 3 {
			task.IsCollaborative = true
			task.Collaborators = []database.ID{1, 2}
		}
		tasks = append(tasks, task)
	}

	got := GroupAchievements(tasks)
	ids := map[string]bool{}
	for _, a := range got {
		ids[a.ID] = true
	}
	for _, id := range []string{AchievementSpeedDemon, AchievementStreakMaster, AchievementTeamPlayer} {
		if !ids[id] {
			t.Errorf("Expected achievement %s", id)
		}
	}

	if got := GroupAchievements(tasks[:2]); len(got) != 0 {
		t.Errorf("Expected no achievements, got %v", got)
	}
}

func TestBuildDashboard(t *testing.T) {
	group := database.Group{
		ID:      7,
		Members: []database.ID{1},
		Tasks: []database.Task{
			completedTask(1, 1, base, time.Minute, 5),
			{ID: 2, Status: database.StatusArchived},
		},
	}

	d := BuildDashboard(group)
	if d.GroupID != 7 || d.Stats.TotalTasks != 2 {
		t.Errorf("Unexpected dashboard %+v", d)
	}
	if len(d.Archived) != 1 || d.Archived[0].ID != 2 {
		t.Errorf("Expected archived task 2, got %+v", d.Archived)
	}
	if d.LongestStreak != 1 {
		t.Errorf("Expected streak 1, got %d", d.LongestStreak)
	}
}
