package analytics

import (
	"testing"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

func flat(id int64, text string, priority database.Priority, completed, starred bool) database.FlatTask {
	return database.FlatTask{
		ID:        database.ID(id),
		Text:      text,
		Priority:  priority,
		Completed: completed,
		Starred:   starred,
	}
}

func TestPersonalStats(t *testing.T) {
	tasks := []database.FlatTask{
		flat(1, "a", database.PriorityLow, true, false),
		flat(2, "b", database.PriorityLow, false, true),
		flat(3, "c", database.PriorityLow, false, false),
	}

	s := PersonalStats(tasks)
	if s.Total != 3 || s.Completed != 1 || s.Active != 2 || s.Starred != 1 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.CompletionRate != 33 {
		t.Errorf("Expected completion rate 33, got %d", s.CompletionRate)
	}

	if empty := PersonalStats(nil); empty.CompletionRate != 0 {
		t.Errorf("Expected 0 completion rate for no tasks, got %d", empty.CompletionRate)
	}
}

func TestPersonalStats_RoundsHalfUp(t *testing.T) {
	tasks := []database.FlatTask{
		flat(1, "a", "", true, false),
		flat(2, "b", "", false, false),
		flat(3, "c", "", true, false),
		flat(4, "d", "", true, false),
		flat(5, "e", "", true, false),
		flat(6, "f", "", true, false),
		flat(7, "g", "", false, false),
		flat(8, "h", "", false, false),
	}
	if got := PersonalStats(tasks).CompletionRate; got != 63 {
		t.Errorf("Expected 63, got %d", got)
	}
}

func TestCategoryCounts(t *testing.T) {
	tasks := []database.FlatTask{
		{Category: "work"},
		{Category: "work"},
		{Category: "home"},
		{},
	}
	counts := CategoryCounts(tasks)
	if counts["work"] != 2 || counts["home"] != 1 || counts[Uncategorized] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

func TestFocusMinutesAndSessionsByDay(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	sessions := []Session{
		{Type: SessionWork, Duration: 25, CompletedAt: day1},
		{Type: SessionBreak, Duration: 5, CompletedAt: day1},
		{Type: SessionWork, Duration: 25, CompletedAt: day2},
	}

	if got := FocusMinutes(sessions); got != 50 {
		t.Errorf("Expected 50 focus minutes, got %d", got)
	}
	if got := WorkSessions(sessions); got != 2 {
		t.Errorf("Expected 2 work sessions, got %d", got)
	}

	days := SessionsByDay(sessions, time.UTC)
	if days["2024-03-01"] != 2 || days["2024-03-02"] != 1 {
		t.Errorf("Unexpected sessions by day %v", days)
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []database.FlatTask{
		flat(1, "Write report", database.PriorityLow, true, false),
		flat(2, "Buy milk", database.PriorityLow, false, true),
		flat(3, "Review REPORT draft", database.PriorityLow, false, false),
	}

	tests := []struct {
		name   string
		filter Filter
		query  string
		want   []database.ID
	}{
		{"all", FilterAll, "", []database.ID{1, 2, 3}},
		{"active", FilterActive, "", []database.ID{2, 3}},
		{"completed", FilterCompleted, "", []database.ID{1}},
		{"starred", FilterStarred, "", []database.ID{2}},
		{"search is case insensitive", FilterAll, "report", []database.ID{1, 3}},
		{"search and filter", FilterActive, "Report", []database.ID{3}},
		{"unknown filter", Filter("bogus"), "", []database.ID{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTasks(tasks, tt.filter, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d tasks, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Expected task %d at %d, got %d", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestSortTasks(t *testing.T) {
	tasks := []database.FlatTask{
		flat(1, "a", database.PriorityLow, false, false),
		flat(2, "b", database.PriorityHigh, false, false),
		flat(3, "c", database.PriorityMedium, false, true),
		flat(4, "d", database.PriorityHigh, false, true),
		flat(5, "e", database.PriorityMedium, false, false),
	}

	got := SortTasks(tasks)
	want := []database.ID{4, 3, 2, 5, 1}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Expected task %d at %d, got %d", id, i, got[i].ID)
		}
	}
	if tasks[0].ID != 1 {
		t.Error("Expected input to be left unsorted")
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := database.Date{Time: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}
	today := database.Date{Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		task database.FlatTask
		want bool
	}{
		{"no due date", database.FlatTask{}, false},
		{"due yesterday", database.FlatTask{DueDate: &yesterday}, true},
		{"due today", database.FlatTask{DueDate: &today}, false},
		{"completed", database.FlatTask{DueDate: &yesterday, Completed: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.task, now); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWeeklyCompletions(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	at := func(daysAgo int) *time.Time {
		v := now.AddDate(0, 0, -daysAgo)
		return &v
	}
	tasks := []database.FlatTask{
		{Completed: true, CompletedAt: at(0)},
		{Completed: true, CompletedAt: at(0)},
		{Completed: true, CompletedAt: at(6)},
		{Completed: true, CompletedAt: at(7)},
		{Completed: false, CompletedAt: at(1)},
		{Completed: true, CreatedAt: *at(2)},
	}

	got := WeeklyCompletions(tasks, now)
	want := [7]int{1, 0, 0, 0, 1, 0, 2}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
