package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ID is a numeric, time-based identifier. Clients send ids either as JSON
// numbers or as numeric strings, so both are accepted when decoding.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	n, err := parseLooseInt(b)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n)
	return nil
}

// Valid reports whether id could have been issued: ids are positive.
func (id ID) Valid() bool {
	return id > 0
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a path or query parameter into an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}

// Minutes is a whole number of minutes. It decodes from 60, "60" or "".
type Minutes int

func (m *Minutes) UnmarshalJSON(b []byte) error {
	n, err := parseLooseInt(b)
	if err != nil {
		return fmt.Errorf("invalid minutes %s: %w", b, err)
	}
	*m = Minutes(n)
	return nil
}

func parseLooseInt(b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return 0, nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		return n, nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is not a whole number", b)
	}
	return int64(f), nil
}

// Date is a calendar date or timestamp. It accepts "2006-01-02" as well as
// RFC 3339 on input. An empty string decodes to the zero Date, which means
// no date.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date %s: %w", b, err)
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// OrNil returns nil for a missing or zero date.
func (d *Date) OrNil() *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

// ParseDate parses a date-only or RFC 3339 string.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

type User struct {
	ID       ID       `json:"id"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Points   int      `json:"points"`
	Level    int      `json:"level"`
	Badges   []string `json:"badges"`
}

// NewTask is the admin-supplied part of a group task.
type NewTask struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AssignedTo      ID       `json:"assignedTo"`
	DueDate         *Date    `json:"dueDate"`
	TimeLimit       Minutes  `json:"timeLimit"`
	IsCollaborative bool     `json:"isCollaborative"`
	Priority        Priority `json:"priority"`
	Category        string   `json:"category"`
}

// PublicUser is the projection of a User that is safe to hand to clients.
type PublicUser struct {
	ID     ID       `json:"id"`
	Email  string   `json:"email"`
	Points int      `json:"points"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`
}

func (u User) Public() PublicUser {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return PublicUser{
		ID:     u.ID,
		Email:  u.Email,
		Points: u.Points,
		Level:  u.Level,
		Badges: badges,
	}
}

type Group struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	AdminID   ID        `json:"adminId"`
	Passcode  string    `json:"passcode"`
	Members   []ID      `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	Tasks     []Task    `json:"tasks"`
}

func (g *Group) IsMember(userID ID) bool {
	return slices.Contains(g.Members, userID)
}

func (g *Group) IsAdmin(userID ID) bool {
	return userID != 0 && g.AdminID == userID
}

// Task returns a pointer into the group's task list, or nil.
func (g *Group) Task(taskID ID) *Task {
	for i := range g.Tasks {
		if g.Tasks[i].ID == taskID {
			return &g.Tasks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	g.Members = slices.Clone(g.Members)
	tasks := make([]Task, len(g.Tasks))
	for i, t := range g.Tasks {
		tasks[i] = t.Clone()
	}
	g.Tasks = tasks
	return g
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID              ID          `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	AssignedTo      ID          `json:"assignedTo"`
	DueDate         *Date       `json:"dueDate"`
	TimeLimit       Minutes     `json:"timeLimit"`
	Priority        Priority    `json:"priority"`
	Category        string      `json:"category,omitempty"`
	IsCollaborative bool        `json:"isCollaborative"`
	Collaborators   []ID        `json:"collaborators"`
	Status          Status      `json:"status"`
	CompletedBy     *ID         `json:"completedBy"`
	Comments        []Comment   `json:"comments"`
	TimeSpent       int         `json:"timeSpent"`
	TimeHistory     []TimeEntry `json:"timeHistory"`
	LastActiveTime  *time.Time  `json:"lastActiveTime"`
	CreatedAt       time.Time   `json:"createdAt"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
	ArchivedAt      *time.Time  `json:"archivedAt,omitempty"`
}

func (t *Task) IsCollaborator(userID ID) bool {
	return slices.Contains(t.Collaborators, userID)
}

// CanComplete reports whether userID may mark the task completed: the
// assignee for solo tasks, any collaborator for collaborative ones.
func (t *Task) CanComplete(userID ID) bool {
	if t.IsCollaborative {
		return t.IsCollaborator(userID)
	}
	return userID != 0 && t.AssignedTo == userID
}

// CanLogTime reports whether userID may record time against the task.
func (t *Task) CanLogTime(userID ID) bool {
	if userID == 0 {
		return false
	}
	return t.AssignedTo == userID || (t.IsCollaborative && t.IsCollaborator(userID))
}

// SumTime recomputes TimeSpent from the time history.
func (t *Task) SumTime() {
	total := 0
	for _, e := range t.TimeHistory {
		total += e.Time
	}
	t.TimeSpent = total
}

func (t Task) Clone() Task {
	t.Collaborators = slices.Clone(t.Collaborators)
	t.Comments = slices.Clone(t.Comments)
	t.TimeHistory = slices.Clone(t.TimeHistory)
	return t
}

type Comment struct {
	ID        ID        `json:"id"`
	UserID    ID        `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimeEntry is one recorded contribution, in whole minutes.
type TimeEntry struct {
	UserID     ID        `json:"userId"`
	Time       int       `json:"time"`
	RecordedAt time.Time `json:"recordedAt"`
}

// FlatTask is an entry of the ungrouped task list. The same shape is used
// by the client for its personal task list.
type FlatTask struct {
	ID          ID         `json:"id"`
	Text        string     `json:"text"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category,omitempty"`
	DueDate     *Date      `json:"dueDate"`
	Completed   bool       `json:"completed"`
	Starred     bool       `json:"starred"`
	TimeSpent   int        `json:"timeSpent"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
}
