// Package clientstate keeps a user's local workspace: personal tasks, the
// archive, focus-timer history and settings. Each part is stored as its
// own document keyed by the username, so the same database.Store backends
// the server uses can hold it.
package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/CrowderSoup/taskquest/analytics"
	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/gamification"
)

const guest = "guest"

var (
	ErrNoUser       = errors.New("workspace requires a signed-in user")
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyText    = errors.New("task text required")
)

type Settings struct {
	Notifications  bool   `json:"notifications"`
	SoundEnabled   bool   `json:"soundEnabled"`
	Theme          string `json:"theme"`
	WorkDuration   int    `json:"workDuration"`
	BreakDuration  int    `json:"breakDuration"`
	AutoStartBreak bool   `json:"autoStartBreak"`
	DailyGoal      int    `json:"dailyGoal"`
}

func DefaultSettings() Settings {
	return Settings{
		Notifications: true,
		SoundEnabled:  true,
		Theme:         "light",
		WorkDuration:  25,
		BreakDuration: 5,
		DailyGoal:     8,
	}
}

// Username picks the name a user's documents are keyed by: the email, or
// user_<id> when the email is empty.
func Username(u database.PublicUser) string {
	if u.Email != "" {
		return u.Email
	}
	if u.ID != 0 {
		return "user_" + u.ID.String()
	}
	return guest
}

func key(kind, username string) string {
	return kind + "_" + url.PathEscape(username)
}

// Snapshot is the export format of a workspace.
type Snapshot struct {
	Tasks         []database.FlatTask `json:"tasks"`
	ArchivedTasks []database.FlatTask `json:"archivedTasks"`
	TimerHistory  []analytics.Session `json:"timerHistory"`
	Settings      *Settings           `json:"settings,omitempty"`
	User          database.PublicUser `json:"user"`
	ExportedAt    time.Time           `json:"exportedAt"`
}

// Repository loads and saves workspaces.
type Repository struct {
	store  database.Store
	engine *gamification.Engine
	now    func() time.Time
}

// NewRepository returns a Repository over store. engine and now may be nil.
func NewRepository(store database.Store, engine *gamification.Engine, now func() time.Time) *Repository {
	if engine == nil {
		engine = gamification.NewEngine(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Repository{
		store:  store,
		engine: engine,
		now:    now,
	}
}

// Load reads the workspace of user. Documents that were never saved come
// back empty, and settings fall back to the defaults.
func (r *Repository) Load(ctx context.Context, user database.PublicUser) (*Workspace, error) {
	username := Username(user)
	if username == guest {
		return nil, ErrNoUser
	}

	w := &Workspace{
		Username:     username,
		User:         user,
		Tasks:        []database.FlatTask{},
		Archived:     []database.FlatTask{},
		TimerHistory: []analytics.Session{},
		Settings:     DefaultSettings(),
		engine:       r.engine,
		now:          r.now,
	}

	// A stored user record wins over the one passed in, since points and
	// badges are awarded locally between syncs.
	parts := []struct {
		kind string
		dst  any
	}{
		{"tasks", &w.Tasks},
		{"archived", &w.Archived},
		{"timer", &w.TimerHistory},
		{"settings", &w.Settings},
		{"user", &w.User},
	}
	for _, p := range parts {
		if _, err := r.store.Load(ctx, key(p.kind, username), p.dst); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", p.kind, err)
		}
	}
	w.normalize()
	return w, nil
}

// Save writes every part of the workspace.
func (r *Repository) Save(ctx context.Context, w *Workspace) error {
	if w.Username == "" || w.Username == guest {
		return ErrNoUser
	}
	parts := map[string]any{
		"tasks":    w.Tasks,
		"archived": w.Archived,
		"timer":    w.TimerHistory,
		"settings": w.Settings,
		"user":     w.User,
	}
	for kind, v := range parts {
		if err := r.store.Save(ctx, key(kind, w.Username), v); err != nil {
			return fmt.Errorf("failed to save %s: %w", kind, err)
		}
	}
	return nil
}

// Workspace is one user's local state. It is not safe for concurrent use.
type Workspace struct {
	Username     string
	User         database.PublicUser
	Tasks        []database.FlatTask
	Archived     []database.FlatTask
	TimerHistory []analytics.Session
	Settings     Settings

	engine *gamification.Engine
	now    func() time.Time
	lastID database.ID
}

func (w *Workspace) normalize() {
	if w.Tasks == nil {
		w.Tasks = []database.FlatTask{}
	}
	if w.Archived == nil {
		w.Archived = []database.FlatTask{}
	}
	if w.TimerHistory == nil {
		w.TimerHistory = []analytics.Session{}
	}
	if w.User.Badges == nil {
		w.User.Badges = []string{}
	}
	w.User.Level = max(w.User.Level, gamification.Level(w.User.Points))
}

func (w *Workspace) nextID() database.ID {
	id := database.ID(w.now().UnixMilli())
	if id <= w.lastID {
		id = w.lastID + 1
	}
	w.lastID = id
	return id
}

func (w *Workspace) profile() gamification.Profile {
	return gamification.Profile{
		Points: w.User.Points,
		Level:  w.User.Level,
		Badges: w.User.Badges,
	}
}

func (w *Workspace) setProfile(p gamification.Profile) {
	w.User.Points = p.Points
	w.User.Level = p.Level
	w.User.Badges = p.Badges
}

func (w *Workspace) progress() gamification.Progress {
	completed := 0
	for _, t := range w.Tasks {
		if t.Completed {
			completed++
		}
	}
	return gamification.Progress{
		CompletedTasks: completed,
		WorkSessions:   analytics.WorkSessions(w.TimerHistory),
	}
}

func (w *Workspace) find(id database.ID) int {
	return slices.IndexFunc(w.Tasks, func(t database.FlatTask) bool { return t.ID == id })
}

// AddTask puts a new task at the top of the list and awards the creation
// points.
func (w *Workspace) AddTask(in database.FlatTask) (database.FlatTask, gamification.Result, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return database.FlatTask{}, gamification.Result{}, ErrEmptyText
	}
	if in.Priority == "" {
		in.Priority = database.PriorityMedium
	}
	in.ID = w.nextID()
	in.Completed = false
	in.CompletedAt = nil
	in.ArchivedAt = nil
	in.CreatedAt = w.now()

	w.Tasks = append([]database.FlatTask{in}, w.Tasks...)
	res := w.engine.Award(w.profile(), gamification.EventTaskCreated, "")
	w.setProfile(res.Profile)
	return in, res, nil
}

// ToggleComplete flips the task's completion. Completing awards points by
// priority and re-checks badges; reopening awards nothing.
func (w *Workspace) ToggleComplete(id database.ID) (gamification.Result, error) {
	i := w.find(id)
	if i < 0 {
		return gamification.Result{}, ErrTaskNotFound
	}

	t := &w.Tasks[i]
	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		return gamification.Result{Profile: w.profile(), NewBadges: []string{}}, nil
	}

	now := w.now()
	t.Completed = true
	t.CompletedAt = &now
	res := w.engine.Apply(w.profile(), gamification.EventTaskCompleted, string(t.Priority), w.progress())
	w.setProfile(res.Profile)
	return res, nil
}

func (w *Workspace) ToggleStar(id database.ID) error {
	i := w.find(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	w.Tasks[i].Starred = !w.Tasks[i].Starred
	return nil
}

// Delete removes an active task. Unknown ids are ignored.
func (w *Workspace) Delete(id database.ID) {
	w.Tasks = slices.DeleteFunc(w.Tasks, func(t database.FlatTask) bool { return t.ID == id })
}

// Archive moves an active task to the archive and stamps archivedAt.
func (w *Workspace) Archive(id database.ID) error {
	i := w.find(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	t := w.Tasks[i]
	now := w.now()
	t.ArchivedAt = &now
	w.Archived = append(w.Archived, t)
	w.Tasks = slices.Delete(w.Tasks, i, i+1)
	return nil
}

// Restore moves an archived task back to the end of the active list.
func (w *Workspace) Restore(id database.ID) error {
	i := slices.IndexFunc(w.Archived, func(t database.FlatTask) bool { return t.ID == id })
	if i < 0 {
		return ErrTaskNotFound
	}
	t := w.Archived[i]
	w.Tasks = append(w.Tasks, t)
	w.Archived = slices.Delete(w.Archived, i, i+1)
	return nil
}

// RecordSession prepends a finished timer session. Work sessions award
// focus points; breaks award nothing.
func (w *Workspace) RecordSession(kind analytics.SessionType, minutes int) gamification.Result {
	w.TimerHistory = append([]analytics.Session{{
		Type:        kind,
		Duration:    minutes,
		CompletedAt: w.now(),
	}}, w.TimerHistory...)

	if kind != analytics.SessionWork {
		return gamification.Result{Profile: w.profile(), NewBadges: []string{}}
	}
	res := w.engine.Apply(w.profile(), gamification.EventFocusSession, "", w.progress())
	w.setProfile(res.Profile)
	return res
}

// Export returns the workspace as indented JSON.
func (w *Workspace) Export() ([]byte, error) {
	settings := w.Settings
	return json.MarshalIndent(Snapshot{
		Tasks:         w.Tasks,
		ArchivedTasks: w.Archived,
		TimerHistory:  w.TimerHistory,
		Settings:      &settings,
		User:          w.User,
		ExportedAt:    w.now().UTC(),
	}, "", "  ")
}

// Import replaces tasks, archive, history and settings with those in data.
// Missing lists become empty; missing settings keep the current ones. The
// user record is not imported.
func (w *Workspace) Import(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to import workspace: %w", err)
	}
	w.Tasks = snap.Tasks
	w.Archived = snap.ArchivedTasks
	w.TimerHistory = snap.TimerHistory
	if snap.Settings != nil {
		w.Settings = *snap.Settings
	}
	w.normalize()
	return nil
}
