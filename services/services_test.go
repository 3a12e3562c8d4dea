package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	groups []database.Group
}

func (n *recordingNotifier) GroupUpdated(g database.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups = append(n.groups, g)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.groups)
}

type testEnv struct {
	clock    time.Time
	docs     *database.Documents
	notifier *recordingNotifier
	auth     *AuthService
	groups   *GroupService
	tasks    *TaskService
	flat     *FlatTaskService
	seeder   *Seeder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := database.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	docs := database.NewDocuments(store)
	if err := docs.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	env := &testEnv{
		clock:    testNow,
		docs:     docs,
		notifier: &recordingNotifier{},
	}
	now := func() time.Time { return env.clock }
	ids := NewIDGenerator(now)
	logger := zerolog.Nop()

	env.auth = NewAuthService(docs, ids, logger)
	env.groups = NewGroupService(docs, ids, now, env.notifier, logger)
	env.tasks = NewTaskService(docs, ids, now, env.notifier, logger)
	env.flat = NewFlatTaskService(docs, ids, now, logger)
	env.seeder = NewSeeder(docs, ids, now, logger)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) signup(t *testing.T, email string) database.ID {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), email, "secret")
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	return u.ID
}

// group creates a group administered by admin with the given extra members.
func (e *testEnv) group(t *testing.T, admin database.ID, members ...database.ID) database.Group {
	t.Helper()
	ctx := context.Background()
	g, err := e.groups.CreateGroup(ctx, "Team", admin, "pass")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	for _, m := range members {
		if g, err = e.groups.JoinGroup(ctx, g.ID, m, "pass"); err != nil {
			t.Fatalf("JoinGroup(%d): %v", m, err)
		}
	}
	return g
}

func (e *testEnv) task(t *testing.T, groupID, admin database.ID, in database.NewTask) database.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), groupID, admin, &in)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (e *testEnv) storedTask(t *testing.T, groupID, taskID database.ID) database.Task {
	t.Helper()
	g, err := e.groups.GetGroup(context.Background(), groupID)
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	task := g.Task(taskID)
	if task == nil {
		t.Fatalf("Task %d not found in group %d", taskID, groupID)
	}
	return *task
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("Expected %s error, got %s (%v)", want, got, err)
	}
}
