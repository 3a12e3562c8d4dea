package services

import (
	"context"
	"testing"

	"github.com/CrowderSoup/taskquest/database"
)

func TestSeed_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.seeder.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !first.UserCreated || !first.GroupCreated {
		t.Errorf("Expected first seed to create both records, got %+v", first)
	}

	second, err := env.seeder.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.UserCreated || second.GroupCreated {
		t.Errorf("Expected second seed to create nothing, got %+v", second)
	}

	users, _ := env.docs.Users(ctx)
	groups, _ := env.docs.Groups(ctx)
	if len(users) != 1 || len(groups) != 1 {
		t.Fatalf("Expected 1 user and 1 group, got %d and %d", len(users), len(groups))
	}

	u := users[0]
	if u.Email != "demo@local" || u.Points != 50 || u.Level != 1 {
		t.Errorf("Unexpected demo user %+v", u)
	}

	g := groups[0]
	if g.Name != "Demo Group" || g.AdminID != u.ID || !g.IsMember(u.ID) {
		t.Errorf("Unexpected demo group %+v", g)
	}
	if len(g.Tasks) != 1 {
		t.Fatalf("Expected 1 demo task, got %d", len(g.Tasks))
	}
	task := g.Tasks[0]
	if task.Status != database.StatusPending || task.AssignedTo != u.ID || task.TimeLimit != 60 {
		t.Errorf("Unexpected demo task %+v", task)
	}
}

func TestSeed_DemoUserCanLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.seeder.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	u, err := env.auth.Login(ctx, "demo@local", "demo")
	if err != nil {
		t.Fatalf("Expected demo login to succeed, got %v", err)
	}
	if _, err := env.groups.JoinGroup(ctx, 0, u.ID, "demo"); KindOf(err) != KindValidation {
		t.Errorf("Expected validation error for missing group id, got %v", err)
	}
}
