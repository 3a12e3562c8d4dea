package services

import (
	"context"
	"errors"
	"testing"
)

func TestGroups_CreateAndJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.signup(t, "admin@x.com")
	member := env.signup(t, "member@x.com")

	g, err := env.groups.CreateGroup(ctx, "Team", admin, "pass")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if len(g.Members) != 1 || g.Members[0] != admin || g.AdminID != admin {
		t.Fatalf("Expected admin as sole member, got %+v", g)
	}

	g, err = env.groups.JoinGroup(ctx, g.ID, member, "pass")
	if err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if !g.IsMember(member) {
		t.Errorf("Expected %d to be a member", member)
	}
	if env.notifier.count() != 1 {
		t.Errorf("Expected 1 notification, got %d", env.notifier.count())
	}
}

func TestGroups_JoinErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.signup(t, "admin@x.com")
	member := env.signup(t, "member@x.com")
	g := env.group(t, admin, member)

	_, err := env.groups.JoinGroup(ctx, g.ID, env.signup(t, "c@x.com"), "wrong")
	if !errors.Is(err, ErrInvalidPasscode) {
		t.Errorf("Expected ErrInvalidPasscode, got %v", err)
	}

	_, err = env.groups.JoinGroup(ctx, g.ID, member, "pass")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("Expected ErrAlreadyMember, got %v", err)
	}

	_, err = env.groups.JoinGroup(ctx, 999, member, "pass")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}

	_, err = env.groups.JoinGroup(ctx, g.ID, member, "")
	assertKind(t, err, KindValidation)

	_, err = env.groups.JoinGroup(ctx, g.ID, -5, "pass")
	assertKind(t, err, KindValidation)

	stored, err := env.groups.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Members) != 2 {
		t.Errorf("Expected member count unchanged at 2, got %d", len(stored.Members))
	}
}

func TestGroups_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.groups.CreateGroup(ctx, "", 1, "pass")
	assertKind(t, err, KindValidation)
	_, err = env.groups.CreateGroup(ctx, "Team", 0, "pass")
	assertKind(t, err, KindValidation)
	_, err = env.groups.CreateGroup(ctx, "Team", 1, "")
	assertKind(t, err, KindValidation)
}

func TestGroups_ListForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.signup(t, "a@x.com")
	b := env.signup(t, "b@x.com")
	env.group(t, a)
	env.group(t, a, b)

	groups, err := env.groups.ListGroupsForUser(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Errorf("Expected 2 groups for a, got %d", len(groups))
	}

	groups, err = env.groups.ListGroupsForUser(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 {
		t.Errorf("Expected 1 group for b, got %d", len(groups))
	}

	groups, err = env.groups.ListGroupsForUser(ctx, 12345)
	if err != nil {
		t.Fatal(err)
	}
	if groups == nil || len(groups) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", groups)
	}
}

func TestGroups_RequireMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.signup(t, "a@x.com")
	g := env.group(t, a)

	if err := env.groups.RequireMember(ctx, g.ID, a); err != nil {
		t.Errorf("Expected admin to be a member, got %v", err)
	}
	if err := env.groups.RequireMember(ctx, g.ID, 42); !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("Expected ErrNotGroupMember, got %v", err)
	}
	if err := env.groups.RequireMember(ctx, 42, a); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}
}
