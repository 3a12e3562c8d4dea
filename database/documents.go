package database

import (
	"context"
	"fmt"
	"sync"
)

// Document keys.
const (
	UsersKey  = "users"
	GroupsKey = "groups"
	TasksKey  = "tasks"
)

// Documents gives typed access to the users, groups and flat tasks
// documents. Updates are read-modify-write cycles over the whole document;
// they are serialized per document within this process only.
type Documents struct {
	store Store

	usersMu  sync.Mutex
	groupsMu sync.Mutex
	tasksMu  sync.Mutex
}

func NewDocuments(store Store) *Documents {
	return &Documents{store: store}
}

func (d *Documents) Store() Store {
	return d.store
}

// Init writes an empty array for every document that does not exist yet.
func (d *Documents) Init(ctx context.Context) error {
	for _, key := range []string{UsersKey, GroupsKey, TasksKey} {
		var raw []any
		found, err := d.store.Load(ctx, key, &raw)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := d.store.Save(ctx, key, []any{}); err != nil {
			return fmt.Errorf("failed to init %s: %w", key, err)
		}
	}
	return nil
}

func (d *Documents) Users(ctx context.Context) ([]User, error) {
	return load[User](ctx, d.store, UsersKey)
}

func (d *Documents) Groups(ctx context.Context) ([]Group, error) {
	return load[Group](ctx, d.store, GroupsKey)
}

func (d *Documents) FlatTasks(ctx context.Context) ([]FlatTask, error) {
	return load[FlatTask](ctx, d.store, TasksKey)
}

// UpdateUsers loads the users document, passes it to fn and saves what fn
// returns. Nothing is written when fn fails.
func (d *Documents) UpdateUsers(ctx context.Context, fn func([]User) ([]User, error)) error {
	d.usersMu.Lock()
	defer d.usersMu.Unlock()
	return update(ctx, d.store, UsersKey, fn)
}

func (d *Documents) UpdateGroups(ctx context.Context, fn func([]Group) ([]Group, error)) error {
	d.groupsMu.Lock()
	defer d.groupsMu.Unlock()
	return update(ctx, d.store, GroupsKey, fn)
}

func (d *Documents) UpdateFlatTasks(ctx context.Context, fn func([]FlatTask) ([]FlatTask, error)) error {
	d.tasksMu.Lock()
	defer d.tasksMu.Unlock()
	return update(ctx, d.store, TasksKey, fn)
}

func load[T any](ctx context.Context, store Store, key string) ([]T, error) {
	var docs []T
	if _, err := store.Load(ctx, key, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

func update[T any](ctx context.Context, store Store, key string, fn func([]T) ([]T, error)) error {
	docs, err := load[T](ctx, store, key)
	if err != nil {
		return err
	}
	docs, err = fn(docs)
	if err != nil {
		return err
	}
	return store.Save(ctx, key, docs)
}
