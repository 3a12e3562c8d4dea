package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

// NewFlatTask is the body of a flat task create.
type NewFlatTask struct {
	Text        string            `json:"text"`
	Description string            `json:"description"`
	Priority    database.Priority `json:"priority"`
	Category    string            `json:"category"`
	DueDate     *database.Date    `json:"dueDate"`
	Starred     bool              `json:"starred"`
}

// FlatTaskPatch lists the fields a flat task update may touch. Nil fields
// are left alone.
type FlatTaskPatch struct {
	Text        *string            `json:"text"`
	Description *string            `json:"description"`
	Priority    *database.Priority `json:"priority"`
	Category    *string            `json:"category"`
	DueDate     *database.Date     `json:"dueDate"`
	Completed   *bool              `json:"completed"`
	Starred     *bool              `json:"starred"`
	TimeSpent   *int               `json:"timeSpent"`
}

// FlatTaskService manages the ungrouped demo task list.
type FlatTaskService struct {
	docs   *database.Documents
	ids    *IDGenerator
	now    Clock
	logger zerolog.Logger
}

func NewFlatTaskService(docs *database.Documents, ids *IDGenerator, now Clock, logger zerolog.Logger) *FlatTaskService {
	return &FlatTaskService{
		docs:   docs,
		ids:    ids,
		now:    now,
		logger: logger,
	}
}

func (s *FlatTaskService) List(ctx context.Context) ([]database.FlatTask, error) {
	tasks, err := s.docs.FlatTasks(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load tasks")
		return nil, err
	}
	return tasks, nil
}

func (s *FlatTaskService) Create(ctx context.Context, in NewFlatTask) (database.FlatTask, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return database.FlatTask{}, Validation("Task text required")
	}
	priority := in.Priority
	if priority == "" {
		priority = database.PriorityMedium
	}
	if !priority.Valid() {
		return database.FlatTask{}, Validation("Invalid priority")
	}

	task := database.FlatTask{
		ID:          s.ids.Next(),
		Text:        text,
		Description: in.Description,
		Priority:    priority,
		Category:    in.Category,
		DueDate:     in.DueDate.OrNil(),
		Starred:     in.Starred,
		CreatedAt:   s.now(),
	}
	err := s.docs.UpdateFlatTasks(ctx, func(tasks []database.FlatTask) ([]database.FlatTask, error) {
		return append(tasks, task), nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to save task")
		return database.FlatTask{}, err
	}
	return task, nil
}

// Update applies patch to the task with the given id. Marking a task
// completed stamps CompletedAt; clearing it removes the stamp.
func (s *FlatTaskService) Update(ctx context.Context, id database.ID, patch FlatTaskPatch) (database.FlatTask, error) {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return database.FlatTask{}, Validation("Task text required")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return database.FlatTask{}, Validation("Invalid priority")
	}
	if patch.TimeSpent != nil && *patch.TimeSpent < 0 {
		return database.FlatTask{}, Validation("timeSpent must not be negative")
	}

	var updated database.FlatTask
	err := s.docs.UpdateFlatTasks(ctx, func(tasks []database.FlatTask) ([]database.FlatTask, error) {
		for i := range tasks {
			if tasks[i].ID != id {
				continue
			}
			t := &tasks[i]
			if patch.Text != nil {
				t.Text = strings.TrimSpace(*patch.Text)
			}
			if patch.Description != nil {
				t.Description = *patch.Description
			}
			if patch.Priority != nil {
				t.Priority = *patch.Priority
			}
			if patch.Category != nil {
				t.Category = *patch.Category
			}
			if patch.DueDate != nil {
				if d := patch.DueDate.OrNil(); d != nil {
					due := *d
					t.DueDate = &due
				} else {
					t.DueDate = nil
				}
			}
			if patch.Starred != nil {
				t.Starred = *patch.Starred
			}
			if patch.TimeSpent != nil {
				t.TimeSpent = *patch.TimeSpent
			}
			if patch.Completed != nil {
				switch {
				case *patch.Completed && !t.Completed:
					now := s.now()
					t.CompletedAt = &now
				case !*patch.Completed:
					t.CompletedAt = nil
				}
				t.Completed = *patch.Completed
			}
			updated = *t
			return tasks, nil
		}
		return nil, ErrTaskNotFound
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			s.logger.Error().
				Err(err).
				Msg("failed to update task")
		}
		return database.FlatTask{}, err
	}
	return updated, nil
}

// Delete removes the task if present. Deleting an unknown id succeeds.
func (s *FlatTaskService) Delete(ctx context.Context, id database.ID) error {
	err := s.docs.UpdateFlatTasks(ctx, func(tasks []database.FlatTask) ([]database.FlatTask, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		return kept, nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete task")
	}
	return err
}
