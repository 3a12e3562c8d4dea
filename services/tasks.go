package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
)

// TaskService runs the lifecycle of tasks embedded in groups.
type TaskService struct {
	docs     *database.Documents
	ids      *IDGenerator
	now      Clock
	notifier Notifier
	logger   zerolog.Logger
}

func NewTaskService(docs *database.Documents, ids *IDGenerator, now Clock, notifier Notifier, logger zerolog.Logger) *TaskService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TaskService{
		docs:     docs,
		ids:      ids,
		now:      now,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateTask adds a pending task to the group. Only the group admin may
// create tasks.
func (s *TaskService) CreateTask(ctx context.Context, groupID, adminID database.ID, in *database.NewTask) (database.Task, error) {
	if in == nil || !adminID.Valid() {
		return database.Task{}, Validation("Task details and adminId are required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return database.Task{}, Validation("Task title is required")
	}
	if in.AssignedTo < 0 {
		return database.Task{}, Validation("Invalid assignedTo")
	}
	if in.TimeLimit < 0 {
		return database.Task{}, Validation("timeLimit must not be negative")
	}
	priority := in.Priority
	if priority == "" {
		priority = database.PriorityMedium
	}
	if !priority.Valid() {
		return database.Task{}, Validation("Invalid priority")
	}

	var task database.Task
	_, err := mutateGroup(ctx, s.docs, s.notifier, s.logger, groupID, func(g *database.Group) error {
		if !g.IsAdmin(adminID) {
			return ErrNotGroupAdmin
		}

		collaborators := []database.ID{}
		if in.IsCollaborative && in.AssignedTo != 0 {
			collaborators = append(collaborators, in.AssignedTo)
		}
		task = database.Task{
			ID:              s.ids.Next(),
			Title:           title,
			Description:     in.Description,
			AssignedTo:      in.AssignedTo,
			DueDate:         in.DueDate.OrNil(),
			TimeLimit:       in.TimeLimit,
			Priority:        priority,
			Category:        in.Category,
			IsCollaborative: in.IsCollaborative,
			Collaborators:   collaborators,
			Status:          database.StatusPending,
			Comments:        []database.Comment{},
			TimeHistory:     []database.TimeEntry{},
			CreatedAt:       s.now(),
		}
		g.Tasks = append(g.Tasks, task)
		return nil
	})
	if err != nil {
		return database.Task{}, err
	}

	s.logger.Info().
		Int64("group_id", int64(groupID)).
		Int64("task_id", int64(task.ID)).
		Msg("created task")
	return task, nil
}

// UpdateTask applies cmds in order on behalf of actor. Either every command
// succeeds and the task is saved, or nothing is written.
func (s *TaskService) UpdateTask(ctx context.Context, groupID, taskID, actor database.ID, cmds ...Command) (database.Task, error) {
	if len(cmds) == 0 {
		return database.Task{}, Validation("No updates provided")
	}
	for _, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return database.Task{}, err
		}
	}

	var task database.Task
	_, err := mutateGroup(ctx, s.docs, s.notifier, s.logger, groupID, func(g *database.Group) error {
		t := g.Task(taskID)
		if t == nil {
			return ErrTaskNotFound
		}
		cc := &commandContext{
			group: g,
			task:  t,
			actor: actor,
			now:   s.now(),
			ids:   s.ids,
		}
		for _, cmd := range cmds {
			if err := cmd.apply(cc); err != nil {
				return err
			}
		}
		task = t.Clone()
		return nil
	})
	if err != nil {
		s.logger.Debug().
			Err(err).
			Int64("group_id", int64(groupID)).
			Int64("task_id", int64(taskID)).
			Msg("task update rejected")
		return database.Task{}, err
	}

	s.logger.Info().
		Int64("group_id", int64(groupID)).
		Int64("task_id", int64(taskID)).
		Int("commands", len(cmds)).
		Msg("updated task")
	return task, nil
}

// JoinCollaborativeTask adds userID to the task's collaborators.
func (s *TaskService) JoinCollaborativeTask(ctx context.Context, groupID, taskID, userID database.ID) (database.Task, error) {
	return s.UpdateTask(ctx, groupID, taskID, userID, &JoinTask{UserID: userID})
}

// AddComment appends a comment from a group member and returns it.
func (s *TaskService) AddComment(ctx context.Context, groupID, taskID, userID database.ID, text string) (database.Comment, error) {
	cmd := &AddComment{UserID: userID, Text: text}
	if _, err := s.UpdateTask(ctx, groupID, taskID, userID, cmd); err != nil {
		return database.Comment{}, err
	}
	return cmd.Created, nil
}

// RecordTime logs minutes against the task for its assignee or one of its
// collaborators.
func (s *TaskService) RecordTime(ctx context.Context, groupID, taskID, userID database.ID, minutes int) (database.Task, error) {
	return s.UpdateTask(ctx, groupID, taskID, userID, &RecordTime{UserID: userID, Minutes: minutes})
}
