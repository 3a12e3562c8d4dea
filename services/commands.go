package services

import (
	"strings"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

// Command is one change to a task. Commands validate their own payload
// before anything is loaded, then apply against the current group state.
type Command interface {
	validate() error
	apply(c *commandContext) error
}

type commandContext struct {
	group *database.Group
	task  *database.Task
	actor database.ID
	now   time.Time
	ids   *IDGenerator
}

// SetStatus moves a task forward: pending to completed (by the assignee or
// a collaborator) or pending to archived (by the group admin). Applying the
// current status again is a no-op.
type SetStatus struct {
	Status database.Status
	// CompletedBy defaults to the acting user.
	CompletedBy database.ID
}

func (c *SetStatus) validate() error {
	if !c.Status.Valid() {
		return Validation("Invalid status")
	}
	return nil
}

func (c *SetStatus) apply(cc *commandContext) error {
	t := cc.task
	switch c.Status {
	case database.StatusCompleted:
		completer := c.CompletedBy
		if completer == 0 {
			completer = cc.actor
		}
		if !t.CanComplete(completer) {
			if t.IsCollaborative {
				return ErrOnlyCollaborators
			}
			return ErrOnlyAssignee
		}
		if t.Status == database.StatusArchived {
			return Validation("Archived tasks cannot be completed")
		}
		if t.Status == database.StatusPending {
			t.CompletedBy = &completer
		}
		t.Status = database.StatusCompleted
		if t.CompletedAt == nil {
			now := cc.now
			t.CompletedAt = &now
		}

	case database.StatusArchived:
		if !cc.group.IsAdmin(cc.actor) {
			return ErrOnlyAdminArchive
		}
		if t.Status == database.StatusCompleted {
			return Validation("Completed tasks cannot be archived")
		}
		t.Status = database.StatusArchived
		if t.ArchivedAt == nil {
			now := cc.now
			t.ArchivedAt = &now
		}

	case database.StatusPending:
		if t.Status != database.StatusPending {
			return Validation("Task status cannot move back to pending")
		}
	}
	return nil
}

// Reassign hands the task to another user. Admin only.
type Reassign struct {
	AssignedTo database.ID
}

func (c *Reassign) validate() error {
	if !c.AssignedTo.Valid() {
		return Validation("assignedTo is required")
	}
	return nil
}

func (c *Reassign) apply(cc *commandContext) error {
	if !cc.group.IsAdmin(cc.actor) {
		return ErrNotGroupAdmin
	}
	t := cc.task
	t.AssignedTo = c.AssignedTo
	if t.IsCollaborative && !t.IsCollaborator(c.AssignedTo) {
		t.Collaborators = append(t.Collaborators, c.AssignedTo)
	}
	return nil
}

// EditDetails changes descriptive fields. Nil fields are left alone. Any
// group member may edit.
type EditDetails struct {
	Title        *string
	Description  *string
	DueDate      *database.Date
	ClearDueDate bool
	TimeLimit    *database.Minutes
	Priority     *database.Priority
	Category     *string
}

func (c *EditDetails) validate() error {
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return Validation("Task title is required")
	}
	if c.TimeLimit != nil && *c.TimeLimit < 0 {
		return Validation("timeLimit must not be negative")
	}
	if c.Priority != nil && !c.Priority.Valid() {
		return Validation("Invalid priority")
	}
	return nil
}

func (c *EditDetails) apply(cc *commandContext) error {
	if !cc.group.IsMember(cc.actor) {
		return ErrNotGroupMember
	}
	t := cc.task
	if c.Title != nil {
		t.Title = strings.TrimSpace(*c.Title)
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.ClearDueDate {
		t.DueDate = nil
	} else if c.DueDate != nil {
		d := *c.DueDate
		t.DueDate = &d
	}
	if c.TimeLimit != nil {
		t.TimeLimit = *c.TimeLimit
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.Category != nil {
		t.Category = *c.Category
	}
	return nil
}

// JoinTask adds a group member to a collaborative task.
type JoinTask struct {
	UserID database.ID
}

func (c *JoinTask) validate() error {
	if !c.UserID.Valid() {
		return Validation("userId is required")
	}
	return nil
}

func (c *JoinTask) apply(cc *commandContext) error {
	t := cc.task
	if !t.IsCollaborative {
		return ErrNotCollaborative
	}
	if !cc.group.IsMember(c.UserID) {
		return ErrNotGroupMember
	}
	if t.IsCollaborator(c.UserID) {
		return ErrAlreadyCollaborator
	}
	t.Collaborators = append(t.Collaborators, c.UserID)
	return nil
}

// AddComment appends a comment by a group member. Created holds the stored
// comment after a successful apply.
type AddComment struct {
	UserID database.ID
	Text   string

	Created database.Comment
}

func (c *AddComment) validate() error {
	if strings.TrimSpace(c.Text) == "" || !c.UserID.Valid() {
		return Validation("Comment and userId are required")
	}
	return nil
}

func (c *AddComment) apply(cc *commandContext) error {
	if !cc.group.IsMember(c.UserID) {
		return ErrNotGroupMember
	}
	c.Created = database.Comment{
		ID:        cc.ids.Next(),
		UserID:    c.UserID,
		Text:      c.Text,
		CreatedAt: cc.now,
	}
	cc.task.Comments = append(cc.task.Comments, c.Created)
	return nil
}

// RecordTime appends a time entry of whole minutes and recomputes the
// task's total.
type RecordTime struct {
	UserID  database.ID
	Minutes int
}

func (c *RecordTime) validate() error {
	if !c.UserID.Valid() {
		return Validation("userId is required")
	}
	if c.Minutes <= 0 {
		return Validation("timeSpent must be a positive number of minutes")
	}
	return nil
}

func (c *RecordTime) apply(cc *commandContext) error {
	t := cc.task
	if !t.CanLogTime(c.UserID) {
		return ErrNotAssigned
	}
	entry := database.TimeEntry{
		UserID:     c.UserID,
		Time:       c.Minutes,
		RecordedAt: cc.now,
	}
	t.TimeHistory = append(t.TimeHistory, entry)
	t.SumTime()
	recordedAt := entry.RecordedAt
	t.LastActiveTime = &recordedAt
	return nil
}
