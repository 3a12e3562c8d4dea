package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/services"
)

// TaskHandler handles the tasks embedded in groups
type TaskHandler struct {
	taskService *services.TaskService
	logger      zerolog.Logger
}

func NewTaskHandler(app *App) *TaskHandler {
	return &TaskHandler{
		taskService: app.Tasks,
		logger:      app.Logger,
	}
}

func taskIDs(r *http.Request) (database.ID, database.ID, error) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		return 0, 0, err
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		return 0, 0, err
	}
	return groupID, taskID, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		AdminID database.ID       `json:"adminId"`
		Task    *database.NewTask `json:"task"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), groupID, req.AdminID, req.Task)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}

// taskUpdateRequest lists every field a task update may carry. Anything
// else in the body is rejected.
type taskUpdateRequest struct {
	Status      *database.Status   `json:"status"`
	CompletedBy *database.ID       `json:"completedBy"`
	ActorID     database.ID        `json:"actorId"`
	AssignedTo  *database.ID       `json:"assignedTo"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	DueDate     json.RawMessage    `json:"dueDate"`
	TimeLimit   *database.Minutes  `json:"timeLimit"`
	Priority    *database.Priority `json:"priority"`
	Category    *string            `json:"category"`
}

// commands compiles the request into task commands. It returns the acting
// user alongside.
func (req *taskUpdateRequest) commands() (database.ID, []services.Command, error) {
	actor := req.ActorID
	if actor == 0 && req.CompletedBy != nil {
		actor = *req.CompletedBy
	}

	var cmds []services.Command
	if req.AssignedTo != nil {
		cmds = append(cmds, &services.Reassign{AssignedTo: *req.AssignedTo})
	}

	edit := &services.EditDetails{
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		Priority:    req.Priority,
		Category:    req.Category,
	}
	hasEdit := req.Title != nil || req.Description != nil || req.TimeLimit != nil ||
		req.Priority != nil || req.Category != nil
	if len(req.DueDate) > 0 {
		hasEdit = true
		if bytes.Equal(bytes.TrimSpace(req.DueDate), []byte("null")) {
			edit.ClearDueDate = true
		} else {
			var d database.Date
			if err := json.Unmarshal(req.DueDate, &d); err != nil {
				return 0, nil, newBadRequestError("Invalid dueDate")
			}
			if d.IsZero() {
				edit.ClearDueDate = true
			} else {
				edit.DueDate = &d
			}
		}
	}
	if hasEdit {
		cmds = append(cmds, edit)
	}

	if req.Status != nil {
		var completedBy database.ID
		if req.CompletedBy != nil {
			completedBy = *req.CompletedBy
		}
		cmds = append(cmds, &services.SetStatus{Status: *req.Status, CompletedBy: completedBy})
	}

	if !actor.Valid() && (req.AssignedTo != nil || hasEdit || req.Status != nil) {
		return 0, nil, newBadRequestError("actorId is required")
	}
	return actor, cmds, nil
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	groupID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req taskUpdateRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, h.logger, err)
		return
	}
	actor, cmds, err := req.commands()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), groupID, taskID, actor, cmds...)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}

func (h *TaskHandler) Join(w http.ResponseWriter, r *http.Request) {
	groupID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		UserID database.ID `json:"userId"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.taskService.JoinCollaborativeTask(r.Context(), groupID, taskID, req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	groupID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		UserID  database.ID `json:"userId"`
		Comment string      `json:"comment"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.taskService.AddComment(r.Context(), groupID, taskID, req.UserID, req.Comment)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "comment": comment})
}

func (h *TaskHandler) RecordTime(w http.ResponseWriter, r *http.Request) {
	groupID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		UserID    database.ID      `json:"userId"`
		TimeSpent database.Minutes `json:"timeSpent"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.taskService.RecordTime(r.Context(), groupID, taskID, req.UserID, int(req.TimeSpent))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}
