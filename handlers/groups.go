package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/analytics"
	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/services"
)

// GroupHandler handles group membership and group views
type GroupHandler struct {
	groupService *services.GroupService
	logger       zerolog.Logger
}

func NewGroupHandler(app *App) *GroupHandler {
	return &GroupHandler{
		groupService: app.Groups,
		logger:       app.Logger,
	}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string      `json:"name"`
		AdminID  database.ID `json:"adminId"`
		Passcode string      `json:"passcode"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), req.Name, req.AdminID, req.Passcode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "group": group})
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID  database.ID `json:"groupId"`
		UserID   database.ID `json:"userId"`
		Passcode string      `json:"passcode"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	group, err := h.groupService.JoinGroup(r.Context(), req.GroupID, req.UserID, req.Passcode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "group": group})
}

func (h *GroupHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	groups, err := h.groupService.ListGroupsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

// Dashboard returns the aggregates of the group dashboard.
func (h *GroupHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboard": analytics.BuildDashboard(group)})
}
