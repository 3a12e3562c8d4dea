package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/services"
)

// AdminHandler serves seeding, raw document inspection and health. None of
// it is authenticated; it exists for local development.
type AdminHandler struct {
	authService  *services.AuthService
	groupService *services.GroupService
	flatService  *services.FlatTaskService
	seeder       *services.Seeder
	logger       zerolog.Logger
}

func NewAdminHandler(app *App) *AdminHandler {
	return &AdminHandler{
		authService:  app.Auth,
		groupService: app.Groups,
		flatService:  app.FlatTasks,
		seeder:       app.Seeder,
		logger:       app.Logger,
	}
}

func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Seed(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"userCreated":  result.UserCreated,
		"groupCreated": result.GroupCreated,
	})
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.Users(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.Groups(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *AdminHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.flatService.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
