package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/services"
)

// FlatTaskHandler serves the ungrouped demo task list
type FlatTaskHandler struct {
	flatService *services.FlatTaskService
	logger      zerolog.Logger
}

func NewFlatTaskHandler(app *App) *FlatTaskHandler {
	return &FlatTaskHandler{
		flatService: app.FlatTasks,
		logger:      app.Logger,
	}
}

func (h *FlatTaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.flatService.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *FlatTaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.NewFlatTask
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.flatService.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}

func (h *FlatTaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch services.FlatTaskPatch
	if err := decodeJSON(r, &patch, true); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.flatService.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "task": task})
}

func (h *FlatTaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.flatService.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
