package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/services"
)

// LiveHandler hands out live-update tickets and upgrades ticket holders to
// a websocket subscribed to their group.
type LiveHandler struct {
	groupService *services.GroupService
	tickets      *services.TicketIssuer
	hub          *services.Hub
	upgrader     websocket.Upgrader
	logger       zerolog.Logger
}

func NewLiveHandler(app *App) *LiveHandler {
	return &LiveHandler{
		groupService: app.Groups,
		tickets:      app.Tickets,
		hub:          app.Hub,
		upgrader: websocket.Upgrader{
			// The ticket authenticates the connection; CORS is enforced on
			// the REST surface.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: app.Logger,
	}
}

// IssueTicket returns a short-lived ticket for a member of the group.
func (h *LiveHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
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
	if !req.UserID.Valid() {
		writeError(w, h.logger, services.Validation("userId is required"))
		return
	}

	if err := h.groupService.RequireMember(r.Context(), groupID, req.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ticket, err := h.tickets.Issue(groupID, req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ticket": ticket})
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket connection
func (h *LiveHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeError(w, h.logger, services.Unauthorized("Missing ticket"))
		return
	}

	groupID, userID, err := h.tickets.Verify(ticket)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("rejected live ticket")
		writeError(w, h.logger, services.Unauthorized("Invalid or expired ticket"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to upgrade to websocket")
		return
	}

	client := services.NewClient(h.hub, conn, groupID, userID)
	h.hub.Register(client)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()
}
