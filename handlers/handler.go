package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/CrowderSoup/taskquest/services"
)

// App is the application context shared by every handler.
type App struct {
	Auth      *services.AuthService
	Groups    *services.GroupService
	Tasks     *services.TaskService
	FlatTasks *services.FlatTaskService
	Rewards   *services.RewardService
	Seeder    *services.Seeder
	Tickets   *services.TicketIssuer
	Hub       *services.Hub
	Logger    zerolog.Logger
}

type RouterOptions struct {
	// RateLimit is the per-IP request rate. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int
}

// NewRouter registers the REST API and the live-update websocket.
func NewRouter(app *App, opts RouterOptions) *mux.Router {
	authHandler := NewAuthHandler(app)
	groupHandler := NewGroupHandler(app)
	taskHandler := NewTaskHandler(app)
	flatHandler := NewFlatTaskHandler(app)
	adminHandler := NewAdminHandler(app)
	liveHandler := NewLiveHandler(app)
	rewardHandler := NewRewardHandler(app)

	r := mux.NewRouter()
	r.Use(Recoverer(app.Logger), RequestLogger(app.Logger))
	if opts.RateLimit > 0 {
		r.Use(RateLimiter(opts.RateLimit, opts.Burst))
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})

	api := r.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Flat demo task list
	api.HandleFunc("/tasks", flatHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tasks", flatHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", flatHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id:[0-9]+}", flatHandler.Delete).Methods(http.MethodDelete)

	// Groups
	api.HandleFunc("/groups", groupHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/groups/join", groupHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/groups/user/{userId:[0-9]+}", groupHandler.ListForUser).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}", groupHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}/dashboard", groupHandler.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupId:[0-9]+}/live-ticket", liveHandler.IssueTicket).Methods(http.MethodPost)

	// Group tasks
	api.HandleFunc("/groups/{groupId:[0-9]+}/tasks", taskHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupId:[0-9]+}/tasks/{taskId:[0-9]+}", taskHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/groups/{groupId:[0-9]+}/tasks/{taskId:[0-9]+}/join", taskHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupId:[0-9]+}/tasks/{taskId:[0-9]+}/comments", taskHandler.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupId:[0-9]+}/tasks/{taskId:[0-9]+}/time", taskHandler.RecordTime).Methods(http.MethodPut)

	// Gamification
	api.HandleFunc("/users/{userId:[0-9]+}/awards", rewardHandler.Award).Methods(http.MethodPost)

	// Dev convenience
	api.HandleFunc("/seed", adminHandler.Seed).Methods(http.MethodPost)
	api.HandleFunc("/admin/users", adminHandler.Users).Methods(http.MethodGet)
	api.HandleFunc("/admin/groups", adminHandler.Groups).Methods(http.MethodGet)
	api.HandleFunc("/admin/tasks", adminHandler.Tasks).Methods(http.MethodGet)
	api.HandleFunc("/health", adminHandler.Health).Methods(http.MethodGet)

	// WebSocket route for live group updates
	api.HandleFunc("/ws", liveHandler.HandleWebSocket).Methods(http.MethodGet)

	return r
}
