// Package client is a typed client for the TaskQuest REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

// APIError is a non-2xx response. Message is the server's {error} text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (database.PublicUser, error) {
	var out struct {
		User database.PublicUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentials{email, password}, &out)
	return out.User, err
}

func (c *Client) Login(ctx context.Context, email, password string) (database.PublicUser, error) {
	var out struct {
		User database.PublicUser `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{email, password}, &out)
	return out.User, err
}

type groupResponse struct {
	Group database.Group `json:"group"`
}

func (c *Client) CreateGroup(ctx context.Context, name string, adminID database.ID, passcode string) (database.Group, error) {
	var out groupResponse
	err := c.do(ctx, http.MethodPost, "/api/groups", map[string]any{
		"name":     name,
		"adminId":  adminID,
		"passcode": passcode,
	}, &out)
	return out.Group, err
}

func (c *Client) JoinGroup(ctx context.Context, groupID, userID database.ID, passcode string) (database.Group, error) {
	var out groupResponse
	err := c.do(ctx, http.MethodPost, "/api/groups/join", map[string]any{
		"groupId":  groupID,
		"userId":   userID,
		"passcode": passcode,
	}, &out)
	return out.Group, err
}

func (c *Client) GetGroup(ctx context.Context, groupID database.ID) (database.Group, error) {
	var out groupResponse
	err := c.do(ctx, http.MethodGet, "/api/groups/"+groupID.String(), nil, &out)
	return out.Group, err
}

func (c *Client) ListGroups(ctx context.Context, userID database.ID) ([]database.Group, error) {
	var out struct {
		Groups []database.Group `json:"groups"`
	}
	err := c.do(ctx, http.MethodGet, "/api/groups/user/"+userID.String(), nil, &out)
	return out.Groups, err
}

type taskResponse struct {
	Task database.Task `json:"task"`
}

func taskPath(groupID, taskID database.ID) string {
	return "/api/groups/" + groupID.String() + "/tasks/" + taskID.String()
}

func (c *Client) CreateTask(ctx context.Context, groupID, adminID database.ID, task database.NewTask) (database.Task, error) {
	var out taskResponse
	err := c.do(ctx, http.MethodPost, "/api/groups/"+groupID.String()+"/tasks", map[string]any{
		"adminId": adminID,
		"task":    task,
	}, &out)
	return out.Task, err
}

// TaskUpdate mirrors the fields the task update endpoint accepts. Nil
// fields are omitted from the request.
type TaskUpdate struct {
	Status      *database.Status   `json:"status,omitempty"`
	CompletedBy *database.ID       `json:"completedBy,omitempty"`
	ActorID     *database.ID       `json:"actorId,omitempty"`
	AssignedTo  *database.ID       `json:"assignedTo,omitempty"`
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	DueDate     *database.Date     `json:"dueDate,omitempty"`
	TimeLimit   *database.Minutes  `json:"timeLimit,omitempty"`
	Priority    *database.Priority `json:"priority,omitempty"`
	Category    *string            `json:"category,omitempty"`
}

func (c *Client) UpdateTask(ctx context.Context, groupID, taskID database.ID, update TaskUpdate) (database.Task, error) {
	var out taskResponse
	err := c.do(ctx, http.MethodPut, taskPath(groupID, taskID), update, &out)
	return out.Task, err
}

// CompleteTask marks the task completed on behalf of userID.
func (c *Client) CompleteTask(ctx context.Context, groupID, taskID, userID database.ID) (database.Task, error) {
	status := database.StatusCompleted
	return c.UpdateTask(ctx, groupID, taskID, TaskUpdate{Status: &status, CompletedBy: &userID})
}

func (c *Client) JoinTask(ctx context.Context, groupID, taskID, userID database.ID) (database.Task, error) {
	var out taskResponse
	err := c.do(ctx, http.MethodPost, taskPath(groupID, taskID)+"/join", map[string]any{
		"userId": userID,
	}, &out)
	return out.Task, err
}

func (c *Client) AddComment(ctx context.Context, groupID, taskID, userID database.ID, text string) (database.Comment, error) {
	var out struct {
		Comment database.Comment `json:"comment"`
	}
	err := c.do(ctx, http.MethodPost, taskPath(groupID, taskID)+"/comments", map[string]any{
		"userId":  userID,
		"comment": text,
	}, &out)
	return out.Comment, err
}

func (c *Client) RecordTime(ctx context.Context, groupID, taskID, userID database.ID, minutes int) (database.Task, error) {
	var out taskResponse
	err := c.do(ctx, http.MethodPut, taskPath(groupID, taskID)+"/time", map[string]any{
		"userId":    userID,
		"timeSpent": minutes,
	}, &out)
	return out.Task, err
}

// TimeRecorder sends tracker flushes to a group task as one user.
type TimeRecorder struct {
	Client  *Client
	GroupID database.ID
	UserID  database.ID
}

func (r TimeRecorder) RecordTime(ctx context.Context, taskID database.ID, minutes int) error {
	_, err := r.Client.RecordTime(ctx, r.GroupID, taskID, r.UserID, minutes)
	return err
}
