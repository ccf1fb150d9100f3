package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server. Message is the server's
// "error" field when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type User struct {
	ID       int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

type Task struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	Username    string  `json:"username,omitempty"`
}

type Stats struct {
	Total     int64 `json:"total_tasks"`
	Completed int64 `json:"completed_tasks"`
	Pending   int64 `json:"pending_tasks"`
}

// TaskUpdate carries the fields to change; nil fields are left out of the request.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// API is a JSON client for the task manager endpoints under /api.
type API struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetToken sets the bearer token sent with every request. An empty token disables the header.
func (a *API) SetToken(token string) {
	a.token = token
}

func (a *API) Signup(ctx context.Context, username, email, password string) (*User, error) {
	var out User
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/signup", body, &out); err != nil {
		return nil, err
	}
	// signup does not echo the email back
	out.Email = email
	return &out, nil
}

func (a *API) Login(ctx context.Context, username, password string) (*User, error) {
	var out User
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks returns a user's tasks. completed filters when non-nil.
func (a *API) ListTasks(ctx context.Context, userID int64, completed *bool) ([]Task, error) {
	path := "/api/tasks/user/" + strconv.FormatInt(userID, 10)
	if completed != nil {
		path += "?" + url.Values{"completed": {strconv.FormatBool(*completed)}}.Encode()
	}
	var out []Task
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) ListAllTasks(ctx context.Context) ([]Task, error) {
	var out []Task
	if err := a.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Stats(ctx context.Context, userID int64) (Stats, error) {
	var out Stats
	err := a.do(ctx, http.MethodGet, "/api/tasks/user/"+strconv.FormatInt(userID, 10)+"/stats", nil, &out)
	return out, err
}

func (a *API) CreateTask(ctx context.Context, userID int64, title string, description *string) (*Task, error) {
	body := struct {
		UserID      int64   `json:"user_id"`
		Title       string  `json:"title"`
		Description *string `json:"description,omitempty"`
	}{userID, title, description}

	var out struct {
		Task Task `json:"task"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/tasks", body, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func (a *API) UpdateTask(ctx context.Context, id int64, update TaskUpdate) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := a.do(ctx, http.MethodPut, "/api/tasks/"+strconv.FormatInt(id, 10), update, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func (a *API) DeleteTask(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, "/api/tasks/"+strconv.FormatInt(id, 10), nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
