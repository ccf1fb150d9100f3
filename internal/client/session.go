package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

func (m Mode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

func (f Filter) completed() (*bool, error) {
	switch f {
	case FilterAll, "":
		return nil, nil
	case FilterPending:
		v := false
		return &v, nil
	case FilterCompleted:
		v := true
		return &v, nil
	default:
		return nil, fmt.Errorf("unknown filter %q", string(f))
	}
}

// Form holds the login/signup inputs. Email is only sent in signup mode.
type Form struct {
	Username string
	Email    string
	Password string
}

// Draft is the in-progress edit of one task row.
type Draft struct {
	Title       string
	Description string
}

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNotEditing       = errors.New("task is not being edited")
)

// Session is the client-side view state: who is logged in, the current
// filtered task list and stats, and any per-row edits. It is not safe for
// concurrent use; callers drive it one event at a time.
type Session struct {
	api *API

	mode Mode
	Form Form

	user   *User
	filter Filter
	tasks  []Task
	stats  Stats
	drafts map[int64]Draft

	lastErr string
}

func NewSession(api *API) *Session {
	return &Session{
		api:    api,
		mode:   ModeLogin,
		filter: FilterAll,
		drafts: map[int64]Draft{},
	}
}

func (s *Session) Mode() Mode          { return s.mode }
func (s *Session) User() *User         { return s.user }
func (s *Session) Filter() Filter      { return s.filter }
func (s *Session) Tasks() []Task       { return s.tasks }
func (s *Session) Stats() Stats        { return s.stats }
func (s *Session) Error() string       { return s.lastErr }
func (s *Session) Authenticated() bool { return s.user != nil }

// ToggleMode switches between login and signup and clears the form.
func (s *Session) ToggleMode() {
	if s.mode == ModeLogin {
		s.mode = ModeSignup
	} else {
		s.mode = ModeLogin
	}
	s.Form = Form{}
}

// Submit logs in or signs up depending on the mode, then loads the dashboard.
func (s *Session) Submit(ctx context.Context) error {
	s.lastErr = ""

	var (
		user *User
		err  error
	)
	if s.mode == ModeSignup {
		user, err = s.api.Signup(ctx, s.Form.Username, s.Form.Email, s.Form.Password)
	} else {
		user, err = s.api.Login(ctx, s.Form.Username, s.Form.Password)
	}
	if err != nil {
		return s.record(err)
	}

	s.user = user
	s.api.SetToken(user.Token)
	s.Form = Form{}
	s.filter = FilterAll
	return s.Refresh(ctx)
}

// Logout drops every piece of session-derived state.
func (s *Session) Logout() {
	s.api.SetToken("")
	s.user = nil
	s.tasks = nil
	s.stats = Stats{}
	s.drafts = map[int64]Draft{}
	s.filter = FilterAll
	s.lastErr = ""
	s.mode = ModeLogin
	s.Form = Form{}
}

// SetFilter changes the active filter and refetches.
func (s *Session) SetFilter(ctx context.Context, f Filter) error {
	if _, err := f.completed(); err != nil {
		return err
	}
	s.filter = f
	return s.Refresh(ctx)
}

// Refresh reloads the task list for the active filter and the stats.
func (s *Session) Refresh(ctx context.Context) error {
	if s.user == nil {
		return ErrNotAuthenticated
	}
	completed, err := s.filter.completed()
	if err != nil {
		return err
	}

	tasks, err := s.api.ListTasks(ctx, s.user.ID, completed)
	if err != nil {
		return s.record(err)
	}
	stats, err := s.api.Stats(ctx, s.user.ID)
	if err != nil {
		return s.record(err)
	}

	s.tasks = tasks
	s.stats = stats
	return nil
}

func (s *Session) CreateTask(ctx context.Context, title, description string) error {
	if s.user == nil {
		return ErrNotAuthenticated
	}
	s.lastErr = ""

	var desc *string
	if strings.TrimSpace(description) != "" {
		desc = &description
	}
	if _, err := s.api.CreateTask(ctx, s.user.ID, title, desc); err != nil {
		return s.record(err)
	}
	return s.Refresh(ctx)
}

// ToggleCompleted flips the completed flag of a task in the current list.
func (s *Session) ToggleCompleted(ctx context.Context, id int64) error {
	if s.user == nil {
		return ErrNotAuthenticated
	}
	s.lastErr = ""

	task, ok := s.task(id)
	if !ok {
		return s.record(fmt.Errorf("task %d is not in the current list", id))
	}
	completed := !task.Completed
	if _, err := s.api.UpdateTask(ctx, id, TaskUpdate{Completed: &completed}); err != nil {
		return s.record(err)
	}
	return s.Refresh(ctx)
}

// StartEdit seeds a draft from the task's current title and description.
func (s *Session) StartEdit(id int64) error {
	task, ok := s.task(id)
	if !ok {
		return fmt.Errorf("task %d is not in the current list", id)
	}
	draft := Draft{Title: task.Title}
	if task.Description != nil {
		draft.Description = *task.Description
	}
	s.drafts[id] = draft
	return nil
}

// Editing returns the draft for id, if one is open.
func (s *Session) Editing(id int64) (Draft, bool) {
	d, ok := s.drafts[id]
	return d, ok
}

// UpdateDraft replaces the draft for an open edit.
func (s *Session) UpdateDraft(id int64, draft Draft) error {
	if _, ok := s.drafts[id]; !ok {
		return ErrNotEditing
	}
	s.drafts[id] = draft
	return nil
}

// CancelEdit discards the draft without contacting the server.
func (s *Session) CancelEdit(id int64) {
	delete(s.drafts, id)
}

// SaveEdit sends the draft's title and description. The draft stays open when
// the server rejects it.
func (s *Session) SaveEdit(ctx context.Context, id int64) error {
	if s.user == nil {
		return ErrNotAuthenticated
	}
	draft, ok := s.drafts[id]
	if !ok {
		return ErrNotEditing
	}
	s.lastErr = ""

	title, description := draft.Title, draft.Description
	if _, err := s.api.UpdateTask(ctx, id, TaskUpdate{Title: &title, Description: &description}); err != nil {
		return s.record(err)
	}
	delete(s.drafts, id)
	return s.Refresh(ctx)
}

// DeleteTask asks confirm first; nothing is sent unless it returns true.
// It reports whether the delete went ahead.
func (s *Session) DeleteTask(ctx context.Context, id int64, confirm func(Task) bool) (bool, error) {
	if s.user == nil {
		return false, ErrNotAuthenticated
	}
	task, ok := s.task(id)
	if !ok {
		return false, fmt.Errorf("task %d is not in the current list", id)
	}
	if confirm == nil || !confirm(task) {
		return false, nil
	}
	s.lastErr = ""

	if err := s.api.DeleteTask(ctx, id); err != nil {
		return false, s.record(err)
	}
	delete(s.drafts, id)
	return true, s.Refresh(ctx)
}

func (s *Session) task(id int64) (Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// record keeps the message for display and hands the error back.
func (s *Session) record(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		s.lastErr = apiErr.Message
	} else {
		s.lastErr = err.Error()
	}
	return err
}
