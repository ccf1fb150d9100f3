package domain

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when the username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrOwnerNotFound is returned when a task references a user that does not exist.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrTaskNotFound is returned when no task matches the id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyPatch is returned for an update that names no fields.
	ErrEmptyPatch = errors.New("at least one field must be provided for update")
	// ErrInvalidTask is returned when a task would be stored with an empty title.
	ErrInvalidTask = errors.New("task title is required")
)
