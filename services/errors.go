package services

import (
	"errors"
)

// Kind classifies service errors so the transport can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	}
	return "internal"
}

// Error is a user-facing failure. Message is safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf returns the Kind of err, or KindInternal for anything that is not
// an *Error (storage failures and the like).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUserAlreadyExists   = Conflict("User already exists")
	ErrInvalidCredentials  = Unauthorized("Invalid credentials")
	ErrGroupNotFound       = NotFound("Group not found")
	ErrTaskNotFound        = NotFound("Task not found")
	ErrUserNotFound        = NotFound("User not found")
	ErrInvalidPasscode     = Unauthorized("Invalid passcode")
	ErrAlreadyMember       = Validation("User is already a member")
	ErrNotGroupAdmin       = Forbidden("Only group admin can assign tasks")
	ErrNotGroupMember      = Forbidden("User is not a member of this group")
	ErrNotCollaborative    = Validation("This is not a collaborative task")
	ErrAlreadyCollaborator = Validation("User is already collaborating on this task")
	ErrOnlyCollaborators   = Forbidden("Only collaborators can complete this task")
	ErrOnlyAssignee        = Forbidden("Only assigned user can complete this task")
	ErrOnlyAdminArchive    = Forbidden("Only admin can archive tasks")
	ErrNotAssigned         = Forbidden("User is not assigned to this task")
)
