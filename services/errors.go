package services

import "errors"

// Business errors returned by the directories and entities. The session
// layer renders these as err replies; none of them is fatal.
var (
	ErrNotFound      = errors.New("inexistent document")
	ErrNotAllowed    = errors.New("permission denied")
	ErrUnknownUser   = errors.New("inexistent user")
	ErrAlreadyLogged = errors.New("user already logged in")
	ErrInvalidInput  = errors.New("invalid username or password")
	ErrExhausted     = errors.New("no free chat address")
	ErrAlreadyExists = errors.New("pre-existent document")
	ErrSectionCount  = errors.New("invalid section count")
)
