package errors

import "errors"

var (
	ErrValidation     = errors.New("invalid member input")
	ErrMemberNotFound = errors.New("member not found")
	ErrMemberExists   = errors.New("member already registered")
	ErrForbidden      = errors.New("actor is not authorized")
)
