package errors

import "errors"

var (
	ErrValidation       = errors.New("invalid proposal input")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrInvalidState     = errors.New("operation not allowed in current proposal state")
	ErrDuplicateVote    = errors.New("member already voted on proposal")
	ErrForbidden        = errors.New("actor is not authorized for proposal action")
	ErrExecution        = errors.New("proposal execution failed")
)
