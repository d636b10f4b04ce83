package errors

import "errors"

var (
	ErrValidation        = errors.New("invalid activity input")
	ErrActivityNotFound  = errors.New("activity not found")
	ErrDuplicateActivity = errors.New("activity already recorded")
	// ErrMemberUnknown reports a delta for an address the registry does not know.
	ErrMemberUnknown = errors.New("member is not registered")
)
