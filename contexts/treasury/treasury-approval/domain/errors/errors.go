package errors

import "errors"

var (
	ErrValidation          = errors.New("invalid treasury input")
	ErrTransactionNotFound = errors.New("treasury transaction not found")
	ErrInvalidState        = errors.New("operation not allowed in current transaction state")
	ErrDuplicateApproval   = errors.New("member already approved transaction")
	ErrForbidden           = errors.New("actor is not authorized for treasury action")
	ErrExecution           = errors.New("treasury execution failed")
	ErrInsufficientFunds   = errors.New("insufficient treasury balance")

	// ErrProposalAlreadyLinked reports a second transaction for one proposal.
	ErrProposalAlreadyLinked = errors.New("proposal already has a linked transaction")
)
