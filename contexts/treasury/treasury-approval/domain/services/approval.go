package services

import (
	"time"

	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
)

// ApplyApproval counts one new approval and reports whether it is the one
// that reaches the threshold. Callers must hold the transaction lock.
func ApplyApproval(tx *entities.Transaction, at time.Time) (thresholdReached bool, err error) {
	if !tx.Status.Open() {
		return false, domainerrors.ErrInvalidState
	}
	if tx.CurrentApprovals >= tx.RequiredApprovals {
		return false, domainerrors.ErrInvalidState
	}
	tx.CurrentApprovals++
	tx.UpdatedAt = at
	if tx.CurrentApprovals == tx.RequiredApprovals {
		tx.Status = entities.TransactionStatusApproved
		return true, nil
	}
	return false, nil
}

// MarkExecuted finalizes a transaction whose balance transfer committed.
func MarkExecuted(tx *entities.Transaction, at time.Time) {
	executedAt := at
	tx.Status = entities.TransactionStatusExecuted
	tx.ExecutedAt = &executedAt
	tx.UpdatedAt = at
}

// MarkFailed records a transfer that could not be applied.
func MarkFailed(tx *entities.Transaction, reason string, at time.Time) {
	tx.Status = entities.TransactionStatusFailed
	tx.FailureReason = reason
	tx.UpdatedAt = at
}
