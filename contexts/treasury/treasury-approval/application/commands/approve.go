package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/treasury/treasury-approval/application"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	"atomsi/contexts/treasury/treasury-approval/ports"
)

type ApproveTransactionCommand struct {
	TransactionID string
	Approver      string
}

// Approve records one approval. The approval that reaches the threshold also
// executes the transfer inside the same store unit, so concurrent approvers
// can never execute a transaction twice.
func (uc TreasuryUseCase) Approve(ctx context.Context, cmd ApproveTransactionCommand) (ports.ApprovalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	transactionID := strings.TrimSpace(cmd.TransactionID)
	approver := strings.TrimSpace(cmd.Approver)
	if transactionID == "" || approver == "" {
		return ports.ApprovalResult{}, domainerrors.ErrValidation
	}
	if !uc.authorized(ctx, approver, "approve") {
		logger.Warn("treasury approval forbidden",
			"event", "treasury_approval_forbidden",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"transaction_id", transactionID,
			"approver", approver,
		)
		return ports.ApprovalResult{}, domainerrors.ErrForbidden
	}

	now := uc.now()
	result, err := uc.Repository.ApproveTransaction(ctx, ports.ApproveRequest{
		TransactionID:   transactionID,
		Approver:        approver,
		At:              now,
		TreasuryAddress: uc.treasuryAddress(),
	})
	insufficient := errors.Is(err, domainerrors.ErrInsufficientFunds)
	if err != nil && !insufficient {
		logger.Warn("treasury approval rejected",
			"event", "treasury_approval_rejected",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"transaction_id", transactionID,
			"approver", approver,
			"error", err.Error(),
		)
		return ports.ApprovalResult{}, err
	}

	tx := result.Transaction
	logger.Info("treasury approval recorded",
		"event", "treasury_approval_recorded",
		"module", "treasury/treasury-approval",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"approver", approver,
		"current_approvals", tx.CurrentApprovals,
		"required_approvals", tx.RequiredApprovals,
		"status", string(tx.Status),
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventTransactionApproved, now, contractsv1.TransactionApprovedData{
		TransactionID:     tx.TransactionID,
		Approver:          approver,
		CurrentApprovals:  tx.CurrentApprovals,
		RequiredApprovals: tx.RequiredApprovals,
		Status:            string(tx.Status),
	})

	if insufficient {
		logger.Error("treasury execution failed",
			"event", "treasury_execution_failed",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"transaction_id", tx.TransactionID,
			"token", tx.Token,
			"amount", tx.Amount,
			"error", err.Error(),
		)
		return result, fmt.Errorf("%w: %w", domainerrors.ErrExecution, err)
	}
	if result.Executed {
		executedAt := now
		if tx.ExecutedAt != nil {
			executedAt = *tx.ExecutedAt
		}
		logger.Info("treasury transaction executed",
			"event", "treasury_transaction_executed",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"transaction_id", tx.TransactionID,
			"recipient", tx.Recipient,
			"token", tx.Token,
			"amount", tx.Amount,
		)
		publishEvent(ctx, uc.Publisher, logger, contractsv1.EventTransactionExecuted, now, contractsv1.TransactionExecutedData{
			TransactionID: tx.TransactionID,
			Recipient:     tx.Recipient,
			Token:         tx.Token,
			Amount:        tx.Amount,
			ExecutedAt:    executedAt,
			ExecutedBy:    approver,
			Approvers:     result.Approvers,
		})
	}
	return result, nil
}
