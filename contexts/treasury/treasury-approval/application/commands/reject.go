package commands

import (
	"context"
	"strings"

	application "atomsi/contexts/treasury/treasury-approval/application"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
)

type RejectTransactionCommand struct {
	TransactionID string
	Actor         string
}

// Reject closes a pending or approved transaction without moving funds.
func (uc TreasuryUseCase) Reject(ctx context.Context, cmd RejectTransactionCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(uc.Logger)
	transactionID := strings.TrimSpace(cmd.TransactionID)
	actor := strings.TrimSpace(cmd.Actor)
	if transactionID == "" || actor == "" {
		return entities.Transaction{}, domainerrors.ErrValidation
	}
	if !uc.authorized(ctx, actor, "reject") {
		return entities.Transaction{}, domainerrors.ErrForbidden
	}

	tx, err := uc.Repository.RejectTransaction(ctx, transactionID, actor, uc.now())
	if err != nil {
		return entities.Transaction{}, err
	}
	logger.Info("treasury transaction rejected",
		"event", "treasury_transaction_rejected",
		"module", "treasury/treasury-approval",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"actor", actor,
	)
	return tx, nil
}
