package queries

import (
	"context"
	"strings"

	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	"atomsi/contexts/treasury/treasury-approval/ports"
)

type TreasuryQueryUseCase struct {
	Repository      ports.Repository
	TreasuryAddress string
}

func (uc TreasuryQueryUseCase) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.Transaction{}, domainerrors.ErrValidation
	}
	return uc.Repository.GetTransaction(ctx, transactionID)
}

func (uc TreasuryQueryUseCase) ListTransactions(ctx context.Context, status string, relatedProposal string) ([]entities.Transaction, error) {
	filter := ports.TransactionFilter{RelatedProposal: strings.TrimSpace(relatedProposal)}
	if strings.TrimSpace(status) != "" {
		parsed, ok := entities.ParseTransactionStatus(status)
		if !ok {
			return nil, domainerrors.ErrValidation
		}
		filter.Status = parsed
	}
	return uc.Repository.ListTransactions(ctx, filter)
}

// ListApprovals returns approvals in the order they were recorded.
func (uc TreasuryQueryUseCase) ListApprovals(ctx context.Context, transactionID string) ([]entities.Approval, error) {
	tx, err := uc.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return uc.Repository.ListApprovals(ctx, tx.TransactionID)
}

// GetBalance defaults the holder to the organization treasury.
func (uc TreasuryQueryUseCase) GetBalance(ctx context.Context, token string, holder string) (entities.Balance, error) {
	token = strings.TrimSpace(token)
	holder = strings.TrimSpace(holder)
	if token == "" {
		return entities.Balance{}, domainerrors.ErrValidation
	}
	if holder == "" {
		holder = strings.TrimSpace(uc.TreasuryAddress)
	}
	if holder == "" {
		return entities.Balance{}, domainerrors.ErrValidation
	}
	return uc.Repository.GetBalance(ctx, token, holder)
}
