package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/treasury/treasury-approval/application"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
)

type ProposeTransactionCommand struct {
	Description       string
	Recipient         string
	Token             string
	Amount            int64
	RequiredApprovals int
	RelatedProposal   string
	ProposedBy        string
	Metadata          map[string]any
}

// Propose opens a pending transaction. A proposal links to at most one
// transaction: proposing again for the same related proposal returns the
// existing one and publishes nothing.
func (uc TreasuryUseCase) Propose(ctx context.Context, cmd ProposeTransactionCommand) (entities.Transaction, error) {
	logger := application.ResolveLogger(uc.Logger)
	recipient := strings.TrimSpace(cmd.Recipient)
	token := strings.TrimSpace(cmd.Token)
	if recipient == "" || token == "" || cmd.Amount <= 0 || cmd.RequiredApprovals < 1 {
		logger.Warn("treasury propose validation failed",
			"event", "treasury_propose_validation_failed",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"recipient", recipient,
			"token", token,
			"amount", cmd.Amount,
			"required_approvals", cmd.RequiredApprovals,
		)
		return entities.Transaction{}, domainerrors.ErrValidation
	}

	relatedProposal := strings.TrimSpace(cmd.RelatedProposal)
	if relatedProposal != "" {
		existing, err := uc.Repository.GetTransactionByProposal(ctx, relatedProposal)
		if err == nil {
			logAlreadyLinked(logger, existing)
			return existing, nil
		}
		if !errors.Is(err, domainerrors.ErrTransactionNotFound) {
			return entities.Transaction{}, err
		}
	}

	transactionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Transaction{}, err
	}
	now := uc.now()
	tx := entities.Transaction{
		TransactionID:     transactionID,
		Description:       strings.TrimSpace(cmd.Description),
		Recipient:         recipient,
		Token:             token,
		Amount:            cmd.Amount,
		Status:            entities.TransactionStatusPending,
		RequiredApprovals: cmd.RequiredApprovals,
		RelatedProposal:   relatedProposal,
		ProposedBy:        strings.TrimSpace(cmd.ProposedBy),
		Metadata:          cmd.Metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.Repository.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, domainerrors.ErrProposalAlreadyLinked) {
			existing, getErr := uc.Repository.GetTransactionByProposal(ctx, relatedProposal)
			if getErr != nil {
				return entities.Transaction{}, getErr
			}
			logAlreadyLinked(logger, existing)
			return existing, nil
		}
		return entities.Transaction{}, err
	}

	logger.Info("treasury transaction proposed",
		"event", "treasury_transaction_proposed",
		"module", "treasury/treasury-approval",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"recipient", tx.Recipient,
		"token", tx.Token,
		"amount", tx.Amount,
		"required_approvals", tx.RequiredApprovals,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventTransactionCreated, now, contractsv1.TransactionCreatedData{
		TransactionID:     tx.TransactionID,
		Description:       tx.Description,
		Recipient:         tx.Recipient,
		Token:             tx.Token,
		Amount:            tx.Amount,
		RequiredApprovals: tx.RequiredApprovals,
		RelatedProposal:   tx.RelatedProposal,
	})
	return tx, nil
}

func logAlreadyLinked(logger *slog.Logger, tx entities.Transaction) {
	logger.Info("treasury transaction already linked",
		"event", "treasury_transaction_already_linked",
		"module", "treasury/treasury-approval",
		"layer", "application",
		"transaction_id", tx.TransactionID,
		"related_proposal", tx.RelatedProposal,
	)
}
