package ports

import (
	"context"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
)

type TransactionFilter struct {
	Status          entities.TransactionStatus
	RelatedProposal string
}

type ApproveRequest struct {
	TransactionID string
	Approver      string
	At            time.Time
	// TreasuryAddress is the holder debited on execution.
	TreasuryAddress string
}

type ApprovalResult struct {
	Transaction entities.Transaction
	Approval    entities.Approval
	// Executed is true only for the approval that triggered execution.
	Executed bool
	// Approvers is filled when the threshold was reached.
	Approvers []string
}

// Repository is the ledger store contract for treasury records.
type Repository interface {
	// CreateTransaction returns ErrProposalAlreadyLinked when another
	// transaction already carries the same related proposal.
	CreateTransaction(ctx context.Context, tx entities.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error)
	GetTransactionByProposal(ctx context.Context, proposalID string) (entities.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]entities.Transaction, error)
	ListApprovals(ctx context.Context, transactionID string) ([]entities.Approval, error)
	// GetBalance returns a zero balance for unknown holders.
	GetBalance(ctx context.Context, token string, holder string) (entities.Balance, error)
	CreditBalance(ctx context.Context, token string, holder string, amount int64, at time.Time) (entities.Balance, error)

	// ApproveTransaction is the single approve-and-maybe-execute unit: insert
	// the approval, bump the count and, when the threshold is reached, move the
	// funds and mark the transaction executed, all or nothing. An insufficient
	// treasury balance commits the approval with the transaction marked failed
	// and returns the result together with ErrInsufficientFunds.
	ApproveTransaction(ctx context.Context, req ApproveRequest) (ApprovalResult, error)
	RejectTransaction(ctx context.Context, transactionID string, actor string, at time.Time) (entities.Transaction, error)
}

// Authorizer is the external role-gated permission check.
type Authorizer interface {
	IsAuthorized(ctx context.Context, member string, action string, resource string) bool
}

type EventPublisher interface {
	Publish(ctx context.Context, event contractsv1.DomainEvent) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
