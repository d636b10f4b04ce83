package ports

import (
	"context"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
)

type ProposalFilter struct {
	Status   entities.ProposalStatus
	Proposer string
}

// Repository is the ledger store contract for proposals and votes. Methods that
// take a callback run it while holding the proposal's row lock; a callback
// error aborts the unit and nothing is written.
type Repository interface {
	CreateProposal(ctx context.Context, proposal entities.Proposal) error
	GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]entities.Proposal, error)
	ListVotes(ctx context.Context, proposalID string) ([]entities.Vote, error)
	// ListDueProposals returns active proposals whose window ended at or before now.
	ListDueProposals(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error)

	// UpdateProposal locks the proposal, applies mutate and persists the result.
	UpdateProposal(
		ctx context.Context,
		proposalID string,
		mutate func(proposal *entities.Proposal) error,
	) (entities.Proposal, error)

	// RecordVote locks the proposal, runs check, inserts the vote (unique per
	// proposal and voter) and adds its weight to the tally in one unit.
	RecordVote(
		ctx context.Context,
		vote entities.Vote,
		check func(proposal entities.Proposal) error,
	) (entities.Proposal, error)
}

// Authorizer is the external role-gated permission check.
type Authorizer interface {
	IsAuthorized(ctx context.Context, member string, action string, resource string) bool
}

// ExecutionEffect applies a passed proposal's payload. It runs inside the
// execute unit; an error leaves the proposal passed. An effect that writes to
// another store must be idempotent per proposal id.
type ExecutionEffect func(ctx context.Context, proposal entities.Proposal) error

type EventPublisher interface {
	Publish(ctx context.Context, event contractsv1.DomainEvent) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
