package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"atomsi/contexts/governance/proposal-lifecycle/application/commands"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/domain/services"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

// TallyReport compares the stored running tally with one rebuilt from votes.
type TallyReport struct {
	ProposalID    string
	Stored        entities.Tally
	Reconstructed entities.Tally
	VoteCount     int
	Consistent    bool
}

type ProposalQueryUseCase struct {
	Repository ports.Repository
	// Lifecycle finalizes elapsed proposals on read.
	Lifecycle commands.LifecycleUseCase
	Clock     ports.Clock
}

// GetProposal finalizes an active proposal whose window has elapsed before
// returning it.
func (uc ProposalQueryUseCase) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	proposal, err := uc.Repository.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if proposal.Status != entities.ProposalStatusActive || !proposal.VotingClosedAt(uc.now()) {
		return proposal, nil
	}
	finalized, err := uc.Lifecycle.Finalize(ctx, proposalID)
	if errors.Is(err, domainerrors.ErrInvalidState) {
		// Another caller finalized it first.
		return uc.Repository.GetProposal(ctx, proposalID)
	}
	if err != nil {
		return entities.Proposal{}, err
	}
	return finalized, nil
}

func (uc ProposalQueryUseCase) ListProposals(ctx context.Context, status string, proposer string) ([]entities.Proposal, error) {
	filter := ports.ProposalFilter{Proposer: strings.TrimSpace(proposer)}
	if strings.TrimSpace(status) != "" {
		parsed, ok := entities.ParseProposalStatus(status)
		if !ok {
			return nil, domainerrors.ErrValidation
		}
		filter.Status = parsed
	}
	return uc.Repository.ListProposals(ctx, filter)
}

func (uc ProposalQueryUseCase) ListVotes(ctx context.Context, proposalID string) ([]entities.Vote, error) {
	proposalID = strings.TrimSpace(proposalID)
	if _, err := uc.Repository.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	return uc.Repository.ListVotes(ctx, proposalID)
}

func (uc ProposalQueryUseCase) Tally(ctx context.Context, proposalID string) (TallyReport, error) {
	proposalID = strings.TrimSpace(proposalID)
	proposal, err := uc.Repository.GetProposal(ctx, proposalID)
	if err != nil {
		return TallyReport{}, err
	}
	votes, err := uc.Repository.ListVotes(ctx, proposalID)
	if err != nil {
		return TallyReport{}, err
	}
	reconstructed := services.ReconstructTally(votes)
	return TallyReport{
		ProposalID:    proposalID,
		Stored:        proposal.Tally,
		Reconstructed: reconstructed,
		VoteCount:     len(votes),
		Consistent:    reconstructed == proposal.Tally,
	}, nil
}

func (uc ProposalQueryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
