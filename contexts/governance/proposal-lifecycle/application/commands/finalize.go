package commands

import (
	"context"
	"strings"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/domain/services"
)

// Finalize decides an active proposal once its voting window has elapsed.
func (uc LifecycleUseCase) Finalize(ctx context.Context, proposalID string) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(proposalID) == "" {
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	now := uc.now()

	proposal, err := uc.Repository.UpdateProposal(ctx, proposalID, func(proposal *entities.Proposal) error {
		if proposal.Status != entities.ProposalStatusActive || !proposal.VotingClosedAt(now) {
			return domainerrors.ErrInvalidState
		}
		proposal.Status = services.Decide(proposal.Tally, uc.Quorum)
		finalizedAt := now
		proposal.FinalizedAt = &finalizedAt
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("proposal finalized",
		"event", "proposal_finalized",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"status", string(proposal.Status),
		"yes_votes", proposal.Tally.Yes,
		"no_votes", proposal.Tally.No,
		"abstain_votes", proposal.Tally.Abstain,
		"quorum", uc.Quorum.Threshold,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalUpdated, now,
		proposalUpdatedData(proposal, entities.ProposalStatusActive, ""))
	return proposal, nil
}
