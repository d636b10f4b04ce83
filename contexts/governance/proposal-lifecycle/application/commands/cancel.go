package commands

import (
	"context"
	"strings"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
)

type CancelProposalCommand struct {
	ProposalID string
	Actor      string
}

// Cancel is allowed from draft or active, by the proposer or a member holding
// the cancel permission.
func (uc LifecycleUseCase) Cancel(ctx context.Context, cmd CancelProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ProposalID) == "" {
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	actor := strings.TrimSpace(cmd.Actor)
	now := uc.now()

	var previous entities.ProposalStatus
	proposal, err := uc.Repository.UpdateProposal(ctx, cmd.ProposalID, func(proposal *entities.Proposal) error {
		if proposal.Status != entities.ProposalStatusDraft && proposal.Status != entities.ProposalStatusActive {
			return domainerrors.ErrInvalidState
		}
		if !uc.authorized(ctx, *proposal, actor, "cancel") {
			return domainerrors.ErrForbidden
		}
		previous = proposal.Status
		proposal.Status = entities.ProposalStatusCancelled
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil {
		logger.Warn("proposal cancel rejected",
			"event", "proposal_cancel_rejected",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposal_id", strings.TrimSpace(cmd.ProposalID),
			"actor", actor,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	logger.Info("proposal cancelled",
		"event", "proposal_cancelled",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"actor", actor,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalUpdated, now, proposalUpdatedData(proposal, previous, actor))
	return proposal, nil
}
