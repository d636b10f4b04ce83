package commands

import (
	"context"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
)

type ActivateProposalCommand struct {
	ProposalID string
	Actor      string
	// Window restarts voting at now for this duration. Zero keeps the submitted
	// window unless it has already elapsed.
	Window time.Duration
}

func (uc LifecycleUseCase) Activate(ctx context.Context, cmd ActivateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ProposalID) == "" || cmd.Window < 0 {
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	actor := strings.TrimSpace(cmd.Actor)
	now := uc.now()

	var previous entities.ProposalStatus
	proposal, err := uc.Repository.UpdateProposal(ctx, cmd.ProposalID, func(proposal *entities.Proposal) error {
		if proposal.Status != entities.ProposalStatusDraft {
			return domainerrors.ErrInvalidState
		}
		if !uc.authorized(ctx, *proposal, actor, "activate") {
			return domainerrors.ErrForbidden
		}
		previous = proposal.Status
		switch {
		case cmd.Window > 0:
			proposal.VotingStartsAt = now
			proposal.VotingEndsAt = now.Add(cmd.Window)
		case proposal.VotingClosedAt(now):
			proposal.VotingStartsAt = now
			proposal.VotingEndsAt = now.Add(uc.votingPeriod())
		}
		proposal.Status = entities.ProposalStatusActive
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil {
		logger.Warn("proposal activate rejected",
			"event", "proposal_activate_rejected",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposal_id", strings.TrimSpace(cmd.ProposalID),
			"actor", actor,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	logger.Info("proposal activated",
		"event", "proposal_activated",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"actor", actor,
		"voting_ends_at", proposal.VotingEndsAt,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalUpdated, now, proposalUpdatedData(proposal, previous, actor))
	return proposal, nil
}
