package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

type ExecuteProposalCommand struct {
	ProposalID string
	Actor      string
}

// Execute applies the payload of a passed proposal through effect and marks it
// executed. The proposal stays locked while effect runs, so a concurrent call
// observes ErrInvalidState once the first commits. The effect may commit on its
// own store; if the proposal then fails to commit, the proposal stays passed and
// the caller gets ErrExecution, so effects must tolerate a retry for the same
// proposal.
func (uc LifecycleUseCase) Execute(
	ctx context.Context,
	cmd ExecuteProposalCommand,
	effect ports.ExecutionEffect,
) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ProposalID) == "" {
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	now := uc.now()

	effectApplied := false
	proposal, err := uc.Repository.UpdateProposal(ctx, cmd.ProposalID, func(proposal *entities.Proposal) error {
		if proposal.Status != entities.ProposalStatusPassed {
			return domainerrors.ErrInvalidState
		}
		if effect != nil {
			if err := effect(ctx, *proposal); err != nil {
				return fmt.Errorf("%w: %v", domainerrors.ErrExecution, err)
			}
			effectApplied = true
		}
		executedAt := now
		proposal.Status = entities.ProposalStatusExecuted
		proposal.ExecutedAt = &executedAt
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil && effectApplied && !errors.Is(err, domainerrors.ErrExecution) {
		err = fmt.Errorf("%w: commit after effect: %v", domainerrors.ErrExecution, err)
	}
	if err != nil {
		logger.Warn("proposal execute rejected",
			"event", "proposal_execute_rejected",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposal_id", strings.TrimSpace(cmd.ProposalID),
			"actor", strings.TrimSpace(cmd.Actor),
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	logger.Info("proposal executed",
		"event", "proposal_executed",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"actor", strings.TrimSpace(cmd.Actor),
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalUpdated, now,
		proposalUpdatedData(proposal, entities.ProposalStatusPassed, strings.TrimSpace(cmd.Actor)))
	return proposal, nil
}
