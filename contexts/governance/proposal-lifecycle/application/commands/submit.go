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

type SubmitProposalCommand struct {
	Proposer    string
	Title       string
	Description string
	Type        string
	// A zero window defaults to [now, now+VotingPeriod).
	VotingStartsAt time.Time
	VotingEndsAt   time.Time
	// Activate moves the proposal straight to active on submit.
	Activate bool
	Payload  *entities.ExecutionPayload
	Metadata map[string]any
}

func (uc LifecycleUseCase) Submit(ctx context.Context, cmd SubmitProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposer := strings.TrimSpace(cmd.Proposer)
	title := strings.TrimSpace(cmd.Title)
	description := strings.TrimSpace(cmd.Description)
	proposalType, typeOK := entities.ParseProposalType(cmd.Type)
	if proposer == "" || title == "" || description == "" || !typeOK {
		logger.Warn("proposal submit validation failed",
			"event", "proposal_submit_validation_failed",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposer", proposer,
		)
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	if cmd.Payload != nil && strings.TrimSpace(cmd.Payload.Kind) == "" {
		return entities.Proposal{}, domainerrors.ErrValidation
	}

	now := uc.now()
	startsAt, endsAt := cmd.VotingStartsAt.UTC(), cmd.VotingEndsAt.UTC()
	if cmd.VotingStartsAt.IsZero() {
		startsAt = now
	}
	if cmd.VotingEndsAt.IsZero() {
		endsAt = startsAt.Add(uc.votingPeriod())
	}
	if !endsAt.After(startsAt) {
		logger.Warn("proposal submit window invalid",
			"event", "proposal_submit_window_invalid",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposer", proposer,
			"voting_starts_at", startsAt,
			"voting_ends_at", endsAt,
		)
		return entities.Proposal{}, domainerrors.ErrValidation
	}
	if uc.Authorizer != nil && !uc.Authorizer.IsAuthorized(ctx, proposer, "create", "proposal") {
		return entities.Proposal{}, domainerrors.ErrForbidden
	}

	proposalID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Proposal{}, err
	}
	status := entities.ProposalStatusDraft
	if cmd.Activate {
		status = entities.ProposalStatusActive
	}
	proposal := entities.Proposal{
		ProposalID:     proposalID,
		Title:          title,
		Description:    description,
		Proposer:       proposer,
		Type:           proposalType,
		Status:         status,
		Payload:        cmd.Payload,
		Metadata:       cmd.Metadata,
		VotingStartsAt: startsAt,
		VotingEndsAt:   endsAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.Repository.CreateProposal(ctx, proposal); err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("proposal submitted",
		"event", "proposal_submitted",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"proposer", proposal.Proposer,
		"status", string(proposal.Status),
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalCreated, now, contractsv1.ProposalCreatedData{
		ProposalID:     proposal.ProposalID,
		Title:          proposal.Title,
		Proposer:       proposal.Proposer,
		ProposalType:   string(proposal.Type),
		Status:         string(proposal.Status),
		VotingStartsAt: &proposal.VotingStartsAt,
		VotingEndsAt:   &proposal.VotingEndsAt,
	})
	return proposal, nil
}
