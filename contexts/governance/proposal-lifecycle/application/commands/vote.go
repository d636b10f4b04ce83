package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

type CastVoteCommand struct {
	ProposalID string
	Voter      string
	Choice     string
	// Weight is caller-supplied voting power and is never recomputed.
	Weight int64
}

type CastVoteResult struct {
	Vote     entities.Vote
	Proposal entities.Proposal
}

type VoteUseCase struct {
	Repository ports.Repository
	Authorizer ports.Authorizer
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	Logger     *slog.Logger
}

// CastVote records one weighted vote and bumps the matching tally bucket in a
// single store unit. A second vote by the same member is rejected.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID := strings.TrimSpace(cmd.ProposalID)
	voter := strings.TrimSpace(cmd.Voter)
	choice, choiceOK := entities.ParseVoteChoice(cmd.Choice)
	if proposalID == "" || voter == "" || !choiceOK || cmd.Weight <= 0 {
		logger.Warn("vote validation failed",
			"event", "proposal_vote_validation_failed",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposal_id", proposalID,
			"voter", voter,
		)
		return CastVoteResult{}, domainerrors.ErrValidation
	}
	if uc.Authorizer != nil && !uc.Authorizer.IsAuthorized(ctx, voter, "create", "vote") {
		return CastVoteResult{}, domainerrors.ErrForbidden
	}

	now := uc.now()
	vote := entities.Vote{
		ProposalID: proposalID,
		Voter:      voter,
		Choice:     choice,
		Weight:     cmd.Weight,
		CastAt:     now,
	}
	proposal, err := uc.Repository.RecordVote(ctx, vote, func(proposal entities.Proposal) error {
		if !proposal.AcceptsVotesAt(now) {
			return domainerrors.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		logger.Warn("vote rejected",
			"event", "proposal_vote_rejected",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"proposal_id", proposalID,
			"voter", voter,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	logger.Info("vote recorded",
		"event", "proposal_vote_recorded",
		"module", "governance/proposal-lifecycle",
		"layer", "application",
		"proposal_id", proposalID,
		"voter", voter,
		"choice", string(choice),
		"weight", cmd.Weight,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventProposalVoted, now, contractsv1.ProposalVotedData{
		ProposalID:  proposalID,
		Voter:       voter,
		Vote:        string(choice),
		VotingPower: cmd.Weight,
	})
	return CastVoteResult{Vote: vote, Proposal: proposal}, nil
}

func (uc VoteUseCase) now() time.Time {
	return resolveNow(uc.Clock)
}
