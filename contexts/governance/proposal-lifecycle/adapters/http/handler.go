package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"atomsi/contexts/governance/proposal-lifecycle/application/commands"
	"atomsi/contexts/governance/proposal-lifecycle/application/queries"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
	httptransport "atomsi/contexts/governance/proposal-lifecycle/transport/http"
)

type Handler struct {
	Lifecycle commands.LifecycleUseCase
	Votes     commands.VoteUseCase
	Queries   queries.ProposalQueryUseCase
	// Effect applies execution payloads on Execute.
	Effect ports.ExecutionEffect
	Logger *slog.Logger
}

func (h Handler) SubmitProposalHandler(
	ctx context.Context,
	proposer string,
	req httptransport.SubmitProposalRequest,
) (httptransport.ProposalResponse, error) {
	cmd := commands.SubmitProposalCommand{
		Proposer:    proposer,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.ProposalType,
		Activate:    req.Activate,
		Metadata:    req.Metadata,
	}
	if req.VotingStartsAt != nil {
		cmd.VotingStartsAt = *req.VotingStartsAt
	}
	if req.VotingEndsAt != nil {
		cmd.VotingEndsAt = *req.VotingEndsAt
	}
	if req.Execution != nil {
		cmd.Payload = &entities.ExecutionPayload{Kind: req.Execution.Kind, Data: req.Execution.Data}
	}
	proposal, err := h.Lifecycle.Submit(ctx, cmd)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) ActivateProposalHandler(
	ctx context.Context,
	actor string,
	proposalID string,
	req httptransport.ActivateProposalRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.Activate(ctx, commands.ActivateProposalCommand{
		ProposalID: proposalID,
		Actor:      actor,
		Window:     time.Duration(req.VotingPeriodSeconds) * time.Second,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voter string,
	proposalID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		ProposalID: proposalID,
		Voter:      voter,
		Choice:     req.Vote,
		Weight:     req.VotingPower,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return toVoteResponse(result.Vote), nil
}

func (h Handler) FinalizeProposalHandler(ctx context.Context, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.Finalize(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) ExecuteProposalHandler(ctx context.Context, actor string, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.Execute(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposalID,
		Actor:      actor,
	}, h.Effect)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) CancelProposalHandler(ctx context.Context, actor string, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.Cancel(ctx, commands.CancelProposalCommand{
		ProposalID: proposalID,
		Actor:      actor,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return toProposalResponse(proposal), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context, status string, proposer string) (httptransport.ListProposalsResponse, error) {
	proposals, err := h.Queries.ListProposals(ctx, status, proposer)
	if err != nil {
		return httptransport.ListProposalsResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, toProposalResponse(proposal))
	}
	return httptransport.ListProposalsResponse{Items: items}, nil
}

func (h Handler) ListVotesHandler(ctx context.Context, proposalID string) (httptransport.ListVotesResponse, error) {
	votes, err := h.Queries.ListVotes(ctx, proposalID)
	if err != nil {
		return httptransport.ListVotesResponse{}, err
	}
	report, err := h.Queries.Tally(ctx, proposalID)
	if err != nil {
		return httptransport.ListVotesResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, toVoteResponse(vote))
	}
	return httptransport.ListVotesResponse{
		Items:         items,
		Tally:         toTallyResponse(report.Stored),
		Reconstructed: toTallyResponse(report.Reconstructed),
		Consistent:    report.Consistent,
	}, nil
}

func toProposalResponse(proposal entities.Proposal) httptransport.ProposalResponse {
	response := httptransport.ProposalResponse{
		ProposalID:     proposal.ProposalID,
		Title:          proposal.Title,
		Description:    proposal.Description,
		Proposer:       proposal.Proposer,
		ProposalType:   string(proposal.Type),
		Status:         string(proposal.Status),
		Tally:          toTallyResponse(proposal.Tally),
		Metadata:       proposal.Metadata,
		VotingStartsAt: proposal.VotingStartsAt,
		VotingEndsAt:   proposal.VotingEndsAt,
		CreatedAt:      proposal.CreatedAt,
		UpdatedAt:      proposal.UpdatedAt,
		FinalizedAt:    proposal.FinalizedAt,
		ExecutedAt:     proposal.ExecutedAt,
	}
	if proposal.Payload != nil {
		response.Execution = &httptransport.ExecutionPayload{
			Kind: proposal.Payload.Kind,
			Data: proposal.Payload.Data,
		}
	}
	return response
}

func toVoteResponse(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		ProposalID:  vote.ProposalID,
		Voter:       vote.Voter,
		Vote:        string(vote.Choice),
		VotingPower: vote.Weight,
		CastAt:      vote.CastAt,
	}
}

func toTallyResponse(tally entities.Tally) httptransport.TallyResponse {
	return httptransport.TallyResponse{
		Yes:     tally.Yes,
		No:      tally.No,
		Abstain: tally.Abstain,
	}
}
