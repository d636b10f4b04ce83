package httpserver

import (
	"errors"
	"net/http"

	proposalerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	proposalhttp "atomsi/contexts/governance/proposal-lifecycle/transport/http"
)

func writeProposalDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, proposalerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, proposalerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, proposalerrors.ErrProposalNotFound):
		writeError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, proposalerrors.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, proposalerrors.ErrExecution):
		writeError(w, http.StatusUnprocessableEntity, "execution_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req proposalhttp.SubmitProposalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.proposals.Handler.SubmitProposalHandler(r.Context(), actor, req)
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.proposals.Handler.ListProposalsHandler(r.Context(), query.Get("status"), query.Get("proposer"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.GetProposalHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req proposalhttp.ActivateProposalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.proposals.Handler.ActivateProposalHandler(r.Context(), actor, r.PathValue("proposal_id"), req)
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req proposalhttp.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.proposals.Handler.CastVoteHandler(r.Context(), actor, r.PathValue("proposal_id"), req)
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.ListVotesHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeProposal(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.FinalizeProposalHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.proposals.Handler.ExecuteProposalHandler(r.Context(), actor, r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.proposals.Handler.CancelProposalHandler(r.Context(), actor, r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
