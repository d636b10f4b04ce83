package httpserver

import (
	"errors"
	"net/http"

	treasuryerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	treasuryhttp "atomsi/contexts/treasury/treasury-approval/transport/http"
)

func writeTreasuryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, treasuryerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, treasuryerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, treasuryerrors.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction_not_found", err.Error())
	case errors.Is(err, treasuryerrors.ErrDuplicateApproval):
		writeError(w, http.StatusConflict, "duplicate_approval", err.Error())
	case errors.Is(err, treasuryerrors.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, treasuryerrors.ErrExecution):
		writeError(w, http.StatusUnprocessableEntity, "execution_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleProposeTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req treasuryhttp.ProposeTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.treasury.Handler.ProposeTransactionHandler(r.Context(), actor, req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.treasury.Handler.ListTransactionsHandler(r.Context(), query.Get("status"), query.Get("related_proposal"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.GetTransactionHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.ApproveTransactionHandler(r.Context(), actor, r.PathValue("transaction_id"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.ListApprovalsHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.RejectTransactionHandler(r.Context(), actor, r.PathValue("transaction_id"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req treasuryhttp.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.treasury.Handler.DepositHandler(r.Context(), actor, req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.GetBalanceHandler(r.Context(), r.PathValue("token"), r.PathValue("holder"))
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
