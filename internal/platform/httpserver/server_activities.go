package httpserver

import (
	"errors"
	"net/http"

	reputationerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
)

func writeReputationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reputationerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, reputationerrors.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "activity_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleListMemberActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.reputation.Handler.ListActivitiesHandler(r.Context(), r.PathValue("address"), r.URL.Query().Get("type"), limit)
	if err != nil {
		writeReputationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.reputation.Handler.ListActivitiesHandler(r.Context(), query.Get("member"), query.Get("type"), limit)
	if err != nil {
		writeReputationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reputation.Handler.GetActivityHandler(r.Context(), r.PathValue("activity_id"))
	if err != nil {
		writeReputationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
