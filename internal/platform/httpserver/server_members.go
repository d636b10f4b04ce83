package httpserver

import (
	"errors"
	"net/http"
	"strings"

	memberregistryerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	memberhttp "atomsi/contexts/identity-access/member-registry/transport/http"
)

func writeMemberDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memberregistryerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, memberregistryerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, memberregistryerrors.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, memberregistryerrors.ErrMemberExists):
		writeError(w, http.StatusConflict, "member_exists", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req memberhttp.RegisterMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Self-registration yields a plain member; other roles need a member admin.
	if role := strings.ToLower(strings.TrimSpace(req.Role)); role != "" && role != "member" {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		if !s.members.Authorization.IsAuthorized(r.Context(), actor, "update", "member") {
			writeMemberDomainError(w, memberregistryerrors.ErrForbidden)
			return
		}
	}
	resp, err := s.members.Handler.RegisterMemberHandler(r.Context(), req)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req memberhttp.UpdateMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.members.Handler.UpdateMemberHandler(r.Context(), actor, r.PathValue("address"), req)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.members.Handler.GetMemberHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.members.Handler.ListMembersHandler(r.Context(), query.Get("role"), query.Get("status"))
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
