package queries

import (
	"context"
	"log/slog"
	"strings"

	application "atomsi/contexts/identity-access/member-registry/application"
	"atomsi/contexts/identity-access/member-registry/domain/services"
	"atomsi/contexts/identity-access/member-registry/ports"
)

// AuthorizationUseCase answers role-gated checks for the other contexts.
type AuthorizationUseCase struct {
	Repository ports.Repository
	Policy     services.Policy
	Logger     *slog.Logger
}

// IsAuthorized returns false on unknown members and on lookup failures.
func (uc AuthorizationUseCase) IsAuthorized(ctx context.Context, address string, action string, resource string) bool {
	logger := application.ResolveLogger(uc.Logger)
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	member, err := uc.Repository.GetMember(ctx, address)
	if err != nil {
		logger.Warn("member lookup failed, deny by default",
			"event", "member_authz_lookup_failed",
			"module", "identity-access/member-registry",
			"layer", "application",
			"member_address", address,
			"action", action,
			"resource", resource,
			"error", err.Error(),
		)
		return false
	}

	allowed := services.IsAuthorized(member, action, resource, uc.Policy)
	if !allowed {
		logger.Debug("authorization denied",
			"event", "member_authz_denied",
			"module", "identity-access/member-registry",
			"layer", "application",
			"member_address", address,
			"role", string(member.Role),
			"status", string(member.Status),
			"action", action,
			"resource", resource,
		)
	}
	return allowed
}
