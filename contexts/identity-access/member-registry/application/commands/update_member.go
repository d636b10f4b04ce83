package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/identity-access/member-registry/application"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/domain/services"
	"atomsi/contexts/identity-access/member-registry/ports"
)

// UpdateMemberCommand carries optional changes; empty fields are left alone.
type UpdateMemberCommand struct {
	Actor   string
	Address string
	Name    *string
	Role    string
	Status  string
}

type UpdateMemberUseCase struct {
	Repository ports.Repository
	Publisher  ports.EventPublisher
	Policy     services.Policy
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc UpdateMemberUseCase) Execute(ctx context.Context, cmd UpdateMemberCommand) (entities.Member, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorAddress := strings.TrimSpace(cmd.Actor)
	address := strings.TrimSpace(cmd.Address)
	if actorAddress == "" || address == "" {
		return entities.Member{}, domainerrors.ErrValidation
	}

	actor, err := uc.Repository.GetMember(ctx, actorAddress)
	if err != nil {
		if errors.Is(err, domainerrors.ErrMemberNotFound) {
			return entities.Member{}, domainerrors.ErrForbidden
		}
		return entities.Member{}, err
	}
	if !services.IsAuthorized(actor, "update", services.ResourceMember, uc.Policy) {
		logger.Warn("member update forbidden",
			"event", "member_update_forbidden",
			"module", "identity-access/member-registry",
			"layer", "application",
			"actor", actorAddress,
			"member_address", address,
		)
		return entities.Member{}, domainerrors.ErrForbidden
	}

	member, err := uc.Repository.GetMember(ctx, address)
	if err != nil {
		return entities.Member{}, err
	}
	if cmd.Name != nil {
		member.Name = strings.TrimSpace(*cmd.Name)
	}
	if strings.TrimSpace(cmd.Role) != "" {
		role, ok := entities.ParseRole(cmd.Role)
		if !ok {
			return entities.Member{}, domainerrors.ErrValidation
		}
		member.Role = role
	}
	if strings.TrimSpace(cmd.Status) != "" {
		status, ok := entities.ParseStatus(cmd.Status)
		if !ok {
			return entities.Member{}, domainerrors.ErrValidation
		}
		member.Status = status
	}
	now := uc.now()
	member.UpdatedAt = now
	if err := uc.Repository.UpdateMember(ctx, member); err != nil {
		return entities.Member{}, err
	}

	logger.Info("member updated",
		"event", "member_updated",
		"module", "identity-access/member-registry",
		"layer", "application",
		"actor", actorAddress,
		"member_address", member.Address,
		"role", string(member.Role),
		"status", string(member.Status),
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventMemberUpdated, now, memberUpdatedData(member, actorAddress))
	return member, nil
}

func (uc UpdateMemberUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
