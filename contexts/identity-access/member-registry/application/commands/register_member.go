package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/identity-access/member-registry/application"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/ports"
)

type RegisterMemberCommand struct {
	Address  string
	Name     string
	Role     string
	Metadata map[string]any
}

type RegisterMemberUseCase struct {
	Repository ports.Repository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc RegisterMemberUseCase) Execute(ctx context.Context, cmd RegisterMemberCommand) (entities.Member, error) {
	logger := application.ResolveLogger(uc.Logger)
	address := strings.TrimSpace(cmd.Address)
	if address == "" {
		return entities.Member{}, domainerrors.ErrValidation
	}
	role := entities.RoleMember
	if strings.TrimSpace(cmd.Role) != "" {
		parsed, ok := entities.ParseRole(cmd.Role)
		if !ok {
			return entities.Member{}, domainerrors.ErrValidation
		}
		role = parsed
	}

	now := uc.now()
	member := entities.Member{
		Address:   address,
		Name:      strings.TrimSpace(cmd.Name),
		Role:      role,
		Status:    entities.StatusActive,
		Metadata:  cmd.Metadata,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if err := uc.Repository.CreateMember(ctx, member); err != nil {
		return entities.Member{}, err
	}

	logger.Info("member registered",
		"event", "member_registered",
		"module", "identity-access/member-registry",
		"layer", "application",
		"member_address", member.Address,
		"role", string(member.Role),
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventMemberRegistered, now, contractsv1.MemberRegisteredData{
		Address: member.Address,
		Name:    member.Name,
		Role:    string(member.Role),
	})
	return member, nil
}

func (uc RegisterMemberUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
