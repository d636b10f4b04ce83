package queries

import (
	"context"
	"strings"

	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/ports"
)

type MemberQueryUseCase struct {
	Repository ports.Repository
}

func (uc MemberQueryUseCase) GetMember(ctx context.Context, address string) (entities.Member, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return entities.Member{}, domainerrors.ErrValidation
	}
	return uc.Repository.GetMember(ctx, address)
}

func (uc MemberQueryUseCase) ListMembers(ctx context.Context, role string, status string) ([]entities.Member, error) {
	filter := ports.MemberFilter{}
	if strings.TrimSpace(role) != "" {
		parsed, ok := entities.ParseRole(role)
		if !ok {
			return nil, domainerrors.ErrValidation
		}
		filter.Role = parsed
	}
	if strings.TrimSpace(status) != "" {
		parsed, ok := entities.ParseStatus(status)
		if !ok {
			return nil, domainerrors.ErrValidation
		}
		filter.Status = parsed
	}
	return uc.Repository.ListMembers(ctx, filter)
}
