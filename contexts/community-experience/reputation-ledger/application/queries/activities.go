package queries

import (
	"context"
	"strings"

	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/ports"
)

const (
	DefaultActivityLimit = 100
	MaxActivityLimit     = 500
)

type ActivityQueryUseCase struct {
	Repository ports.Repository
}

// ListActivities returns the newest activities first.
func (uc ActivityQueryUseCase) ListActivities(
	ctx context.Context,
	member string,
	activityType string,
	limit int,
) ([]entities.Activity, error) {
	filter := ports.ActivityFilter{
		MemberAddress: strings.TrimSpace(member),
		Limit:         limit,
	}
	if limit < 0 {
		return nil, domainerrors.ErrValidation
	}
	if limit == 0 {
		filter.Limit = DefaultActivityLimit
	}
	if filter.Limit > MaxActivityLimit {
		filter.Limit = MaxActivityLimit
	}
	if strings.TrimSpace(activityType) != "" {
		parsed, ok := entities.ParseActivityType(activityType)
		if !ok {
			return nil, domainerrors.ErrValidation
		}
		filter.Type = parsed
	}
	return uc.Repository.ListActivities(ctx, filter)
}

func (uc ActivityQueryUseCase) GetActivity(ctx context.Context, activityID string) (entities.Activity, error) {
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return entities.Activity{}, domainerrors.ErrValidation
	}
	return uc.Repository.GetActivity(ctx, activityID)
}
