package httpadapter

import (
	"context"
	"log/slog"

	"atomsi/contexts/community-experience/reputation-ledger/application/queries"
	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
	httptransport "atomsi/contexts/community-experience/reputation-ledger/transport/http"
)

type Handler struct {
	Queries queries.ActivityQueryUseCase
	Logger  *slog.Logger
}

func (h Handler) ListActivitiesHandler(
	ctx context.Context,
	member string,
	activityType string,
	limit int,
) (httptransport.ListActivitiesResponse, error) {
	items, err := h.Queries.ListActivities(ctx, member, activityType, limit)
	if err != nil {
		return httptransport.ListActivitiesResponse{}, err
	}
	response := httptransport.ListActivitiesResponse{Items: make([]httptransport.ActivityResponse, 0, len(items))}
	for _, activity := range items {
		response.Items = append(response.Items, toActivityResponse(activity))
	}
	return response, nil
}

func (h Handler) GetActivityHandler(ctx context.Context, activityID string) (httptransport.ActivityResponse, error) {
	activity, err := h.Queries.GetActivity(ctx, activityID)
	if err != nil {
		return httptransport.ActivityResponse{}, err
	}
	return toActivityResponse(activity), nil
}

func toActivityResponse(activity entities.Activity) httptransport.ActivityResponse {
	return httptransport.ActivityResponse{
		ActivityID:        activity.ActivityID,
		MemberAddress:     activity.MemberAddress,
		ActivityType:      string(activity.Type),
		RelatedID:         activity.RelatedID,
		ReputationChange:  activity.ReputationChange,
		ReputationApplied: activity.ReputationApplied(),
		ApplyStatus:       string(activity.ApplyStatus),
		Description:       activity.Description,
		Metadata:          activity.Metadata,
		Timestamp:         activity.CreatedAt,
	}
}
