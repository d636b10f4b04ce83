package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/community-experience/reputation-ledger/application"
	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/domain/services"
	"atomsi/contexts/community-experience/reputation-ledger/ports"
)

type RecordActivityCommand struct {
	MemberAddress string
	Type          entities.ActivityType
	RelatedID     string
	Description   string
	Metadata      map[string]any
	OccurredAt    time.Time
}

type RecordActivityUseCase struct {
	Repository ports.Repository
	Applier    ports.ReputationApplier
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Deltas     services.Deltas
	Logger     *slog.Logger
}

// Record stores the activity and then tries to apply its delta. A failed
// application leaves the activity pending for RetryPending; it is not an
// error for the caller. A replayed activity returns ErrDuplicateActivity.
func (uc RecordActivityUseCase) Record(ctx context.Context, cmd RecordActivityCommand) (entities.Activity, error) {
	logger := application.ResolveLogger(uc.Logger)
	member := strings.TrimSpace(cmd.MemberAddress)
	relatedID := strings.TrimSpace(cmd.RelatedID)
	if _, ok := entities.ParseActivityType(string(cmd.Type)); !ok || member == "" || relatedID == "" {
		return entities.Activity{}, domainerrors.ErrValidation
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Activity{}, err
	}
	createdAt := cmd.OccurredAt.UTC()
	if cmd.OccurredAt.IsZero() {
		createdAt = uc.now()
	}
	activity := entities.Activity{
		ActivityID:       activityID,
		MemberAddress:    member,
		Type:             cmd.Type,
		RelatedID:        relatedID,
		ReputationChange: uc.Deltas.For(cmd.Type),
		ApplyStatus:      entities.ApplyStatusPending,
		Description:      cmd.Description,
		Metadata:         cmd.Metadata,
		CreatedAt:        createdAt,
	}
	if err := uc.Repository.RecordActivity(ctx, activity); err != nil {
		return entities.Activity{}, err
	}

	activity = uc.apply(ctx, logger, activity)
	logger.Info("activity recorded",
		"event", "reputation_activity_recorded",
		"module", "community-experience/reputation-ledger",
		"layer", "application",
		"activity_id", activity.ActivityID,
		"member_address", activity.MemberAddress,
		"activity_type", string(activity.Type),
		"related_id", activity.RelatedID,
		"apply_status", string(activity.ApplyStatus),
	)
	uc.publish(ctx, logger, activity)
	return activity, nil
}

// RetryPending re-applies up to limit pending deltas and reports how many
// were applied.
func (uc RecordActivityUseCase) RetryPending(ctx context.Context, limit int) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	pending, err := uc.Repository.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, activity := range pending {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if uc.apply(ctx, logger, activity).ReputationApplied() {
			applied++
		}
	}
	return applied, nil
}

func (uc RecordActivityUseCase) apply(ctx context.Context, logger *slog.Logger, activity entities.Activity) entities.Activity {
	if uc.Applier == nil {
		return activity
	}
	now := uc.now()
	status := entities.ApplyStatusApplied
	lastError := ""
	if err := uc.Applier.ApplyDelta(ctx, activity.MemberAddress, activity.ReputationChange, now); err != nil {
		lastError = err.Error()
		status = entities.ApplyStatusPending
		if errors.Is(err, domainerrors.ErrMemberUnknown) {
			status = entities.ApplyStatusSkipped
		}
		logger.Warn("reputation delta not applied",
			"event", "reputation_delta_apply_failed",
			"module", "community-experience/reputation-ledger",
			"layer", "application",
			"activity_id", activity.ActivityID,
			"member_address", activity.MemberAddress,
			"apply_status", string(status),
			"error", lastError,
		)
	}
	updated, err := uc.Repository.MarkApplyResult(ctx, activity.ActivityID, status, lastError, now)
	if err != nil {
		logger.Error("reputation apply result not stored",
			"event", "reputation_apply_mark_failed",
			"module", "community-experience/reputation-ledger",
			"layer", "application",
			"activity_id", activity.ActivityID,
			"error", err.Error(),
		)
		return activity
	}
	return updated
}

func (uc RecordActivityUseCase) publish(ctx context.Context, logger *slog.Logger, activity entities.Activity) {
	if uc.Publisher == nil {
		return
	}
	event, err := contractsv1.NewDomainEvent(contractsv1.EventActivityRecorded, activity.CreatedAt, contractsv1.ActivityRecordedData{
		ActivityID:       activity.ActivityID,
		MemberAddress:    activity.MemberAddress,
		ActivityType:     string(activity.Type),
		RelatedID:        activity.RelatedID,
		ReputationChange: activity.ReputationChange,
	})
	if err == nil {
		err = uc.Publisher.Publish(ctx, event)
	}
	if err != nil {
		logger.Warn("activity event publish failed",
			"event", "reputation_event_publish_failed",
			"module", "community-experience/reputation-ledger",
			"layer", "application",
			"activity_id", activity.ActivityID,
			"error", err.Error(),
		)
	}
}

func (uc RecordActivityUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
