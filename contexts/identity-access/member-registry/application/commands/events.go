package commands

import (
	"context"
	"log/slog"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	"atomsi/contexts/identity-access/member-registry/ports"
)

// publishEvent runs after the store commit. Failures are logged only.
func publishEvent(
	ctx context.Context,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	eventType contractsv1.EventType,
	at time.Time,
	data any,
) {
	if publisher == nil {
		return
	}
	event, err := contractsv1.NewDomainEvent(eventType, at, data)
	if err == nil {
		err = publisher.Publish(ctx, event)
	}
	if err != nil {
		logger.Warn("member event publish failed",
			"event", "member_event_publish_failed",
			"module", "identity-access/member-registry",
			"layer", "application",
			"event_type", string(eventType),
			"error", err.Error(),
		)
	}
}

func memberUpdatedData(member entities.Member, actor string) contractsv1.MemberUpdatedData {
	return contractsv1.MemberUpdatedData{
		Address:    member.Address,
		Name:       member.Name,
		Role:       string(member.Role),
		Status:     string(member.Status),
		Reputation: member.Reputation,
		Actor:      actor,
	}
}
