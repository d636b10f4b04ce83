package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/treasury/treasury-approval/ports"
)

// DefaultTreasuryAddress holds the organization funds when none is configured.
const DefaultTreasuryAddress = "0xTreasury"

// TreasuryUseCase drives proposing, approving, rejecting and funding treasury
// transactions.
type TreasuryUseCase struct {
	Repository      ports.Repository
	Authorizer      ports.Authorizer
	Publisher       ports.EventPublisher
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	TreasuryAddress string
	Logger          *slog.Logger
}

func (uc TreasuryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc TreasuryUseCase) treasuryAddress() string {
	if address := strings.TrimSpace(uc.TreasuryAddress); address != "" {
		return address
	}
	return DefaultTreasuryAddress
}

func (uc TreasuryUseCase) authorized(ctx context.Context, actor string, action string) bool {
	return actor != "" && uc.Authorizer != nil && uc.Authorizer.IsAuthorized(ctx, actor, action, "treasury")
}

// publishEvent runs after the store commit; failures are only logged.
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
		logger.Warn("treasury event publish failed",
			"event", "treasury_event_publish_failed",
			"module", "treasury/treasury-approval",
			"layer", "application",
			"event_type", string(eventType),
			"error", err.Error(),
		)
	}
}
