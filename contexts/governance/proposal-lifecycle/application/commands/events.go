package commands

import (
	"context"
	"log/slog"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

// publishEvent runs only after the store commit. Failures are logged and
// never surfaced to the caller.
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
		logger.Warn("proposal event publish failed",
			"event", "proposal_event_publish_failed",
			"module", "governance/proposal-lifecycle",
			"layer", "application",
			"event_type", string(eventType),
			"error", err.Error(),
		)
	}
}

func proposalUpdatedData(
	proposal entities.Proposal,
	previous entities.ProposalStatus,
	actor string,
) contractsv1.ProposalUpdatedData {
	return contractsv1.ProposalUpdatedData{
		ProposalID:     proposal.ProposalID,
		Status:         string(proposal.Status),
		PreviousStatus: string(previous),
		YesVotes:       proposal.Tally.Yes,
		NoVotes:        proposal.Tally.No,
		AbstainVotes:   proposal.Tally.Abstain,
		Actor:          actor,
	}
}

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
