package workers

import (
	"context"
	"errors"
	"log/slog"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/community-experience/reputation-ledger/application"
	"atomsi/contexts/community-experience/reputation-ledger/application/commands"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/ports"
)

// ActivityConsumer turns lifecycle and approval events into activities.
type ActivityConsumer struct {
	Recorder commands.RecordActivityUseCase
	Logger   *slog.Logger
}

// Run drains stream until ctx is done or the stream closes. Handling errors
// are logged and never stop the loop.
func (w ActivityConsumer) Run(ctx context.Context, stream ports.EventStream) error {
	logger := application.ResolveLogger(w.Logger)
	defer stream.Close()
	logger.Info("activity consumer started",
		"event", "reputation_consumer_started",
		"module", "community-experience/reputation-ledger",
		"layer", "worker",
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-stream.Events():
			if !ok {
				logger.Warn("activity consumer stream closed",
					"event", "reputation_consumer_stream_closed",
					"module", "community-experience/reputation-ledger",
					"layer", "worker",
				)
				return nil
			}
			if err := w.Handle(ctx, event); err != nil {
				logger.Error("activity consumer handle failed",
					"event", "reputation_consumer_handle_failed",
					"module", "community-experience/reputation-ledger",
					"layer", "worker",
					"event_type", string(event.EventType),
					"error", err.Error(),
				)
			}
		}
	}
}

// Handle records the activity for one event. Replays are ignored.
func (w ActivityConsumer) Handle(ctx context.Context, event contractsv1.DomainEvent) error {
	cmd, ok, err := commands.ActivityFromEvent(event)
	if err != nil || !ok {
		return err
	}
	if _, err := w.Recorder.Record(ctx, cmd); err != nil && !errors.Is(err, domainerrors.ErrDuplicateActivity) {
		return err
	}
	return nil
}
