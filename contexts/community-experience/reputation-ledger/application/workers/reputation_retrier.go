package workers

import (
	"context"
	"log/slog"

	application "atomsi/contexts/community-experience/reputation-ledger/application"
	"atomsi/contexts/community-experience/reputation-ledger/application/commands"
)

type ReputationRetrier struct {
	Recorder  commands.RecordActivityUseCase
	BatchSize int
	Logger    *slog.Logger
}

func (w ReputationRetrier) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	applied, err := w.Recorder.RetryPending(ctx, batchSize)
	if err != nil {
		logger.Error("reputation retry failed",
			"event", "reputation_retry_failed",
			"module", "community-experience/reputation-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return applied, err
	}
	if applied > 0 {
		logger.Info("reputation retry batch completed",
			"event", "reputation_retry_batch_completed",
			"module", "community-experience/reputation-ledger",
			"layer", "worker",
			"applied", applied,
		)
	}
	return applied, nil
}
