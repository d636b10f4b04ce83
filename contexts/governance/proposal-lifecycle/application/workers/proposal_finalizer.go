package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "atomsi/contexts/governance/proposal-lifecycle/application"
	"atomsi/contexts/governance/proposal-lifecycle/application/commands"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

// ProposalFinalizer closes active proposals whose voting window has elapsed.
type ProposalFinalizer struct {
	Repository ports.Repository
	Lifecycle  commands.LifecycleUseCase
	Clock      ports.Clock
	BatchSize  int
	Logger     *slog.Logger
}

// RunOnce finalizes one batch and returns how many proposals it decided.
func (w ProposalFinalizer) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}
	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	due, err := w.Repository.ListDueProposals(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, proposal := range due {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		if _, err := w.Lifecycle.Finalize(ctx, proposal.ProposalID); err != nil {
			if errors.Is(err, domainerrors.ErrInvalidState) {
				continue
			}
			logger.Error("proposal finalize failed",
				"event", "proposal_finalizer_failed",
				"module", "governance/proposal-lifecycle",
				"layer", "worker",
				"proposal_id", proposal.ProposalID,
				"error", err.Error(),
			)
			continue
		}
		finalized++
	}
	if finalized > 0 {
		logger.Info("proposal finalizer batch completed",
			"event", "proposal_finalizer_batch_completed",
			"module", "governance/proposal-lifecycle",
			"layer", "worker",
			"due", len(due),
			"finalized", finalized,
		)
	}
	return finalized, nil
}
