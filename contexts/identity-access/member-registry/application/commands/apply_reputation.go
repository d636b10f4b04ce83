package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	application "atomsi/contexts/identity-access/member-registry/application"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/ports"
)

// ApplyReputationDeltaUseCase is the write path the reputation ledger drives.
type ApplyReputationDeltaUseCase struct {
	Repository ports.Repository
	Publisher  ports.EventPublisher
	Logger     *slog.Logger
}

func (uc ApplyReputationDeltaUseCase) Execute(
	ctx context.Context,
	address string,
	delta int64,
	at time.Time,
) (entities.Member, error) {
	logger := application.ResolveLogger(uc.Logger)
	address = strings.TrimSpace(address)
	if address == "" {
		return entities.Member{}, domainerrors.ErrValidation
	}
	if at.IsZero() {
		at = time.Now()
	}

	member, err := uc.Repository.ApplyReputationDelta(ctx, address, delta, at.UTC())
	if err != nil {
		logger.Warn("reputation delta rejected",
			"event", "member_reputation_apply_failed",
			"module", "identity-access/member-registry",
			"layer", "application",
			"member_address", address,
			"delta", delta,
			"error", err.Error(),
		)
		return entities.Member{}, err
	}

	logger.Debug("reputation delta applied",
		"event", "member_reputation_applied",
		"module", "identity-access/member-registry",
		"layer", "application",
		"member_address", member.Address,
		"delta", delta,
		"reputation", member.Reputation,
	)
	publishEvent(ctx, uc.Publisher, logger, contractsv1.EventMemberUpdated, at, memberUpdatedData(member, ""))
	return member, nil
}
