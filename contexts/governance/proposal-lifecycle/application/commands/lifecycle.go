package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	"atomsi/contexts/governance/proposal-lifecycle/domain/services"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

// DefaultVotingPeriod applies when neither the caller nor configuration
// provides a voting window.
const DefaultVotingPeriod = 72 * time.Hour

// LifecycleUseCase drives every proposal transition other than voting.
type LifecycleUseCase struct {
	Repository   ports.Repository
	Authorizer   ports.Authorizer
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Quorum       services.QuorumRule
	VotingPeriod time.Duration
	Logger       *slog.Logger
}

func (uc LifecycleUseCase) now() time.Time {
	return resolveNow(uc.Clock)
}

func (uc LifecycleUseCase) votingPeriod() time.Duration {
	if uc.VotingPeriod <= 0 {
		return DefaultVotingPeriod
	}
	return uc.VotingPeriod
}

// authorized is true for the proposer or any member holding the permission.
func (uc LifecycleUseCase) authorized(ctx context.Context, proposal entities.Proposal, actor string, action string) bool {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return false
	}
	if actor == proposal.Proposer {
		return true
	}
	return uc.Authorizer != nil && uc.Authorizer.IsAuthorized(ctx, actor, action, "proposal")
}
