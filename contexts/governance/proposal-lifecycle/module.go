package proposallifecycle

import (
	"log/slog"
	"time"

	httpadapter "atomsi/contexts/governance/proposal-lifecycle/adapters/http"
	"atomsi/contexts/governance/proposal-lifecycle/adapters/memory"
	"atomsi/contexts/governance/proposal-lifecycle/application/commands"
	"atomsi/contexts/governance/proposal-lifecycle/application/queries"
	"atomsi/contexts/governance/proposal-lifecycle/application/workers"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	"atomsi/contexts/governance/proposal-lifecycle/domain/services"
	"atomsi/contexts/governance/proposal-lifecycle/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Finalizer workers.ProposalFinalizer
	Store     *memory.Store
}

type Dependencies struct {
	Repository   ports.Repository
	Authorizer   ports.Authorizer
	Publisher    ports.EventPublisher
	Effect       ports.ExecutionEffect
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Quorum       services.QuorumRule
	VotingPeriod time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycle := commands.LifecycleUseCase{
		Repository:   deps.Repository,
		Authorizer:   deps.Authorizer,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Quorum:       deps.Quorum,
		VotingPeriod: deps.VotingPeriod,
		Logger:       deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Lifecycle: lifecycle,
			Votes: commands.VoteUseCase{
				Repository: deps.Repository,
				Authorizer: deps.Authorizer,
				Publisher:  deps.Publisher,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Queries: queries.ProposalQueryUseCase{
				Repository: deps.Repository,
				Lifecycle:  lifecycle,
				Clock:      deps.Clock,
			},
			Effect: deps.Effect,
			Logger: deps.Logger,
		},
		Finalizer: workers.ProposalFinalizer{
			Repository: deps.Repository,
			Lifecycle:  lifecycle,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// InMemoryOptions carries the collaborators of an in-memory module. Zero
// values leave authorization open and events unpublished.
type InMemoryOptions struct {
	Authorizer ports.Authorizer
	Publisher  ports.EventPublisher
	Effect     ports.ExecutionEffect
	Quorum     services.QuorumRule
	Logger     *slog.Logger
}

func NewInMemoryModule(seed []entities.Proposal, opts InMemoryOptions) Module {
	store := memory.NewStore(seed)
	quorum := opts.Quorum
	if quorum.Threshold == 0 {
		quorum.Threshold = 1
	}
	module := NewModule(Dependencies{
		Repository:   store,
		Authorizer:   opts.Authorizer,
		Publisher:    opts.Publisher,
		Effect:       opts.Effect,
		Clock:        store,
		IDGen:        store,
		Quorum:       quorum,
		VotingPeriod: commands.DefaultVotingPeriod,
		Logger:       opts.Logger,
	})
	module.Store = store
	return module
}
