package memberregistry

import (
	"log/slog"

	httpadapter "atomsi/contexts/identity-access/member-registry/adapters/http"
	"atomsi/contexts/identity-access/member-registry/adapters/memory"
	"atomsi/contexts/identity-access/member-registry/application/commands"
	"atomsi/contexts/identity-access/member-registry/application/queries"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
	"atomsi/contexts/identity-access/member-registry/domain/services"
	"atomsi/contexts/identity-access/member-registry/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	Authorization queries.AuthorizationUseCase
	Reputation    commands.ApplyReputationDeltaUseCase
	Store         *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	// Policy overrides the default role matrix when non-nil.
	Policy services.Policy
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	policy := deps.Policy
	if policy == nil {
		policy = services.DefaultPolicy()
	}
	return Module{
		Handler: httpadapter.Handler{
			Register: commands.RegisterMemberUseCase{
				Repository: deps.Repository,
				Publisher:  deps.Publisher,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Update: commands.UpdateMemberUseCase{
				Repository: deps.Repository,
				Publisher:  deps.Publisher,
				Policy:     policy,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Members: queries.MemberQueryUseCase{
				Repository: deps.Repository,
			},
			Logger: deps.Logger,
		},
		Authorization: queries.AuthorizationUseCase{
			Repository: deps.Repository,
			Policy:     policy,
			Logger:     deps.Logger,
		},
		Reputation: commands.ApplyReputationDeltaUseCase{
			Repository: deps.Repository,
			Publisher:  deps.Publisher,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Member, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Publisher:  publisher,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
