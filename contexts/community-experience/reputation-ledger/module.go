package reputationledger

import (
	"log/slog"

	httpadapter "atomsi/contexts/community-experience/reputation-ledger/adapters/http"
	"atomsi/contexts/community-experience/reputation-ledger/adapters/memory"
	"atomsi/contexts/community-experience/reputation-ledger/application/commands"
	"atomsi/contexts/community-experience/reputation-ledger/application/queries"
	"atomsi/contexts/community-experience/reputation-ledger/application/workers"
	"atomsi/contexts/community-experience/reputation-ledger/domain/services"
	"atomsi/contexts/community-experience/reputation-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Recorder commands.RecordActivityUseCase
	Consumer workers.ActivityConsumer
	Retrier  workers.ReputationRetrier
	Store    *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Applier    ports.ReputationApplier
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Deltas     services.Deltas
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recorder := commands.RecordActivityUseCase{
		Repository: deps.Repository,
		Applier:    deps.Applier,
		Publisher:  deps.Publisher,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Deltas:     deps.Deltas,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Queries: queries.ActivityQueryUseCase{Repository: deps.Repository},
			Logger:  deps.Logger,
		},
		Recorder: recorder,
		Consumer: workers.ActivityConsumer{Recorder: recorder, Logger: deps.Logger},
		Retrier:  workers.ReputationRetrier{Recorder: recorder, Logger: deps.Logger},
	}
}

func NewInMemoryModule(
	applier ports.ReputationApplier,
	publisher ports.EventPublisher,
	deltas services.Deltas,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Applier:    applier,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Deltas:     deltas,
		Logger:     logger,
	})
	module.Store = store
	return module
}
