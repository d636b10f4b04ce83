package treasuryapproval

import (
	"log/slog"

	httpadapter "atomsi/contexts/treasury/treasury-approval/adapters/http"
	"atomsi/contexts/treasury/treasury-approval/adapters/memory"
	"atomsi/contexts/treasury/treasury-approval/application/commands"
	"atomsi/contexts/treasury/treasury-approval/application/queries"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	"atomsi/contexts/treasury/treasury-approval/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository      ports.Repository
	Authorizer      ports.Authorizer
	Publisher       ports.EventPublisher
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	TreasuryAddress string
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	address := deps.TreasuryAddress
	if address == "" {
		address = commands.DefaultTreasuryAddress
	}
	return Module{
		Handler: httpadapter.Handler{
			Treasury: commands.TreasuryUseCase{
				Repository:      deps.Repository,
				Authorizer:      deps.Authorizer,
				Publisher:       deps.Publisher,
				Clock:           deps.Clock,
				IDGen:           deps.IDGen,
				TreasuryAddress: address,
				Logger:          deps.Logger,
			},
			Queries: queries.TreasuryQueryUseCase{
				Repository:      deps.Repository,
				TreasuryAddress: address,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule builds the module over a fresh in-memory ledger. A nil
// authorizer denies every approval.
func NewInMemoryModule(
	seed []entities.Transaction,
	authorizer ports.Authorizer,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Authorizer: authorizer,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
