package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	reputationledger "atomsi/contexts/community-experience/reputation-ledger"
	reputationmemory "atomsi/contexts/community-experience/reputation-ledger/adapters/memory"
	reputationpostgres "atomsi/contexts/community-experience/reputation-ledger/adapters/postgres"
	reputationerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	reputationservices "atomsi/contexts/community-experience/reputation-ledger/domain/services"
	reputationports "atomsi/contexts/community-experience/reputation-ledger/ports"
	proposallifecycle "atomsi/contexts/governance/proposal-lifecycle"
	proposalmemory "atomsi/contexts/governance/proposal-lifecycle/adapters/memory"
	proposalpostgres "atomsi/contexts/governance/proposal-lifecycle/adapters/postgres"
	proposalentities "atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	proposalservices "atomsi/contexts/governance/proposal-lifecycle/domain/services"
	proposalports "atomsi/contexts/governance/proposal-lifecycle/ports"
	memberregistry "atomsi/contexts/identity-access/member-registry"
	membermemory "atomsi/contexts/identity-access/member-registry/adapters/memory"
	memberpostgres "atomsi/contexts/identity-access/member-registry/adapters/postgres"
	membererrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	memberservices "atomsi/contexts/identity-access/member-registry/domain/services"
	treasuryapproval "atomsi/contexts/treasury/treasury-approval"
	treasurymemory "atomsi/contexts/treasury/treasury-approval/adapters/memory"
	treasurypostgres "atomsi/contexts/treasury/treasury-approval/adapters/postgres"
	treasurycommands "atomsi/contexts/treasury/treasury-approval/application/commands"
	"atomsi/internal/platform/config"
	"atomsi/internal/platform/db"
	"atomsi/internal/platform/httpserver"
	"atomsi/internal/platform/messaging"
)

// Execution payload kinds understood by the proposal effect.
const (
	PayloadKindTreasuryTransfer = "treasury_transfer"
	PayloadKindSignal           = "signal"
)

// contextDeps holds the store-specific half of every module's dependencies.
type contextDeps struct {
	members    memberregistry.Dependencies
	proposals  proposallifecycle.Dependencies
	treasury   treasuryapproval.Dependencies
	reputation reputationledger.Dependencies

	memoryStores *memoryStores
}

type memoryStores struct {
	members    *membermemory.Store
	proposals  *proposalmemory.Store
	treasury   *treasurymemory.Store
	reputation *reputationmemory.Store
}

// Build wires the four contexts, the event bus and the notification layer
// over the store selected by cfg.StoreDriver.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	overflow, ok := messaging.ParseOverflowPolicy(cfg.EventBus.OverflowPolicy)
	if !ok {
		return nil, fmt.Errorf("unsupported event bus overflow policy %q", cfg.EventBus.OverflowPolicy)
	}

	app := &Application{
		Config: cfg,
		Bus: messaging.NewBus(messaging.Options{
			QueueSize: cfg.EventBus.QueueSize,
			Overflow:  overflow,
			Logger:    logger,
		}),
		logger: logger,
	}

	var deps contextDeps
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		deps = memoryDeps()
	case config.StoreDriverPostgres:
		pg, pgDeps, err := postgresDeps(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.postgres = pg
		deps = pgDeps
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := messaging.NewRedisClient(cfg.RedisURL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.redis = client
	}

	app.assemble(deps)
	app.Notifier = httpserver.NewNotifier(app.Bus, httpserver.NotifierOptions{
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	logger.Info("application wired",
		"event", "bootstrap_application_wired",
		"module", moduleName,
		"layer", "platform",
		"store_driver", cfg.StoreDriver,
		"redis_forwarding", app.redis != nil,
		"quorum", cfg.Governance.Quorum,
	)
	return app, nil
}

func (a *Application) assemble(deps contextDeps) {
	cfg := a.Config

	deps.members.Publisher = a.Bus
	deps.members.Logger = a.logger
	if len(cfg.AuthzPolicy) > 0 {
		deps.members.Policy = memberservices.PolicyFromMatrix(cfg.AuthzPolicy)
	}
	a.Members = memberregistry.NewModule(deps.members)
	authorizer := a.Members.Authorization

	deps.treasury.Authorizer = authorizer
	deps.treasury.Publisher = a.Bus
	deps.treasury.TreasuryAddress = cfg.Treasury.Address
	deps.treasury.Logger = a.logger
	a.Treasury = treasuryapproval.NewModule(deps.treasury)

	deps.proposals.Authorizer = authorizer
	deps.proposals.Publisher = a.Bus
	deps.proposals.Effect = ExecutionEffect(a.Treasury.Handler.Treasury)
	deps.proposals.Quorum = proposalservices.QuorumRule{
		Threshold:    cfg.Governance.Quorum,
		CountAbstain: cfg.Governance.QuorumCountsAbstain,
	}
	deps.proposals.VotingPeriod = cfg.Governance.VotingPeriod
	deps.proposals.Logger = a.logger
	a.Proposals = proposallifecycle.NewModule(deps.proposals)

	deps.reputation.Applier = ReputationApplier(a.Members)
	deps.reputation.Publisher = a.Bus
	deps.reputation.Deltas = reputationservices.Deltas{
		ProposalSubmission: cfg.Reputation.ProposalCreated,
		Voting:             cfg.Reputation.ProposalVoted,
		TreasuryApproval:   cfg.Reputation.TransactionApproved,
		TreasuryExecution:  cfg.Reputation.TransactionExecuted,
	}
	deps.reputation.Logger = a.logger
	a.Reputation = reputationledger.NewModule(deps.reputation)

	if stores := deps.memoryStores; stores != nil {
		a.Members.Store = stores.members
		a.Proposals.Store = stores.proposals
		a.Treasury.Store = stores.treasury
		a.Reputation.Store = stores.reputation
	}
}

func memoryDeps() contextDeps {
	stores := &memoryStores{
		members:    membermemory.NewStore(nil),
		proposals:  proposalmemory.NewStore(nil),
		treasury:   treasurymemory.NewStore(nil),
		reputation: reputationmemory.NewStore(),
	}
	return contextDeps{
		members: memberregistry.Dependencies{
			Repository: stores.members,
			Clock:      stores.members,
		},
		proposals: proposallifecycle.Dependencies{
			Repository: stores.proposals,
			Clock:      stores.proposals,
			IDGen:      stores.proposals,
		},
		treasury: treasuryapproval.Dependencies{
			Repository: stores.treasury,
			Clock:      stores.treasury,
			IDGen:      stores.treasury,
		},
		reputation: reputationledger.Dependencies{
			Repository: stores.reputation,
			Clock:      stores.reputation,
			IDGen:      stores.reputation,
		},
		memoryStores: stores,
	}
}

func postgresDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (*db.Postgres, contextDeps, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, contextDeps{}, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN, logger)
	if err != nil {
		return nil, contextDeps{}, err
	}

	var models []any
	models = append(models, memberpostgres.Models()...)
	models = append(models, proposalpostgres.Models()...)
	models = append(models, treasurypostgres.Models()...)
	models = append(models, reputationpostgres.Models()...)
	if err := pg.Migrate(ctx, models...); err != nil {
		_ = pg.Close()
		return nil, contextDeps{}, err
	}

	return pg, contextDeps{
		members: memberregistry.Dependencies{
			Repository: memberpostgres.NewRepository(pg.DB, logger),
			Clock:      memberpostgres.SystemClock{},
		},
		proposals: proposallifecycle.Dependencies{
			Repository: proposalpostgres.NewRepository(pg.DB, logger),
			Clock:      proposalpostgres.SystemClock{},
			IDGen:      proposalpostgres.UUIDGenerator{},
		},
		treasury: treasuryapproval.Dependencies{
			Repository: treasurypostgres.NewRepository(pg.DB, logger),
			Clock:      treasurypostgres.SystemClock{},
			IDGen:      treasurypostgres.UUIDGenerator{},
		},
		reputation: reputationledger.Dependencies{
			Repository: reputationpostgres.NewRepository(pg.DB, logger),
			Clock:      reputationpostgres.SystemClock{},
			IDGen:      reputationpostgres.UUIDGenerator{},
		},
	}, nil
}

// ReputationApplier moves ledger deltas onto member records.
func ReputationApplier(members memberregistry.Module) reputationports.ReputationApplier {
	return reputationports.ReputationApplierFunc(func(ctx context.Context, address string, delta int64, at time.Time) error {
		_, err := members.Reputation.Execute(ctx, address, delta, at)
		if errors.Is(err, membererrors.ErrMemberNotFound) {
			return fmt.Errorf("%w: %s", reputationerrors.ErrMemberUnknown, address)
		}
		return err
	})
}

// ExecutionEffect applies a passed proposal's payload. A treasury_transfer
// payload opens a treasury transaction linked to the proposal; treasury
// Propose returns the already linked transaction when execution is retried.
// A signal payload has no effect beyond the status change.
func ExecutionEffect(treasury treasurycommands.TreasuryUseCase) proposalports.ExecutionEffect {
	return func(ctx context.Context, proposal proposalentities.Proposal) error {
		if proposal.Payload == nil {
			return nil
		}
		switch proposal.Payload.Kind {
		case PayloadKindSignal:
			return nil
		case PayloadKindTreasuryTransfer:
			cmd, err := transferCommand(proposal)
			if err != nil {
				return err
			}
			_, err = treasury.Propose(ctx, cmd)
			return err
		default:
			return fmt.Errorf("unsupported execution payload kind %q", proposal.Payload.Kind)
		}
	}
}

func transferCommand(proposal proposalentities.Proposal) (treasurycommands.ProposeTransactionCommand, error) {
	data := proposal.Payload.Data
	amount, err := int64Field(data, "amount", 0)
	if err != nil {
		return treasurycommands.ProposeTransactionCommand{}, err
	}
	required, err := int64Field(data, "required_approvals", 1)
	if err != nil {
		return treasurycommands.ProposeTransactionCommand{}, err
	}
	description := stringField(data, "description")
	if description == "" {
		description = proposal.Title
	}
	return treasurycommands.ProposeTransactionCommand{
		Description:       description,
		Recipient:         stringField(data, "recipient"),
		Token:             stringField(data, "token"),
		Amount:            amount,
		RequiredApprovals: int(required),
		RelatedProposal:   proposal.ProposalID,
		ProposedBy:        proposal.Proposer,
	}, nil
}

func stringField(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return strings.TrimSpace(value)
}

// int64Field accepts the numeric shapes a payload takes after a JSON round
// trip as well as values set directly in Go.
func int64Field(data map[string]any, key string, fallback int64) (int64, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch value := raw.(type) {
	case int:
		return int64(value), nil
	case int64:
		return value, nil
	case float64:
		if value != float64(int64(value)) {
			return 0, fmt.Errorf("payload field %s must be an integer", key)
		}
		return int64(value), nil
	case json.Number:
		return value.Int64()
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("payload field %s: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("payload field %s has unsupported type %T", key, raw)
	}
}
