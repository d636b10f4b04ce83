package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	contractsv1 "atomsi/contracts/gen/events/v1"
	proposallifecycle "atomsi/contexts/governance/proposal-lifecycle"
	proposalpostgres "atomsi/contexts/governance/proposal-lifecycle/adapters/postgres"
	proposalcommands "atomsi/contexts/governance/proposal-lifecycle/application/commands"
	proposalentities "atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	proposalerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	treasuryapproval "atomsi/contexts/treasury/treasury-approval"
)

type eventCounter struct {
	mu     sync.Mutex
	counts map[contractsv1.EventType]int
}

func (c *eventCounter) Publish(_ context.Context, event contractsv1.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[contractsv1.EventType]int{}
	}
	c.counts[event.EventType]++
	return nil
}

func (c *eventCounter) count(eventType contractsv1.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[eventType]
}

func passedTransferProposalRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "proposer", "status", "yes_votes", "no_votes", "abstain_votes",
		"payload_kind", "payload_data", "voting_starts_at", "voting_ends_at", "created_at", "updated_at",
	}).AddRow(
		"proposal-1", "Fund translation grant", "0xP", "passed", 3, 0, 0,
		PayloadKindTreasuryTransfer, []byte(`{"recipient":"0xGuild","token":"USDC","amount":750}`),
		now.Add(-3*time.Hour), now.Add(-time.Hour), now.Add(-3*time.Hour), now.Add(-time.Hour),
	)
}

func TestExecuteRetryAfterFailedCommitKeepsOneLinkedTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}

	events := &eventCounter{}
	treasury := treasuryapproval.NewInMemoryModule(nil, nil, events, nil)
	proposals := proposallifecycle.NewModule(proposallifecycle.Dependencies{
		Repository: proposalpostgres.NewRepository(gormDB, nil),
		Publisher:  events,
		Effect:     ExecutionEffect(treasury.Handler.Treasury),
		Clock:      proposalpostgres.SystemClock{},
		IDGen:      proposalpostgres.UUIDGenerator{},
	})
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "proposals" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(passedTransferProposalRow(now))
	mock.ExpectExec(`UPDATE "proposals" SET`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "proposals" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(passedTransferProposalRow(now))
	mock.ExpectExec(`UPDATE "proposals" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	cmd := proposalcommands.ExecuteProposalCommand{ProposalID: "proposal-1", Actor: "0xC"}
	lifecycle := proposals.Handler.Lifecycle

	if _, err := lifecycle.Execute(ctx, cmd, proposals.Handler.Effect); !errors.Is(err, proposalerrors.ErrExecution) {
		t.Fatalf("expected failed commit to surface as ErrExecution, got %v", err)
	}
	executed, err := lifecycle.Execute(ctx, cmd, proposals.Handler.Effect)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if executed.Status != proposalentities.ProposalStatusExecuted {
		t.Fatalf("expected executed, got %s", executed.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}

	linked, err := treasury.Handler.Queries.ListTransactions(ctx, "", "proposal-1")
	if err != nil {
		t.Fatalf("list linked transactions: %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("expected one linked transaction after retry, got %d", len(linked))
	}
	if linked[0].Amount != 750 || linked[0].Recipient != "0xGuild" {
		t.Fatalf("unexpected linked transaction %+v", linked[0])
	}
	if got := events.count(contractsv1.EventTransactionCreated); got != 1 {
		t.Fatalf("expected one transaction_created event, got %d", got)
	}
	if got := events.count(contractsv1.EventProposalUpdated); got != 1 {
		t.Fatalf("expected one proposal_updated event, got %d", got)
	}
}
