package reputationledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	reputationledger "atomsi/contexts/community-experience/reputation-ledger"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/domain/services"
)

type fakeApplier struct {
	mu      sync.Mutex
	fail    error
	unknown map[string]bool
	totals  map[string]int64
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{unknown: map[string]bool{}, totals: map[string]int64{}}
}

func (a *fakeApplier) ApplyDelta(_ context.Context, address string, delta int64, _ time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unknown[address] {
		return domainerrors.ErrMemberUnknown
	}
	if a.fail != nil {
		return a.fail
	}
	a.totals[address] += delta
	return nil
}

func (a *fakeApplier) total(address string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals[address]
}

func (a *fakeApplier) setFail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = err
}

type channelStream struct {
	ch     chan contractsv1.DomainEvent
	closed bool
}

func (s *channelStream) Events() <-chan contractsv1.DomainEvent { return s.ch }
func (s *channelStream) Close()                                 { s.closed = true }

func mustEvent(t *testing.T, eventType contractsv1.EventType, data any) contractsv1.DomainEvent {
	t.Helper()
	event, err := contractsv1.NewDomainEvent(eventType, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), data)
	if err != nil {
		t.Fatalf("event build failed: %v", err)
	}
	return event
}

func TestConsumerAppliesConfiguredDeltas(t *testing.T) {
	applier := newFakeApplier()
	module := reputationledger.NewInMemoryModule(applier, nil, services.DefaultDeltas(), nil)
	ctx := context.Background()

	events := []contractsv1.DomainEvent{
		mustEvent(t, contractsv1.EventProposalCreated, contractsv1.ProposalCreatedData{ProposalID: "p1", Proposer: "0xalice", Title: "t"}),
		mustEvent(t, contractsv1.EventProposalVoted, contractsv1.ProposalVotedData{ProposalID: "p1", Voter: "0xbob", Vote: "for", VotingPower: 3}),
		mustEvent(t, contractsv1.EventTransactionApproved, contractsv1.TransactionApprovedData{TransactionID: "tx1", Approver: "0xbob"}),
		mustEvent(t, contractsv1.EventTransactionExecuted, contractsv1.TransactionExecutedData{TransactionID: "tx1", ExecutedBy: "0xbob"}),
		mustEvent(t, contractsv1.EventMemberUpdated, contractsv1.MemberUpdatedData{Address: "0xbob"}),
	}
	for _, event := range events {
		if err := module.Consumer.Handle(ctx, event); err != nil {
			t.Fatalf("handle %s failed: %v", event.EventType, err)
		}
	}
	if got := applier.total("0xalice"); got != 5 {
		t.Fatalf("expected proposer +5, got %d", got)
	}
	if got := applier.total("0xbob"); got != 1+2+3 {
		t.Fatalf("expected voter/approver +6, got %d", got)
	}

	activities, err := module.Handler.ListActivitiesHandler(ctx, "0xbob", "", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(activities.Items) != 3 {
		t.Fatalf("expected 3 activities for 0xbob, got %d", len(activities.Items))
	}
	for _, item := range activities.Items {
		if !item.ReputationApplied {
			t.Fatalf("expected applied activity, got %+v", item)
		}
	}
}

func TestReplayedEventIsIdempotent(t *testing.T) {
	applier := newFakeApplier()
	module := reputationledger.NewInMemoryModule(applier, nil, services.DefaultDeltas(), nil)
	event := mustEvent(t, contractsv1.EventProposalVoted, contractsv1.ProposalVotedData{ProposalID: "p1", Voter: "0xbob", Vote: "for", VotingPower: 1})

	for i := 0; i < 3; i++ {
		if err := module.Consumer.Handle(context.Background(), event); err != nil {
			t.Fatalf("handle failed: %v", err)
		}
	}
	if got := applier.total("0xbob"); got != 1 {
		t.Fatalf("expected a single delta, got %d", got)
	}
}

func TestFailedApplyStaysPendingUntilRetry(t *testing.T) {
	applier := newFakeApplier()
	applier.setFail(errors.New("registry unavailable"))
	publisher := &countingPublisher{}
	module := reputationledger.NewInMemoryModule(applier, publisher, services.DefaultDeltas(), nil)
	ctx := context.Background()

	event := mustEvent(t, contractsv1.EventTransactionApproved, contractsv1.TransactionApprovedData{TransactionID: "tx1", Approver: "0xcarol"})
	if err := module.Consumer.Handle(ctx, event); err != nil {
		t.Fatalf("apply failure must not surface: %v", err)
	}
	listed, _ := module.Handler.ListActivitiesHandler(ctx, "0xcarol", "", 0)
	if len(listed.Items) != 1 || listed.Items[0].ApplyStatus != "pending" {
		t.Fatalf("expected one pending activity, got %+v", listed.Items)
	}
	if publisher.count() != 1 {
		t.Fatalf("expected activity_recorded even when the delta is pending")
	}

	applier.setFail(nil)
	applied, err := module.Retrier.RunOnce(ctx)
	if err != nil || applied != 1 {
		t.Fatalf("expected one retried delta, got %d (%v)", applied, err)
	}
	if applier.total("0xcarol") != 2 {
		t.Fatalf("expected +2 after retry, got %d", applier.total("0xcarol"))
	}
	applied, _ = module.Retrier.RunOnce(ctx)
	if applied != 0 {
		t.Fatalf("expected nothing left to retry, got %d", applied)
	}
}

func TestUnknownMemberIsSkipped(t *testing.T) {
	applier := newFakeApplier()
	applier.unknown["0xstranger"] = true
	module := reputationledger.NewInMemoryModule(applier, nil, services.DefaultDeltas(), nil)
	ctx := context.Background()

	event := mustEvent(t, contractsv1.EventProposalVoted, contractsv1.ProposalVotedData{ProposalID: "p1", Voter: "0xstranger", Vote: "against", VotingPower: 1})
	if err := module.Consumer.Handle(ctx, event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	listed, _ := module.Handler.ListActivitiesHandler(ctx, "0xstranger", "voting", 0)
	if len(listed.Items) != 1 || listed.Items[0].ApplyStatus != "skipped" {
		t.Fatalf("expected skipped activity, got %+v", listed.Items)
	}
	if applied, _ := module.Retrier.RunOnce(ctx); applied != 0 {
		t.Fatalf("skipped activities must not be retried")
	}
}

func TestListActivitiesValidation(t *testing.T) {
	module := reputationledger.NewInMemoryModule(nil, nil, services.DefaultDeltas(), nil)
	if _, err := module.Handler.ListActivitiesHandler(context.Background(), "", "bogus", 0); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := module.Handler.ListActivitiesHandler(context.Background(), "", "", -1); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative limit, got %v", err)
	}
}

func TestConsumerRunStopsOnContextCancel(t *testing.T) {
	applier := newFakeApplier()
	module := reputationledger.NewInMemoryModule(applier, nil, services.DefaultDeltas(), nil)
	stream := &channelStream{ch: make(chan contractsv1.DomainEvent, 1)}
	stream.ch <- mustEvent(t, contractsv1.EventProposalCreated, contractsv1.ProposalCreatedData{ProposalID: "p9", Proposer: "0xalice"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- module.Consumer.Run(ctx, stream) }()

	deadline := time.Now().Add(2 * time.Second)
	for applier.total("0xalice") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if applier.total("0xalice") != 5 {
		t.Fatalf("expected event handled before cancel")
	}
	if !stream.closed {
		t.Fatal("expected stream closed on exit")
	}
}

type countingPublisher struct {
	mu     sync.Mutex
	events int
}

func (p *countingPublisher) Publish(_ context.Context, _ contractsv1.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events++
	return nil
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events
}
