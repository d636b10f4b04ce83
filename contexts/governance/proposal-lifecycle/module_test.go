package proposallifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	proposallifecycle "atomsi/contexts/governance/proposal-lifecycle"
	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/domain/services"
	httptransport "atomsi/contexts/governance/proposal-lifecycle/transport/http"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubAuthorizer map[string]bool

func (a stubAuthorizer) IsAuthorized(_ context.Context, member string, action string, resource string) bool {
	return a[member+":"+action+":"+resource]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []contractsv1.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event contractsv1.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []contractsv1.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]contractsv1.EventType, 0, len(p.events))
	for _, event := range p.events {
		items = append(items, event.EventType)
	}
	return items
}

func newTestModule(t *testing.T, opts proposallifecycle.InMemoryOptions) (proposallifecycle.Module, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	module := proposallifecycle.NewInMemoryModule(nil, opts)
	module.Store.SetClock(clock.Now)
	return module, clock
}

func submitActive(t *testing.T, module proposallifecycle.Module, clock *fakeClock, proposer string) httptransport.ProposalResponse {
	t.Helper()
	end := clock.Now().Add(time.Hour)
	proposal, err := module.Handler.SubmitProposalHandler(context.Background(), proposer, httptransport.SubmitProposalRequest{
		Title:        "Fund the grants program",
		Description:  "Allocate tokens to Q3 grants",
		ProposalType: "treasury",
		VotingEndsAt: &end,
		Activate:     true,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return proposal
}

func TestSubmitValidation(t *testing.T) {
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{})
	ctx := context.Background()

	if _, err := module.Handler.SubmitProposalHandler(ctx, "0xalice", httptransport.SubmitProposalRequest{
		Description: "missing title",
	}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty title, got %v", err)
	}

	start := clock.Now().Add(time.Hour)
	end := start
	if _, err := module.Handler.SubmitProposalHandler(ctx, "0xalice", httptransport.SubmitProposalRequest{
		Title:          "t",
		Description:    "d",
		VotingStartsAt: &start,
		VotingEndsAt:   &end,
	}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty window, got %v", err)
	}

	draft, err := module.Handler.SubmitProposalHandler(ctx, "0xalice", httptransport.SubmitProposalRequest{
		Title:       "t",
		Description: "d",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if draft.Status != "draft" || draft.ProposalType != "other" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if !draft.VotingEndsAt.Equal(clock.Now().Add(72 * time.Hour)) {
		t.Fatalf("expected default 72h window, got %s", draft.VotingEndsAt)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "0xbob", draft.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 1,
	}); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState voting on draft, got %v", err)
	}
}

func TestVoteFinalizeTieAndLateVote(t *testing.T) {
	publisher := &recordingPublisher{}
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{Publisher: publisher})
	ctx := context.Background()
	proposal := submitActive(t, module, clock, "0xalice")

	if _, err := module.Handler.CastVoteHandler(ctx, "0xbob", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 5,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "0xcarol", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "against", VotingPower: 5,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "0xbob", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "against", VotingPower: 9,
	}); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "0xdave", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 0,
	}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero weight, got %v", err)
	}
	if _, err := module.Handler.FinalizeProposalHandler(ctx, proposal.ProposalID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState finalizing open window, got %v", err)
	}

	clock.Advance(time.Hour)
	if _, err := module.Handler.CastVoteHandler(ctx, "0xdave", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 1,
	}); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after window end, got %v", err)
	}

	finalized, err := module.Handler.FinalizeProposalHandler(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != "failed" {
		t.Fatalf("expected tie to fail, got %s", finalized.Status)
	}
	if _, err := module.Handler.FinalizeProposalHandler(ctx, proposal.ProposalID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected second finalize to fail with ErrInvalidState, got %v", err)
	}

	votes, err := module.Handler.ListVotesHandler(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes.Items) != 2 || !votes.Consistent || votes.Tally.Yes != 5 || votes.Tally.No != 5 {
		t.Fatalf("unexpected vote listing %+v", votes)
	}

	want := []contractsv1.EventType{
		contractsv1.EventProposalCreated,
		contractsv1.EventProposalVoted,
		contractsv1.EventProposalVoted,
		contractsv1.EventProposalUpdated,
	}
	got := publisher.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
	var voted contractsv1.ProposalVotedData
	if err := publisher.events[1].Decode(&voted); err != nil {
		t.Fatalf("decode voted event: %v", err)
	}
	if voted.ProposalID != proposal.ProposalID || voted.Voter != "0xbob" || voted.Vote != "for" || voted.VotingPower != 5 {
		t.Fatalf("unexpected voted payload %+v", voted)
	}
}

func TestExecuteOnlyOnceAfterPassed(t *testing.T) {
	var effects atomic.Int32
	failEffect := true
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{
		Effect: func(_ context.Context, _ entities.Proposal) error {
			if failEffect {
				return fmt.Errorf("downstream unavailable")
			}
			effects.Add(1)
			return nil
		},
	})
	ctx := context.Background()
	proposal := submitActive(t, module, clock, "0xalice")

	if _, err := module.Handler.ExecuteProposalHandler(ctx, "0xalice", proposal.ProposalID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState executing active proposal, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "0xbob", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "yes", VotingPower: 3,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	clock.Advance(2 * time.Hour)

	// Lazy finalize on read.
	read, err := module.Handler.GetProposalHandler(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if read.Status != "passed" {
		t.Fatalf("expected lazily finalized passed proposal, got %s", read.Status)
	}

	if _, err := module.Handler.ExecuteProposalHandler(ctx, "0xalice", proposal.ProposalID); !errors.Is(err, domainerrors.ErrExecution) {
		t.Fatalf("expected ErrExecution from failing effect, got %v", err)
	}
	still, _ := module.Handler.GetProposalHandler(ctx, proposal.ProposalID)
	if still.Status != "passed" || still.ExecutedAt != nil {
		t.Fatalf("failed effect must leave proposal passed, got %+v", still)
	}

	failEffect = false
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := module.Handler.ExecuteProposalHandler(ctx, "0xalice", proposal.ProposalID); err == nil {
				succeeded.Add(1)
			} else if !errors.Is(err, domainerrors.ErrInvalidState) {
				t.Errorf("unexpected execute error: %v", err)
			}
		}()
	}
	wg.Wait()
	if succeeded.Load() != 1 || effects.Load() != 1 {
		t.Fatalf("expected exactly one execution, got %d successes and %d effects", succeeded.Load(), effects.Load())
	}
	executed, _ := module.Handler.GetProposalHandler(ctx, proposal.ProposalID)
	if executed.Status != "executed" || executed.ExecutedAt == nil {
		t.Fatalf("expected executed proposal, got %+v", executed)
	}
}

func TestCancelRules(t *testing.T) {
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{
		Authorizer: stubAuthorizer{
			"0xalice:create:proposal":   true,
			"0xbob:create:proposal":     true,
			"0xcouncil:cancel:proposal": true,
		},
	})
	ctx := context.Background()

	first := submitActive(t, module, clock, "0xalice")
	if _, err := module.Handler.CancelProposalHandler(ctx, "0xbob", first.ProposalID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unrelated member, got %v", err)
	}
	cancelled, err := module.Handler.CancelProposalHandler(ctx, "0xalice", first.ProposalID)
	if err != nil {
		t.Fatalf("proposer cancel failed: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := module.Handler.CancelProposalHandler(ctx, "0xalice", first.ProposalID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState cancelling twice, got %v", err)
	}

	second := submitActive(t, module, clock, "0xbob")
	if _, err := module.Handler.CancelProposalHandler(ctx, "0xcouncil", second.ProposalID); err != nil {
		t.Fatalf("council cancel failed: %v", err)
	}

	if _, err := module.Handler.SubmitProposalHandler(ctx, "0xstranger", httptransport.SubmitProposalRequest{
		Title: "t", Description: "d",
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-member submit, got %v", err)
	}
}

func TestActivateDraft(t *testing.T) {
	module, _ := newTestModule(t, proposallifecycle.InMemoryOptions{})
	ctx := context.Background()
	draft, err := module.Handler.SubmitProposalHandler(ctx, "0xalice", httptransport.SubmitProposalRequest{
		Title: "t", Description: "d",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.ActivateProposalHandler(ctx, "0xbob", draft.ProposalID, httptransport.ActivateProposalRequest{}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	active, err := module.Handler.ActivateProposalHandler(ctx, "0xalice", draft.ProposalID, httptransport.ActivateProposalRequest{
		VotingPeriodSeconds: 60,
	})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if active.Status != "active" || active.VotingEndsAt.Sub(active.VotingStartsAt) != time.Minute {
		t.Fatalf("unexpected activated proposal %+v", active)
	}
	if _, err := module.Handler.ActivateProposalHandler(ctx, "0xalice", draft.ProposalID, httptransport.ActivateProposalRequest{}); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState activating twice, got %v", err)
	}
	if _, err := module.Handler.GetProposalHandler(ctx, "missing"); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestConcurrentVotesKeepTallyConsistent(t *testing.T) {
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{})
	ctx := context.Background()
	proposal := submitActive(t, module, clock, "0xalice")

	const voters = 50
	choices := []string{"for", "against", "abstain"}
	var wg sync.WaitGroup
	var duplicates atomic.Int32
	for i := 0; i < voters; i++ {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := module.Handler.CastVoteHandler(ctx, fmt.Sprintf("0xvoter%d", i), proposal.ProposalID, httptransport.CastVoteRequest{
					Vote:        choices[i%len(choices)],
					VotingPower: int64(i + 1),
				})
				if errors.Is(err, domainerrors.ErrDuplicateVote) {
					duplicates.Add(1)
				} else if err != nil {
					t.Errorf("unexpected vote error: %v", err)
				}
			}(i)
		}
	}
	wg.Wait()

	if duplicates.Load() != voters {
		t.Fatalf("expected %d duplicate rejections, got %d", voters, duplicates.Load())
	}
	report, err := module.Handler.Queries.Tally(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if report.VoteCount != voters || !report.Consistent {
		t.Fatalf("expected %d consistent votes, got %+v", voters, report)
	}
	if report.Stored.Total() != voters*(voters+1)/2 {
		t.Fatalf("expected total weight %d, got %d", voters*(voters+1)/2, report.Stored.Total())
	}
}

func TestFinalizerWorkerDecidesDueProposals(t *testing.T) {
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{Quorum: services.QuorumRule{Threshold: 10}})
	ctx := context.Background()

	low := submitActive(t, module, clock, "0xalice")
	high := submitActive(t, module, clock, "0xalice")
	_, _ = module.Handler.CastVoteHandler(ctx, "0xbob", low.ProposalID, httptransport.CastVoteRequest{Vote: "for", VotingPower: 3})
	_, _ = module.Handler.CastVoteHandler(ctx, "0xbob", high.ProposalID, httptransport.CastVoteRequest{Vote: "for", VotingPower: 30})

	if n, err := module.Finalizer.RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing due yet, got %d, %v", n, err)
	}
	clock.Advance(time.Hour)
	n, err := module.Finalizer.RunOnce(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected two finalized, got %d, %v", n, err)
	}

	lowState, _ := module.Store.GetProposal(ctx, low.ProposalID)
	highState, _ := module.Store.GetProposal(ctx, high.ProposalID)
	if lowState.Status != entities.ProposalStatusFailed || highState.Status != entities.ProposalStatusPassed {
		t.Fatalf("expected sub-quorum failed and majority passed, got %s and %s", lowState.Status, highState.Status)
	}
}

func TestCancelledVoteLeavesNoState(t *testing.T) {
	publisher := &recordingPublisher{}
	module, clock := newTestModule(t, proposallifecycle.InMemoryOptions{Publisher: publisher})
	proposal := submitActive(t, module, clock, "0xalice")
	before := len(publisher.types())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := module.Handler.CastVoteHandler(ctx, "0xbob", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 4,
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	votes, err := module.Handler.ListVotesHandler(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes.Items) != 0 || votes.Tally.Yes != 0 || !votes.Consistent {
		t.Fatalf("cancelled vote left state behind: %+v", votes)
	}
	if len(publisher.types()) != before {
		t.Fatalf("cancelled vote published events: %v", publisher.types()[before:])
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), "0xbob", proposal.ProposalID, httptransport.CastVoteRequest{
		Vote: "for", VotingPower: 4,
	}); err != nil {
		t.Fatalf("vote after cancelled attempt failed: %v", err)
	}
}
