package messaging

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	contractsv1 "atomsi/contracts/gen/events/v1"
)

func mustEvent(t *testing.T, eventType contractsv1.EventType, seq int) contractsv1.DomainEvent {
	t.Helper()
	event, err := contractsv1.NewDomainEvent(eventType, time.Unix(int64(seq), 0), map[string]int{"seq": seq})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return event
}

func seqOf(t *testing.T, event contractsv1.DomainEvent) int {
	t.Helper()
	var payload map[string]int
	if err := event.Decode(&payload); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return payload["seq"]
}

func TestBusFilterDeliversOnlyMatchingKinds(t *testing.T) {
	bus := NewBus(Options{QueueSize: 8})
	defer bus.Close()

	votes, err := bus.Subscribe(contractsv1.EventProposalVoted)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	all, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	ctx := context.Background()
	_ = bus.Publish(ctx, mustEvent(t, contractsv1.EventProposalCreated, 1))
	_ = bus.Publish(ctx, mustEvent(t, contractsv1.EventProposalVoted, 2))

	if got := len(votes.Events()); got != 1 {
		t.Fatalf("expected filtered subscriber to hold 1 event, got %d", got)
	}
	if event := <-votes.Events(); event.EventType != contractsv1.EventProposalVoted {
		t.Fatalf("expected proposal_voted, got %s", event.EventType)
	}
	if got := len(all.Events()); got != 2 {
		t.Fatalf("expected unfiltered subscriber to hold 2 events, got %d", got)
	}
}

func TestBusDropOldestKeepsNewestInOrder(t *testing.T) {
	bus := NewBus(Options{QueueSize: 3, Overflow: OverflowDropOldest})
	defer bus.Close()

	sub, err := bus.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := bus.Publish(context.Background(), mustEvent(t, contractsv1.EventProposalVoted, i)); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	if sub.Dropped() != 2 {
		t.Fatalf("expected 2 dropped events, got %d", sub.Dropped())
	}
	for _, want := range []int{3, 4, 5} {
		if got := seqOf(t, <-sub.Events()); got != want {
			t.Fatalf("expected seq %d, got %d", want, got)
		}
	}
}

func TestBusDisconnectPolicyClosesLaggingSubscriber(t *testing.T) {
	bus := NewBus(Options{QueueSize: 1, Overflow: OverflowDisconnect})
	defer bus.Close()

	slow, _ := bus.Subscribe()
	fast, _ := bus.Subscribe()

	ctx := context.Background()
	_ = bus.Publish(ctx, mustEvent(t, contractsv1.EventProposalVoted, 1))
	<-fast.Events()
	_ = bus.Publish(ctx, mustEvent(t, contractsv1.EventProposalVoted, 2))

	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected slow subscriber to be detached, got %d subscribers", bus.SubscriberCount())
	}
	if seqOf(t, <-slow.Events()) != 1 {
		t.Fatalf("expected slow subscriber to keep its queued event")
	}
	if _, ok := <-slow.Events(); ok {
		t.Fatalf("expected slow subscriber channel to be closed")
	}
	if seqOf(t, <-fast.Events()) != 2 {
		t.Fatalf("expected fast subscriber to keep receiving")
	}
}

func TestBusPerPublisherOrderUnderConcurrency(t *testing.T) {
	const publishers = 4
	const perPublisher = 200

	bus := NewBus(Options{QueueSize: publishers * perPublisher})
	defer bus.Close()
	sub, _ := bus.Subscribe()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				_ = bus.Publish(context.Background(), mustEvent(t, contractsv1.EventProposalVoted, p*perPublisher+i))
			}
		}(p)
	}
	wg.Wait()

	last := make([]int, publishers)
	for p := range last {
		last[p] = -1
	}
	for i := 0; i < publishers*perPublisher; i++ {
		seq := seqOf(t, <-sub.Events())
		p, n := seq/perPublisher, seq%perPublisher
		if n <= last[p] {
			t.Fatalf("publisher %d delivered %d after %d", p, n, last[p])
		}
		last[p] = n
	}
}

func TestBusUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(Options{QueueSize: 4})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ctx.Err() == nil; i++ {
			_ = bus.Publish(ctx, mustEvent(t, contractsv1.EventMemberUpdated, i))
		}
	}()

	for i := 0; i < 100; i++ {
		sub, err := bus.Subscribe(contractsv1.EventMemberUpdated)
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		sub.Close()
		sub.Close()
	}
	cancel()
	<-done

	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus(Options{})
	sub, _ := bus.Subscribe()
	bus.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected subscription channel closed")
	}
	if err := bus.Publish(context.Background(), mustEvent(t, contractsv1.EventProposalCreated, 1)); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
	if _, err := bus.Subscribe(); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed on subscribe, got %v", err)
	}
}

type recordingAppender struct {
	mu   sync.Mutex
	args []*redis.XAddArgs
}

func (r *recordingAppender) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	r.mu.Lock()
	r.args = append(r.args, a)
	r.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal(fmt.Sprintf("%d-0", len(r.args)))
	return cmd
}

func TestRedisStreamForwarderForward(t *testing.T) {
	appender := &recordingAppender{}
	forwarder := RedisStreamForwarder{Client: appender, Stream: "dao.events", MaxLen: 1000}

	if err := forwarder.Forward(context.Background(), mustEvent(t, contractsv1.EventTransactionExecuted, 7)); err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if len(appender.args) != 1 {
		t.Fatalf("expected one XADD, got %d", len(appender.args))
	}
	args := appender.args[0]
	if args.Stream != "dao.events" || args.MaxLen != 1000 || !args.Approx {
		t.Fatalf("unexpected stream args %+v", args)
	}
	values := args.Values.(map[string]interface{})
	if values["event_type"] != "transaction_executed" || values["data"] != `{"seq":7}` {
		t.Fatalf("unexpected values %+v", values)
	}
}
