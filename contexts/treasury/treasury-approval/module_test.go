package treasuryapproval_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	contractsv1 "atomsi/contracts/gen/events/v1"
	treasuryapproval "atomsi/contexts/treasury/treasury-approval"
	"atomsi/contexts/treasury/treasury-approval/application/commands"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	httptransport "atomsi/contexts/treasury/treasury-approval/transport/http"
)

type allowList map[string]bool

func (a allowList) IsAuthorized(_ context.Context, member string, action string, resource string) bool {
	return resource == "treasury" && a[member+":"+action]
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

func (p *recordingPublisher) count(eventType contractsv1.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, event := range p.events {
		if event.EventType == eventType {
			total++
		}
	}
	return total
}

func councilAuthorizer(members ...string) allowList {
	allow := allowList{}
	for _, member := range members {
		allow[member+":approve"] = true
		allow[member+":reject"] = true
		allow[member+":create"] = true
	}
	return allow
}

func propose(t *testing.T, module treasuryapproval.Module, amount int64, required int) httptransport.TransactionResponse {
	t.Helper()
	tx, err := module.Handler.ProposeTransactionHandler(context.Background(), "0xalice", httptransport.ProposeTransactionRequest{
		Description:       "Grant payout",
		Recipient:         "0xcarol",
		Token:             "DAO",
		Amount:            amount,
		RequiredApprovals: required,
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	return tx
}

func TestProposeValidation(t *testing.T) {
	module := treasuryapproval.NewInMemoryModule(nil, nil, nil, nil)
	ctx := context.Background()

	cases := []httptransport.ProposeTransactionRequest{
		{Recipient: "0xcarol", Token: "DAO", Amount: 0, RequiredApprovals: 1},
		{Recipient: "0xcarol", Token: "DAO", Amount: 10, RequiredApprovals: 0},
		{Recipient: "", Token: "DAO", Amount: 10, RequiredApprovals: 1},
		{Recipient: "0xcarol", Token: " ", Amount: 10, RequiredApprovals: 1},
	}
	for i, req := range cases {
		if _, err := module.Handler.ProposeTransactionHandler(ctx, "0xalice", req); !errors.Is(err, domainerrors.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestApproveThresholdExecutesTransfer(t *testing.T) {
	publisher := &recordingPublisher{}
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa", "0xb", "0xc"), publisher, nil)
	module.Store.SetBalance("DAO", "0xTreasury", 1000)
	ctx := context.Background()
	tx := propose(t, module, 100, 2)

	first, err := module.Handler.ApproveTransactionHandler(ctx, "0xa", tx.TransactionID)
	if err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	if first.Executed || first.Transaction.Status != "pending" || first.Transaction.CurrentApprovals != 1 {
		t.Fatalf("unexpected first approval %+v", first)
	}
	if _, err := module.Handler.ApproveTransactionHandler(ctx, "0xa", tx.TransactionID); !errors.Is(err, domainerrors.ErrDuplicateApproval) {
		t.Fatalf("expected ErrDuplicateApproval, got %v", err)
	}

	second, err := module.Handler.ApproveTransactionHandler(ctx, "0xb", tx.TransactionID)
	if err != nil {
		t.Fatalf("second approval failed: %v", err)
	}
	if !second.Executed || second.Transaction.Status != "executed" || second.Transaction.ExecutedAt == nil {
		t.Fatalf("expected execution on threshold, got %+v", second)
	}
	if _, err := module.Handler.ApproveTransactionHandler(ctx, "0xc", tx.TransactionID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after execution, got %v", err)
	}

	treasury, _ := module.Handler.GetBalanceHandler(ctx, "DAO", "")
	recipient, _ := module.Handler.GetBalanceHandler(ctx, "DAO", "0xcarol")
	if treasury.Amount != 900 || recipient.Amount != 100 {
		t.Fatalf("unexpected balances treasury=%d recipient=%d", treasury.Amount, recipient.Amount)
	}
	approvals, err := module.Handler.ListApprovalsHandler(ctx, tx.TransactionID)
	if err != nil || len(approvals.Items) != 2 {
		t.Fatalf("expected two approvals, got %+v (%v)", approvals, err)
	}
	if publisher.count(contractsv1.EventTransactionCreated) != 1 ||
		publisher.count(contractsv1.EventTransactionApproved) != 2 ||
		publisher.count(contractsv1.EventTransactionExecuted) != 1 {
		t.Fatalf("unexpected events %+v", publisher.events)
	}
}

func TestApproveRequiresPermission(t *testing.T) {
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa"), nil, nil)
	tx := propose(t, module, 10, 1)
	if _, err := module.Handler.ApproveTransactionHandler(context.Background(), "0xmallory", tx.TransactionID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := module.Handler.ApproveTransactionHandler(context.Background(), "0xa", "missing"); !errors.Is(err, domainerrors.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestInsufficientFundsFailsWithoutMovingBalances(t *testing.T) {
	publisher := &recordingPublisher{}
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa"), publisher, nil)
	module.Store.SetBalance("DAO", "0xTreasury", 50)
	ctx := context.Background()
	tx := propose(t, module, 100, 1)

	result, err := module.Handler.ApproveTransactionHandler(ctx, "0xa", tx.TransactionID)
	if !errors.Is(err, domainerrors.ErrExecution) || !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected execution error wrapping insufficient funds, got %v", err)
	}
	if result.Transaction.Status != "failed" || result.Executed {
		t.Fatalf("expected failed transaction, got %+v", result.Transaction)
	}

	treasury, _ := module.Handler.GetBalanceHandler(ctx, "DAO", "")
	recipient, _ := module.Handler.GetBalanceHandler(ctx, "DAO", "0xcarol")
	if treasury.Amount != 50 || recipient.Amount != 0 {
		t.Fatalf("balances moved on failure: treasury=%d recipient=%d", treasury.Amount, recipient.Amount)
	}
	stored, _ := module.Handler.GetTransactionHandler(ctx, tx.TransactionID)
	if stored.Status != "failed" || stored.CurrentApprovals != 1 {
		t.Fatalf("unexpected stored transaction %+v", stored)
	}
	if publisher.count(contractsv1.EventTransactionExecuted) != 0 {
		t.Fatal("failed transfer must not publish transaction_executed")
	}
}

func TestRejectRules(t *testing.T) {
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa"), nil, nil)
	ctx := context.Background()
	tx := propose(t, module, 10, 2)

	if _, err := module.Handler.RejectTransactionHandler(ctx, "0xmallory", tx.TransactionID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	rejected, err := module.Handler.RejectTransactionHandler(ctx, "0xa", tx.TransactionID)
	if err != nil || rejected.Status != "rejected" || rejected.RejectedBy != "0xa" {
		t.Fatalf("unexpected reject result %+v (%v)", rejected, err)
	}
	if _, err := module.Handler.RejectTransactionHandler(ctx, "0xa", tx.TransactionID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState rejecting twice, got %v", err)
	}
	if _, err := module.Handler.ApproveTransactionHandler(ctx, "0xa", tx.TransactionID); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState approving rejected, got %v", err)
	}
}

func TestDepositFundsTreasury(t *testing.T) {
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa"), nil, nil)
	ctx := context.Background()
	if _, err := module.Handler.DepositHandler(ctx, "0xmallory", httptransport.DepositRequest{Token: "DAO", Amount: 5}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	balance, err := module.Handler.DepositHandler(ctx, "0xa", httptransport.DepositRequest{Token: "DAO", Amount: 5})
	if err != nil || balance.Amount != 5 || balance.Holder != "0xTreasury" {
		t.Fatalf("unexpected deposit %+v (%v)", balance, err)
	}
}

func TestConcurrentApprovalsExecuteExactlyOnce(t *testing.T) {
	const approvers = 16
	members := make([]string, 0, approvers)
	for i := 0; i < approvers; i++ {
		members = append(members, fmt.Sprintf("0xmember%02d", i))
	}
	publisher := &recordingPublisher{}
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer(members...), publisher, nil)
	module.Store.SetBalance("DAO", "0xTreasury", 1000)
	ctx := context.Background()
	tx := propose(t, module, 100, 3)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		executed int
		accepted int
	)
	for _, member := range members {
		wg.Add(1)
		go func(member string) {
			defer wg.Done()
			result, err := module.Handler.ApproveTransactionHandler(ctx, member, tx.TransactionID)
			if err != nil {
				if !errors.Is(err, domainerrors.ErrInvalidState) {
					t.Errorf("unexpected approval error: %v", err)
				}
				return
			}
			mu.Lock()
			defer mu.Unlock()
			accepted++
			if result.Executed {
				executed++
			}
		}(member)
	}
	wg.Wait()

	if accepted != 3 || executed != 1 {
		t.Fatalf("expected 3 accepted approvals and 1 execution, got %d and %d", accepted, executed)
	}
	stored, _ := module.Handler.GetTransactionHandler(ctx, tx.TransactionID)
	if stored.Status != "executed" || stored.CurrentApprovals != 3 {
		t.Fatalf("unexpected final transaction %+v", stored)
	}
	treasury, _ := module.Handler.GetBalanceHandler(ctx, "DAO", "")
	if treasury.Amount != 900 {
		t.Fatalf("expected a single debit, treasury=%d", treasury.Amount)
	}
	if publisher.count(contractsv1.EventTransactionExecuted) != 1 {
		t.Fatalf("expected exactly one transaction_executed event")
	}
}

func TestProposeForSameProposalReturnsLinkedTransaction(t *testing.T) {
	publisher := &recordingPublisher{}
	module := treasuryapproval.NewInMemoryModule(nil, nil, publisher, nil)
	ctx := context.Background()
	cmd := commands.ProposeTransactionCommand{
		Description:       "Grant payout",
		Recipient:         "0xcarol",
		Token:             "DAO",
		Amount:            250,
		RequiredApprovals: 2,
		RelatedProposal:   "proposal-7",
		ProposedBy:        "0xalice",
	}

	first, err := module.Handler.Treasury.Propose(ctx, cmd)
	if err != nil {
		t.Fatalf("first propose failed: %v", err)
	}
	second, err := module.Handler.Treasury.Propose(ctx, cmd)
	if err != nil {
		t.Fatalf("repeated propose failed: %v", err)
	}
	if second.TransactionID != first.TransactionID {
		t.Fatalf("expected the linked transaction %s, got %s", first.TransactionID, second.TransactionID)
	}

	linked, err := module.Handler.Queries.ListTransactions(ctx, "", "proposal-7")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("expected one linked transaction, got %d", len(linked))
	}
	if got := publisher.count(contractsv1.EventTransactionCreated); got != 1 {
		t.Fatalf("expected one transaction_created event, got %d", got)
	}

	unlinked := cmd
	unlinked.RelatedProposal = ""
	for i := 0; i < 2; i++ {
		if _, err := module.Handler.Treasury.Propose(ctx, unlinked); err != nil {
			t.Fatalf("unlinked propose %d failed: %v", i, err)
		}
	}
	all, err := module.Handler.Queries.ListTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected unlinked transactions to be unconstrained, got %d total", len(all))
	}
}

func TestCancelledApprovalLeavesNoState(t *testing.T) {
	publisher := &recordingPublisher{}
	module := treasuryapproval.NewInMemoryModule(nil, councilAuthorizer("0xa"), publisher, nil)
	module.Store.SetBalance("DAO", "0xTreasury", 1000)
	tx := propose(t, module, 100, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := module.Handler.ApproveTransactionHandler(ctx, "0xa", tx.TransactionID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	bg := context.Background()
	current, err := module.Handler.GetTransactionHandler(bg, tx.TransactionID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if current.Status != "pending" || current.CurrentApprovals != 0 {
		t.Fatalf("cancelled approval changed the transaction: %+v", current)
	}
	approvals, err := module.Handler.ListApprovalsHandler(bg, tx.TransactionID)
	if err != nil || len(approvals.Items) != 0 {
		t.Fatalf("expected no approvals, got %+v (%v)", approvals, err)
	}
	treasury, _ := module.Handler.GetBalanceHandler(bg, "DAO", "")
	if treasury.Amount != 1000 {
		t.Fatalf("cancelled approval moved funds, treasury=%d", treasury.Amount)
	}
	if publisher.count(contractsv1.EventTransactionApproved) != 0 {
		t.Fatalf("cancelled approval published events")
	}

	result, err := module.Handler.ApproveTransactionHandler(bg, "0xa", tx.TransactionID)
	if err != nil || !result.Executed {
		t.Fatalf("approval after cancelled attempt should execute, got %+v (%v)", result, err)
	}
}
