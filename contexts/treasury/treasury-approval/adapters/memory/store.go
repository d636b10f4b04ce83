package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	"atomsi/contexts/treasury/treasury-approval/domain/services"
	"atomsi/contexts/treasury/treasury-approval/ports"

	"github.com/google/uuid"
)

type balanceKey struct {
	token  string
	holder string
}

// Store keeps transactions, approvals and balances in memory. Approvals on one
// transaction serialize on that transaction's lock; balance moves serialize on
// balanceMu, always taken after the transaction lock.
type Store struct {
	mu sync.RWMutex

	transactions map[string]entities.Transaction
	approvals    map[string][]entities.Approval
	locks        map[string]*sync.Mutex

	balanceMu sync.Mutex
	balances  map[balanceKey]entities.Balance
}

func NewStore(seed []entities.Transaction) *Store {
	store := &Store{
		transactions: make(map[string]entities.Transaction, len(seed)),
		approvals:    make(map[string][]entities.Approval),
		locks:        make(map[string]*sync.Mutex),
		balances:     make(map[balanceKey]entities.Balance),
	}
	for _, tx := range seed {
		store.transactions[tx.TransactionID] = cloneTransaction(tx)
	}
	return store
}

// SetBalance seeds a holder's balance.
func (s *Store) SetBalance(token string, holder string, amount int64) {
	s.balanceMu.Lock()
	defer s.balanceMu.Unlock()
	key := balanceKey{token: token, holder: holder}
	s.balances[key] = entities.Balance{Token: token, Holder: holder, Amount: amount, UpdatedAt: time.Now().UTC()}
}

func (s *Store) CreateTransaction(_ context.Context, tx entities.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.TransactionID]; exists {
		return domainerrors.ErrValidation
	}
	if tx.RelatedProposal != "" {
		if _, linked := s.linkedLocked(tx.RelatedProposal); linked {
			return domainerrors.ErrProposalAlreadyLinked
		}
	}
	s.transactions[tx.TransactionID] = cloneTransaction(tx)
	return nil
}

func (s *Store) GetTransactionByProposal(_ context.Context, proposalID string) (entities.Transaction, error) {
	proposalID = strings.TrimSpace(proposalID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if proposalID == "" {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	tx, ok := s.linkedLocked(proposalID)
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) linkedLocked(proposalID string) (entities.Transaction, bool) {
	for _, tx := range s.transactions {
		if tx.RelatedProposal == proposalID {
			return tx, true
		}
	}
	return entities.Transaction{}, false
}

func (s *Store) GetTransaction(_ context.Context, transactionID string) (entities.Transaction, error) {
	return s.snapshot(strings.TrimSpace(transactionID))
}

func (s *Store) ListTransactions(_ context.Context, filter ports.TransactionFilter) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if filter.RelatedProposal != "" && tx.RelatedProposal != filter.RelatedProposal {
			continue
		}
		items = append(items, cloneTransaction(tx))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].TransactionID < items[j].TransactionID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListApprovals(_ context.Context, transactionID string) ([]entities.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Approval(nil), s.approvals[strings.TrimSpace(transactionID)]...), nil
}

func (s *Store) GetBalance(_ context.Context, token string, holder string) (entities.Balance, error) {
	s.balanceMu.Lock()
	defer s.balanceMu.Unlock()
	balance, ok := s.balances[balanceKey{token: token, holder: holder}]
	if !ok {
		return entities.Balance{Token: token, Holder: holder}, nil
	}
	return balance, nil
}

func (s *Store) CreditBalance(_ context.Context, token string, holder string, amount int64, at time.Time) (entities.Balance, error) {
	if amount <= 0 {
		return entities.Balance{}, domainerrors.ErrValidation
	}
	s.balanceMu.Lock()
	defer s.balanceMu.Unlock()
	return s.creditLocked(token, holder, amount, at), nil
}

// ApproveTransaction commits nothing for a ctx that is done by the time the
// transaction lock is held.
func (s *Store) ApproveTransaction(ctx context.Context, req ports.ApproveRequest) (ports.ApprovalResult, error) {
	lock := s.entityLock(req.TransactionID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return ports.ApprovalResult{}, err
	}

	tx, err := s.snapshot(req.TransactionID)
	if err != nil {
		return ports.ApprovalResult{}, err
	}
	if !tx.Status.Open() {
		return ports.ApprovalResult{}, domainerrors.ErrInvalidState
	}
	s.mu.RLock()
	for _, existing := range s.approvals[req.TransactionID] {
		if existing.Approver == req.Approver {
			s.mu.RUnlock()
			return ports.ApprovalResult{}, domainerrors.ErrDuplicateApproval
		}
	}
	s.mu.RUnlock()

	at := req.At.UTC()
	reached, err := services.ApplyApproval(&tx, at)
	if err != nil {
		return ports.ApprovalResult{}, err
	}
	approval := entities.Approval{TransactionID: req.TransactionID, Approver: req.Approver, ApprovedAt: at}
	result := ports.ApprovalResult{Approval: approval}

	var transferErr error
	if reached {
		transferErr = s.transfer(tx, req.TreasuryAddress, at)
		if transferErr != nil {
			services.MarkFailed(&tx, transferErr.Error(), at)
		} else {
			services.MarkExecuted(&tx, at)
			result.Executed = true
		}
	}

	s.mu.Lock()
	s.approvals[req.TransactionID] = append(s.approvals[req.TransactionID], approval)
	s.transactions[req.TransactionID] = cloneTransaction(tx)
	if reached {
		for _, item := range s.approvals[req.TransactionID] {
			result.Approvers = append(result.Approvers, item.Approver)
		}
	}
	s.mu.Unlock()

	result.Transaction = cloneTransaction(tx)
	return result, transferErr
}

func (s *Store) RejectTransaction(ctx context.Context, transactionID string, actor string, at time.Time) (entities.Transaction, error) {
	lock := s.entityLock(transactionID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return entities.Transaction{}, err
	}

	tx, err := s.snapshot(transactionID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !tx.Status.Open() {
		return entities.Transaction{}, domainerrors.ErrInvalidState
	}
	tx.Status = entities.TransactionStatusRejected
	tx.RejectedBy = actor
	tx.UpdatedAt = at.UTC()

	s.mu.Lock()
	s.transactions[transactionID] = cloneTransaction(tx)
	s.mu.Unlock()
	return tx, nil
}

// transfer debits the treasury and credits the recipient, or changes nothing.
func (s *Store) transfer(tx entities.Transaction, treasury string, at time.Time) error {
	s.balanceMu.Lock()
	defer s.balanceMu.Unlock()
	source := balanceKey{token: tx.Token, holder: treasury}
	funds := s.balances[source]
	if funds.Amount < tx.Amount {
		return domainerrors.ErrInsufficientFunds
	}
	s.balances[source] = entities.Balance{Token: tx.Token, Holder: treasury, Amount: funds.Amount - tx.Amount, UpdatedAt: at}
	s.creditLocked(tx.Token, tx.Recipient, tx.Amount, at)
	return nil
}

func (s *Store) creditLocked(token string, holder string, amount int64, at time.Time) entities.Balance {
	key := balanceKey{token: token, holder: holder}
	balance := s.balances[key]
	balance.Token = token
	balance.Holder = holder
	balance.Amount += amount
	balance.UpdatedAt = at.UTC()
	s.balances[key] = balance
	return balance
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) entityLock(transactionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[transactionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[transactionID] = lock
	}
	return lock
}

func (s *Store) snapshot(transactionID string) (entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[transactionID]
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return cloneTransaction(tx), nil
}

func cloneTransaction(tx entities.Transaction) entities.Transaction {
	if tx.Metadata != nil {
		metadata := make(map[string]any, len(tx.Metadata))
		for key, value := range tx.Metadata {
			metadata[key] = value
		}
		tx.Metadata = metadata
	}
	if tx.ExecutedAt != nil {
		executedAt := *tx.ExecutedAt
		tx.ExecutedAt = &executedAt
	}
	return tx
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
