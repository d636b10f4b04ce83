package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/ports"

	"github.com/google/uuid"
)

// Store is an in-memory ledger for proposals and votes. Each proposal has its
// own lock so units on different proposals never serialize on each other.
type Store struct {
	mu sync.RWMutex

	proposals map[string]entities.Proposal
	votes     map[string][]entities.Vote
	voters    map[string]map[string]struct{}
	locks     map[string]*sync.Mutex

	clock func() time.Time
}

func NewStore(seed []entities.Proposal) *Store {
	store := &Store{
		proposals: make(map[string]entities.Proposal, len(seed)),
		votes:     make(map[string][]entities.Vote),
		voters:    make(map[string]map[string]struct{}),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, proposal := range seed {
		store.proposals[proposal.ProposalID] = cloneProposal(proposal)
	}
	return store
}

// SetProposal seeds or replaces a proposal.
func (s *Store) SetProposal(proposal entities.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
}

// SetClock pins Now for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = now
}

func (s *Store) CreateProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[proposal.ProposalID]; exists {
		return domainerrors.ErrValidation
	}
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
	return nil
}

func (s *Store) GetProposal(_ context.Context, proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return cloneProposal(proposal), nil
}

func (s *Store) ListProposals(_ context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		if filter.Status != "" && proposal.Status != filter.Status {
			continue
		}
		if filter.Proposer != "" && proposal.Proposer != filter.Proposer {
			continue
		}
		items = append(items, cloneProposal(proposal))
	}
	sortProposals(items)
	return items, nil
}

func (s *Store) ListVotes(_ context.Context, proposalID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes := s.votes[strings.TrimSpace(proposalID)]
	return append([]entities.Vote(nil), votes...), nil
}

func (s *Store) ListDueProposals(_ context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.Status == entities.ProposalStatusActive && proposal.VotingClosedAt(now) {
			items = append(items, cloneProposal(proposal))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VotingEndsAt.Before(items[j].VotingEndsAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// UpdateProposal, like RecordVote, writes nothing once ctx is done: a call
// cancelled while waiting for the proposal lock, or during mutate, leaves the
// proposal as it was.
func (s *Store) UpdateProposal(
	ctx context.Context,
	proposalID string,
	mutate func(proposal *entities.Proposal) error,
) (entities.Proposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	lock := s.entityLock(proposalID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return entities.Proposal{}, err
	}

	current, err := s.snapshot(proposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if err := mutate(&current); err != nil {
		return entities.Proposal{}, err
	}
	if err := ctx.Err(); err != nil {
		return entities.Proposal{}, err
	}

	s.mu.Lock()
	s.proposals[proposalID] = cloneProposal(current)
	s.mu.Unlock()
	return cloneProposal(current), nil
}

func (s *Store) RecordVote(
	ctx context.Context,
	vote entities.Vote,
	check func(proposal entities.Proposal) error,
) (entities.Proposal, error) {
	lock := s.entityLock(vote.ProposalID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return entities.Proposal{}, err
	}

	current, err := s.snapshot(vote.ProposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if err := check(current); err != nil {
		return entities.Proposal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, voted := s.voters[vote.ProposalID][vote.Voter]; voted {
		return entities.Proposal{}, domainerrors.ErrDuplicateVote
	}
	if s.voters[vote.ProposalID] == nil {
		s.voters[vote.ProposalID] = make(map[string]struct{})
	}
	s.voters[vote.ProposalID][vote.Voter] = struct{}{}
	s.votes[vote.ProposalID] = append(s.votes[vote.ProposalID], vote)

	current.Tally.Add(vote.Choice, vote.Weight)
	current.UpdatedAt = vote.CastAt
	s.proposals[vote.ProposalID] = cloneProposal(current)
	return cloneProposal(current), nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	clock := s.clock
	s.mu.RUnlock()
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) entityLock(proposalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[proposalID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[proposalID] = lock
	}
	return lock
}

func (s *Store) snapshot(proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return cloneProposal(proposal), nil
}

func sortProposals(items []entities.Proposal) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ProposalID < items[j].ProposalID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func cloneProposal(proposal entities.Proposal) entities.Proposal {
	if proposal.Payload != nil {
		payload := *proposal.Payload
		payload.Data = cloneMap(payload.Data)
		proposal.Payload = &payload
	}
	proposal.Metadata = cloneMap(proposal.Metadata)
	if proposal.FinalizedAt != nil {
		finalizedAt := *proposal.FinalizedAt
		proposal.FinalizedAt = &finalizedAt
	}
	if proposal.ExecutedAt != nil {
		executedAt := *proposal.ExecutedAt
		proposal.ExecutedAt = &executedAt
	}
	return proposal
}

func cloneMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	cloned := make(map[string]any, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
