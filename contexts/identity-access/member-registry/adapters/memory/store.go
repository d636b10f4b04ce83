package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/ports"
)

// Store is an in-memory member registry for tests and local development wiring.
type Store struct {
	mu      sync.RWMutex
	members map[string]entities.Member
}

func NewStore(seed []entities.Member) *Store {
	members := make(map[string]entities.Member, len(seed))
	for _, member := range seed {
		members[strings.TrimSpace(member.Address)] = normalizeSeed(member)
	}
	return &Store{members: members}
}

// SetMember seeds or replaces a member record.
func (s *Store) SetMember(member entities.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[strings.TrimSpace(member.Address)] = normalizeSeed(member)
}

func (s *Store) CreateMember(_ context.Context, member entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[member.Address]; exists {
		return domainerrors.ErrMemberExists
	}
	s.members[member.Address] = cloneMember(member)
	return nil
}

func (s *Store) GetMember(_ context.Context, address string) (entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[strings.TrimSpace(address)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return cloneMember(member), nil
}

func (s *Store) UpdateMember(_ context.Context, member entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.Address]; !ok {
		return domainerrors.ErrMemberNotFound
	}
	s.members[member.Address] = cloneMember(member)
	return nil
}

func (s *Store) ListMembers(_ context.Context, filter ports.MemberFilter) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Member, 0, len(s.members))
	for _, member := range s.members {
		if filter.Role != "" && member.Role != filter.Role {
			continue
		}
		if filter.Status != "" && member.Status != filter.Status {
			continue
		}
		items = append(items, cloneMember(member))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].JoinedAt.Equal(items[j].JoinedAt) {
			return items[i].Address < items[j].Address
		}
		return items[i].JoinedAt.Before(items[j].JoinedAt)
	})
	return items, nil
}

func (s *Store) ApplyReputationDelta(_ context.Context, address string, delta int64, at time.Time) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[strings.TrimSpace(address)]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	member.ApplyReputation(delta, at)
	s.members[member.Address] = member
	return cloneMember(member), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func normalizeSeed(member entities.Member) entities.Member {
	member.Address = strings.TrimSpace(member.Address)
	if member.Role == "" {
		member.Role = entities.RoleMember
	}
	if member.Status == "" {
		member.Status = entities.StatusActive
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	if member.UpdatedAt.IsZero() {
		member.UpdatedAt = member.JoinedAt
	}
	return cloneMember(member)
}

func cloneMember(member entities.Member) entities.Member {
	if member.Metadata != nil {
		metadata := make(map[string]any, len(member.Metadata))
		for key, value := range member.Metadata {
			metadata[key] = value
		}
		member.Metadata = metadata
	}
	if member.LastActiveAt != nil {
		lastActive := *member.LastActiveAt
		member.LastActiveAt = &lastActive
	}
	return member
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
