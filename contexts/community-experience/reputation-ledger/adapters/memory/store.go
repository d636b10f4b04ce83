package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	activities map[string]entities.Activity
	keys       map[string]string
	order      []string
}

func NewStore() *Store {
	return &Store{
		activities: make(map[string]entities.Activity),
		keys:       make(map[string]string),
	}
}

func activityKey(activity entities.Activity) string {
	return activity.MemberAddress + "|" + string(activity.Type) + "|" + activity.RelatedID
}

func (s *Store) RecordActivity(_ context.Context, activity entities.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := activityKey(activity)
	if _, exists := s.keys[key]; exists {
		return domainerrors.ErrDuplicateActivity
	}
	if _, exists := s.activities[activity.ActivityID]; exists {
		return domainerrors.ErrDuplicateActivity
	}
	s.keys[key] = activity.ActivityID
	s.activities[activity.ActivityID] = cloneActivity(activity)
	s.order = append(s.order, activity.ActivityID)
	return nil
}

func (s *Store) GetActivity(_ context.Context, activityID string) (entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[strings.TrimSpace(activityID)]
	if !ok {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	return cloneActivity(activity), nil
}

func (s *Store) ListActivities(_ context.Context, filter ports.ActivityFilter) ([]entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Activity, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		activity := s.activities[s.order[i]]
		if filter.MemberAddress != "" && activity.MemberAddress != filter.MemberAddress {
			continue
		}
		if filter.Type != "" && activity.Type != filter.Type {
			continue
		}
		items = append(items, cloneActivity(activity))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) ListPending(_ context.Context, limit int) ([]entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Activity, 0)
	for _, activityID := range s.order {
		activity := s.activities[activityID]
		if activity.ApplyStatus != entities.ApplyStatusPending {
			continue
		}
		items = append(items, cloneActivity(activity))
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkApplyResult(
	_ context.Context,
	activityID string,
	status entities.ApplyStatus,
	lastError string,
	at time.Time,
) (entities.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, ok := s.activities[activityID]
	if !ok {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	activity.ApplyStatus = status
	activity.Attempts++
	activity.LastError = lastError
	if status == entities.ApplyStatusApplied {
		appliedAt := at.UTC()
		activity.AppliedAt = &appliedAt
	}
	s.activities[activityID] = activity
	return cloneActivity(activity), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneActivity(activity entities.Activity) entities.Activity {
	if activity.Metadata != nil {
		metadata := make(map[string]any, len(activity.Metadata))
		for key, value := range activity.Metadata {
			metadata[key] = value
		}
		activity.Metadata = metadata
	}
	if activity.AppliedAt != nil {
		appliedAt := *activity.AppliedAt
		activity.AppliedAt = &appliedAt
	}
	return activity
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
