package ports

import (
	"context"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
)

type ActivityFilter struct {
	MemberAddress string
	Type          entities.ActivityType
	Limit         int
}

type Repository interface {
	// RecordActivity fails with ErrDuplicateActivity when the
	// (member, type, related id) key already exists.
	RecordActivity(ctx context.Context, activity entities.Activity) error
	GetActivity(ctx context.Context, activityID string) (entities.Activity, error)
	ListActivities(ctx context.Context, filter ActivityFilter) ([]entities.Activity, error)
	// ListPending returns oldest pending activities first.
	ListPending(ctx context.Context, limit int) ([]entities.Activity, error)
	MarkApplyResult(ctx context.Context, activityID string, status entities.ApplyStatus, lastError string, at time.Time) (entities.Activity, error)
}

// ReputationApplier moves a delta onto a member record. It returns
// ErrMemberUnknown for unregistered addresses.
type ReputationApplier interface {
	ApplyDelta(ctx context.Context, address string, delta int64, at time.Time) error
}

type ReputationApplierFunc func(ctx context.Context, address string, delta int64, at time.Time) error

func (f ReputationApplierFunc) ApplyDelta(ctx context.Context, address string, delta int64, at time.Time) error {
	return f(ctx, address, delta, at)
}

// EventStream is a live subscription to domain events.
type EventStream interface {
	Events() <-chan contractsv1.DomainEvent
	Close()
}

type EventPublisher interface {
	Publish(ctx context.Context, event contractsv1.DomainEvent) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
