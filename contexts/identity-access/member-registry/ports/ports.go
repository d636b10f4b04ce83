package ports

import (
	"context"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/identity-access/member-registry/domain/entities"
)

type MemberFilter struct {
	Role   entities.Role
	Status entities.Status
}

type Repository interface {
	CreateMember(ctx context.Context, member entities.Member) error
	GetMember(ctx context.Context, address string) (entities.Member, error)
	UpdateMember(ctx context.Context, member entities.Member) error
	ListMembers(ctx context.Context, filter MemberFilter) ([]entities.Member, error)
	// ApplyReputationDelta is a single read-modify-write on one member row.
	ApplyReputationDelta(ctx context.Context, address string, delta int64, at time.Time) (entities.Member, error)
}

// EventPublisher hands committed member transitions to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event contractsv1.DomainEvent) error
}

type Clock interface {
	Now() time.Time
}
