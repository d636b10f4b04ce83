package entities

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember   Role = "member"
	RoleDelegate Role = "delegate"
	RoleCouncil  Role = "council"
	RoleAdmin    Role = "admin"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Member is keyed by its wallet address.
type Member struct {
	Address      string
	Name         string
	Role         Role
	Status       Status
	Reputation   int64
	Metadata     map[string]any
	JoinedAt     time.Time
	UpdatedAt    time.Time
	LastActiveAt *time.Time
}

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleMember:
		return RoleMember, true
	case RoleDelegate:
		return RoleDelegate, true
	case RoleCouncil:
		return RoleCouncil, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive, true
	case StatusInactive:
		return StatusInactive, true
	case StatusSuspended:
		return StatusSuspended, true
	default:
		return "", false
	}
}

// ApplyReputation adds delta to the score, flooring at zero.
func (m *Member) ApplyReputation(delta int64, at time.Time) {
	m.Reputation += delta
	if m.Reputation < 0 {
		m.Reputation = 0
	}
	touched := at.UTC()
	m.LastActiveAt = &touched
	m.UpdatedAt = touched
}
