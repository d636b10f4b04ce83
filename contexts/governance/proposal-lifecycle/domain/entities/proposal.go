package entities

import (
	"strings"
	"time"
)

type ProposalType string

const (
	ProposalTypeGovernance ProposalType = "governance"
	ProposalTypeTreasury   ProposalType = "treasury"
	ProposalTypeMembership ProposalType = "membership"
	ProposalTypeOther      ProposalType = "other"
)

func ParseProposalType(raw string) (ProposalType, bool) {
	switch ProposalType(strings.ToLower(strings.TrimSpace(raw))) {
	case ProposalTypeGovernance:
		return ProposalTypeGovernance, true
	case ProposalTypeTreasury:
		return ProposalTypeTreasury, true
	case ProposalTypeMembership:
		return ProposalTypeMembership, true
	case ProposalTypeOther, "":
		return ProposalTypeOther, true
	default:
		return "", false
	}
}

type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "draft"
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusPassed    ProposalStatus = "passed"
	ProposalStatusFailed    ProposalStatus = "failed"
	ProposalStatusExecuted  ProposalStatus = "executed"
	ProposalStatusCancelled ProposalStatus = "cancelled"
)

func ParseProposalStatus(raw string) (ProposalStatus, bool) {
	status := ProposalStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case ProposalStatusDraft, ProposalStatusActive, ProposalStatusPassed,
		ProposalStatusFailed, ProposalStatusExecuted, ProposalStatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// Terminal statuses never change again.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalStatusExecuted || s == ProposalStatusCancelled || s == ProposalStatusFailed
}

// Tally holds the running weighted sums per choice.
type Tally struct {
	Yes     int64
	No      int64
	Abstain int64
}

func (t *Tally) Add(choice VoteChoice, weight int64) {
	switch choice {
	case VoteChoiceFor:
		t.Yes += weight
	case VoteChoiceAgainst:
		t.No += weight
	case VoteChoiceAbstain:
		t.Abstain += weight
	}
}

func (t Tally) Total() int64 {
	return t.Yes + t.No + t.Abstain
}

// ExecutionPayload is the opaque effect a passed proposal carries. Kind selects
// the effect handler; Data is passed through untouched.
type ExecutionPayload struct {
	Kind string
	Data map[string]any
}

type Proposal struct {
	ProposalID     string
	Title          string
	Description    string
	Proposer       string
	Type           ProposalType
	Status         ProposalStatus
	Tally          Tally
	Payload        *ExecutionPayload
	Metadata       map[string]any
	VotingStartsAt time.Time
	VotingEndsAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinalizedAt    *time.Time
	ExecutedAt     *time.Time
}

// AcceptsVotesAt reports whether a vote cast at now is legal: the proposal is
// active and now falls in [VotingStartsAt, VotingEndsAt).
func (p Proposal) AcceptsVotesAt(now time.Time) bool {
	if p.Status != ProposalStatusActive {
		return false
	}
	return !now.Before(p.VotingStartsAt) && now.Before(p.VotingEndsAt)
}

// VotingClosedAt reports whether the voting window has elapsed.
func (p Proposal) VotingClosedAt(now time.Time) bool {
	return !now.Before(p.VotingEndsAt)
}
