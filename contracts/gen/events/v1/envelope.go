package v1

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType names a DomainEvent variant on the wire.
type EventType string

const (
	EventProposalCreated     EventType = "proposal_created"
	EventProposalUpdated     EventType = "proposal_updated"
	EventProposalVoted       EventType = "proposal_voted"
	EventTransactionCreated  EventType = "transaction_created"
	EventTransactionApproved EventType = "transaction_approved"
	EventTransactionExecuted EventType = "transaction_executed"
	EventMemberRegistered    EventType = "member_registered"
	EventMemberUpdated       EventType = "member_updated"
	EventActivityRecorded    EventType = "activity_recorded"
)

// AllEventTypes lists every variant in declaration order.
var AllEventTypes = []EventType{
	EventProposalCreated,
	EventProposalUpdated,
	EventProposalVoted,
	EventTransactionCreated,
	EventTransactionApproved,
	EventTransactionExecuted,
	EventMemberRegistered,
	EventMemberUpdated,
	EventActivityRecorded,
}

// ParseEventType accepts the snake_case wire name, case-insensitively.
func ParseEventType(raw string) (EventType, bool) {
	value := EventType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllEventTypes {
		if known == value {
			return known, true
		}
	}
	return "", false
}

// DomainEvent is the canonical notification contract pushed to live observers.
// This package is generated-contract-only and must stay backward compatible:
// the wire shape is exactly {event_type, timestamp, data}.
type DomainEvent struct {
	EventType EventType       `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewDomainEvent marshals a variant payload into an event stamped in UTC.
func NewDomainEvent(eventType EventType, occurredAt time.Time, data any) (DomainEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return DomainEvent{}, err
	}
	return DomainEvent{
		EventType: eventType,
		Timestamp: occurredAt.UTC(),
		Data:      payload,
	}, nil
}

// Decode unmarshals the variant payload into target.
func (e DomainEvent) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}

type ProposalCreatedData struct {
	ProposalID     string     `json:"proposal_id"`
	Title          string     `json:"title"`
	Proposer       string     `json:"proposer"`
	ProposalType   string     `json:"proposal_type"`
	Status         string     `json:"status"`
	VotingStartsAt *time.Time `json:"voting_starts_at,omitempty"`
	VotingEndsAt   *time.Time `json:"voting_ends_at,omitempty"`
}

type ProposalUpdatedData struct {
	ProposalID     string `json:"proposal_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	YesVotes       int64  `json:"yes_votes"`
	NoVotes        int64  `json:"no_votes"`
	AbstainVotes   int64  `json:"abstain_votes"`
	Actor          string `json:"actor,omitempty"`
}

type ProposalVotedData struct {
	ProposalID  string `json:"proposal_id"`
	Voter       string `json:"voter"`
	Vote        string `json:"vote"`
	VotingPower int64  `json:"voting_power"`
}

type TransactionCreatedData struct {
	TransactionID     string `json:"transaction_id"`
	Description       string `json:"description"`
	Recipient         string `json:"recipient"`
	Token             string `json:"token"`
	Amount            int64  `json:"amount"`
	RequiredApprovals int    `json:"required_approvals"`
	RelatedProposal   string `json:"related_proposal,omitempty"`
}

type TransactionApprovedData struct {
	TransactionID     string `json:"transaction_id"`
	Approver          string `json:"approver"`
	CurrentApprovals  int    `json:"current_approvals"`
	RequiredApprovals int    `json:"required_approvals"`
	Status            string `json:"status"`
}

type TransactionExecutedData struct {
	TransactionID string    `json:"transaction_id"`
	Recipient     string    `json:"recipient"`
	Token         string    `json:"token"`
	Amount        int64     `json:"amount"`
	ExecutedAt    time.Time `json:"executed_at"`
	// ExecutedBy is the approver whose approval crossed the threshold.
	ExecutedBy string   `json:"executed_by"`
	Approvers  []string `json:"approvers"`
}

type MemberRegisteredData struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role"`
}

type MemberUpdatedData struct {
	Address    string `json:"address"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	Reputation int64  `json:"reputation"`
	Actor      string `json:"actor,omitempty"`
}

type ActivityRecordedData struct {
	ActivityID       string `json:"activity_id"`
	MemberAddress    string `json:"member_address"`
	ActivityType     string `json:"activity_type"`
	RelatedID        string `json:"related_id,omitempty"`
	ReputationChange int64  `json:"reputation_change"`
}
