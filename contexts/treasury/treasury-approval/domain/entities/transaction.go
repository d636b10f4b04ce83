package entities

import (
	"strings"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusExecuted TransactionStatus = "executed"
	TransactionStatusRejected TransactionStatus = "rejected"
	TransactionStatusFailed   TransactionStatus = "failed"
)

func ParseTransactionStatus(raw string) (TransactionStatus, bool) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusExecuted,
		TransactionStatusRejected, TransactionStatusFailed:
		return status, true
	default:
		return "", false
	}
}

// Open statuses still accept approvals and rejection.
func (s TransactionStatus) Open() bool {
	return s == TransactionStatusPending || s == TransactionStatusApproved
}

type Transaction struct {
	TransactionID     string
	Description       string
	Recipient         string
	Token             string
	Amount            int64
	Status            TransactionStatus
	RequiredApprovals int
	// CurrentApprovals always equals the number of Approval rows.
	CurrentApprovals int
	RelatedProposal  string
	ProposedBy       string
	FailureReason    string
	RejectedBy       string
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExecutedAt       *time.Time
}

// Approval is append-only. (TransactionID, Approver) is unique.
type Approval struct {
	TransactionID string
	Approver      string
	ApprovedAt    time.Time
}

// Balance is the nonnegative holding of one token by one address.
type Balance struct {
	Token     string
	Holder    string
	Amount    int64
	UpdatedAt time.Time
}
