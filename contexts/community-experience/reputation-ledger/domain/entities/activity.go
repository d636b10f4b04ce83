package entities

import (
	"strings"
	"time"
)

type ActivityType string

const (
	ActivityProposalSubmission ActivityType = "proposal_submission"
	ActivityVoting             ActivityType = "voting"
	ActivityTreasuryApproval   ActivityType = "treasury_approval"
	ActivityTreasuryExecution  ActivityType = "treasury_execution"
)

func ParseActivityType(raw string) (ActivityType, bool) {
	activityType := ActivityType(strings.ToLower(strings.TrimSpace(raw)))
	switch activityType {
	case ActivityProposalSubmission, ActivityVoting, ActivityTreasuryApproval, ActivityTreasuryExecution:
		return activityType, true
	default:
		return "", false
	}
}

// ApplyStatus tracks whether the activity's delta reached the member record.
type ApplyStatus string

const (
	ApplyStatusPending ApplyStatus = "pending"
	ApplyStatusApplied ApplyStatus = "applied"
	// ApplyStatusSkipped marks actors that are not registered members.
	ApplyStatusSkipped ApplyStatus = "skipped"
)

type Activity struct {
	ActivityID       string
	MemberAddress    string
	Type             ActivityType
	RelatedID        string
	ReputationChange int64
	ApplyStatus      ApplyStatus
	Attempts         int
	LastError        string
	Description      string
	Metadata         map[string]any
	CreatedAt        time.Time
	AppliedAt        *time.Time
}

func (a Activity) ReputationApplied() bool {
	return a.ApplyStatus == ApplyStatusApplied
}
