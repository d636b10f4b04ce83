package services

import "atomsi/contexts/community-experience/reputation-ledger/domain/entities"

// Deltas holds the configured reputation change per activity type.
type Deltas struct {
	ProposalSubmission int64
	Voting             int64
	TreasuryApproval   int64
	TreasuryExecution  int64
}

func DefaultDeltas() Deltas {
	return Deltas{
		ProposalSubmission: 5,
		Voting:             1,
		TreasuryApproval:   2,
		TreasuryExecution:  3,
	}
}

func (d Deltas) For(activityType entities.ActivityType) int64 {
	switch activityType {
	case entities.ActivityProposalSubmission:
		return d.ProposalSubmission
	case entities.ActivityVoting:
		return d.Voting
	case entities.ActivityTreasuryApproval:
		return d.TreasuryApproval
	case entities.ActivityTreasuryExecution:
		return d.TreasuryExecution
	default:
		return 0
	}
}
