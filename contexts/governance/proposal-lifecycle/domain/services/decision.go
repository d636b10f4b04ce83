package services

import "atomsi/contexts/governance/proposal-lifecycle/domain/entities"

// QuorumRule is the configured finalization threshold.
type QuorumRule struct {
	Threshold int64
	// CountAbstain adds abstain weight to the quorum participation sum.
	CountAbstain bool
}

// Decide returns passed when yes outweighs no and participation reaches the
// quorum threshold. Ties and sub-quorum results fail.
func Decide(tally entities.Tally, rule QuorumRule) entities.ProposalStatus {
	participation := tally.Yes + tally.No
	if rule.CountAbstain {
		participation += tally.Abstain
	}
	if tally.Yes > tally.No && participation >= rule.Threshold {
		return entities.ProposalStatusPassed
	}
	return entities.ProposalStatusFailed
}

// ReconstructTally recomputes a tally from the recorded votes.
func ReconstructTally(votes []entities.Vote) entities.Tally {
	var tally entities.Tally
	for _, vote := range votes {
		tally.Add(vote.Choice, vote.Weight)
	}
	return tally
}
