package entities

import (
	"strings"
	"time"
)

type VoteChoice string

const (
	VoteChoiceFor     VoteChoice = "for"
	VoteChoiceAgainst VoteChoice = "against"
	VoteChoiceAbstain VoteChoice = "abstain"
)

// ParseVoteChoice also accepts yes/no as aliases of for/against.
func ParseVoteChoice(raw string) (VoteChoice, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "for", "yes":
		return VoteChoiceFor, true
	case "against", "no":
		return VoteChoiceAgainst, true
	case "abstain":
		return VoteChoiceAbstain, true
	default:
		return "", false
	}
}

// Vote is immutable once recorded. (ProposalID, Voter) is unique.
type Vote struct {
	ProposalID string
	Voter      string
	Choice     VoteChoice
	Weight     int64
	CastAt     time.Time
}
