package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ExecutionPayload struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

type SubmitProposalRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	ProposalType   string            `json:"proposal_type"`
	VotingStartsAt *time.Time        `json:"voting_starts_at,omitempty"`
	VotingEndsAt   *time.Time        `json:"voting_ends_at,omitempty"`
	Activate       bool              `json:"activate,omitempty"`
	Execution      *ExecutionPayload `json:"execution,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

type ActivateProposalRequest struct {
	// VotingPeriodSeconds restarts the window at activation time when positive.
	VotingPeriodSeconds int64 `json:"voting_period_seconds,omitempty"`
}

type CastVoteRequest struct {
	Vote        string `json:"vote"`
	VotingPower int64  `json:"voting_power"`
}

type TallyResponse struct {
	Yes     int64 `json:"yes"`
	No      int64 `json:"no"`
	Abstain int64 `json:"abstain"`
}

type ProposalResponse struct {
	ProposalID     string            `json:"proposal_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Proposer       string            `json:"proposer"`
	ProposalType   string            `json:"proposal_type"`
	Status         string            `json:"status"`
	Tally          TallyResponse     `json:"tally"`
	Execution      *ExecutionPayload `json:"execution,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	VotingStartsAt time.Time         `json:"voting_starts_at"`
	VotingEndsAt   time.Time         `json:"voting_ends_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	FinalizedAt    *time.Time        `json:"finalized_at,omitempty"`
	ExecutedAt     *time.Time        `json:"executed_at,omitempty"`
}

type ListProposalsResponse struct {
	Items []ProposalResponse `json:"items"`
}

type VoteResponse struct {
	ProposalID  string    `json:"proposal_id"`
	Voter       string    `json:"voter"`
	Vote        string    `json:"vote"`
	VotingPower int64     `json:"voting_power"`
	CastAt      time.Time `json:"cast_at"`
}

type ListVotesResponse struct {
	Items         []VoteResponse `json:"items"`
	Tally         TallyResponse  `json:"tally"`
	Reconstructed TallyResponse  `json:"reconstructed_tally"`
	Consistent    bool           `json:"consistent"`
}
