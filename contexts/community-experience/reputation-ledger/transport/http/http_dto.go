package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ActivityResponse struct {
	ActivityID        string         `json:"activity_id"`
	MemberAddress     string         `json:"member_address"`
	ActivityType      string         `json:"activity_type"`
	RelatedID         string         `json:"related_id"`
	ReputationChange  int64          `json:"reputation_change"`
	ReputationApplied bool           `json:"reputation_applied"`
	ApplyStatus       string         `json:"apply_status"`
	Description       string         `json:"description,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

type ListActivitiesResponse struct {
	Items []ActivityResponse `json:"items"`
}
