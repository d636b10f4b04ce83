package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterMemberRequest struct {
	Address  string         `json:"address"`
	Name     string         `json:"name,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpdateMemberRequest struct {
	Name   *string `json:"name,omitempty"`
	Role   string  `json:"role,omitempty"`
	Status string  `json:"status,omitempty"`
}

type MemberResponse struct {
	Address      string         `json:"address"`
	Name         string         `json:"name,omitempty"`
	Role         string         `json:"role"`
	Status       string         `json:"status"`
	Reputation   int64          `json:"reputation"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	JoinedAt     time.Time      `json:"joined_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastActiveAt *time.Time     `json:"last_active_at,omitempty"`
}

type ListMembersResponse struct {
	Items []MemberResponse `json:"items"`
}
