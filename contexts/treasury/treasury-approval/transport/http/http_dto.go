package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProposeTransactionRequest struct {
	Description       string         `json:"description"`
	Recipient         string         `json:"recipient"`
	Token             string         `json:"token"`
	Amount            int64          `json:"amount"`
	RequiredApprovals int            `json:"required_approvals"`
	RelatedProposal   string         `json:"related_proposal,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type DepositRequest struct {
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
}

type TransactionResponse struct {
	TransactionID     string         `json:"transaction_id"`
	Description       string         `json:"description"`
	Recipient         string         `json:"recipient"`
	Token             string         `json:"token"`
	Amount            int64          `json:"amount"`
	Status            string         `json:"status"`
	RequiredApprovals int            `json:"required_approvals"`
	CurrentApprovals  int            `json:"current_approvals"`
	RelatedProposal   string         `json:"related_proposal,omitempty"`
	ProposedBy        string         `json:"proposed_by,omitempty"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	RejectedBy        string         `json:"rejected_by,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ExecutedAt        *time.Time     `json:"executed_at,omitempty"`
}

type ListTransactionsResponse struct {
	Items []TransactionResponse `json:"items"`
}

type ApprovalResponse struct {
	TransactionID string    `json:"transaction_id"`
	Approver      string    `json:"approver"`
	ApprovedAt    time.Time `json:"approved_at"`
}

type ApproveTransactionResponse struct {
	Approval    ApprovalResponse    `json:"approval"`
	Transaction TransactionResponse `json:"transaction"`
	Executed    bool                `json:"executed"`
}

type ListApprovalsResponse struct {
	Items []ApprovalResponse `json:"items"`
}

type BalanceResponse struct {
	Token     string    `json:"token"`
	Holder    string    `json:"holder"`
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
