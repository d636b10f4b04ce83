package httpadapter

import (
	"context"
	"log/slog"

	"atomsi/contexts/treasury/treasury-approval/application/commands"
	"atomsi/contexts/treasury/treasury-approval/application/queries"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	httptransport "atomsi/contexts/treasury/treasury-approval/transport/http"
)

type Handler struct {
	Treasury commands.TreasuryUseCase
	Queries  queries.TreasuryQueryUseCase
	Logger   *slog.Logger
}

func (h Handler) ProposeTransactionHandler(
	ctx context.Context,
	actor string,
	req httptransport.ProposeTransactionRequest,
) (httptransport.TransactionResponse, error) {
	tx, err := h.Treasury.Propose(ctx, commands.ProposeTransactionCommand{
		Description:       req.Description,
		Recipient:         req.Recipient,
		Token:             req.Token,
		Amount:            req.Amount,
		RequiredApprovals: req.RequiredApprovals,
		RelatedProposal:   req.RelatedProposal,
		ProposedBy:        actor,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return toTransactionResponse(tx), nil
}

// ApproveTransactionHandler returns the recorded state even when the transfer
// failed, together with the execution error.
func (h Handler) ApproveTransactionHandler(
	ctx context.Context,
	approver string,
	transactionID string,
) (httptransport.ApproveTransactionResponse, error) {
	result, err := h.Treasury.Approve(ctx, commands.ApproveTransactionCommand{
		TransactionID: transactionID,
		Approver:      approver,
	})
	response := httptransport.ApproveTransactionResponse{
		Approval: httptransport.ApprovalResponse{
			TransactionID: result.Approval.TransactionID,
			Approver:      result.Approval.Approver,
			ApprovedAt:    result.Approval.ApprovedAt,
		},
		Transaction: toTransactionResponse(result.Transaction),
		Executed:    result.Executed,
	}
	return response, err
}

func (h Handler) RejectTransactionHandler(ctx context.Context, actor string, transactionID string) (httptransport.TransactionResponse, error) {
	tx, err := h.Treasury.Reject(ctx, commands.RejectTransactionCommand{
		TransactionID: transactionID,
		Actor:         actor,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return toTransactionResponse(tx), nil
}

func (h Handler) DepositHandler(ctx context.Context, actor string, req httptransport.DepositRequest) (httptransport.BalanceResponse, error) {
	balance, err := h.Treasury.Deposit(ctx, commands.DepositCommand{
		Actor:  actor,
		Token:  req.Token,
		Amount: req.Amount,
	})
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return toBalanceResponse(balance), nil
}

func (h Handler) GetTransactionHandler(ctx context.Context, transactionID string) (httptransport.TransactionResponse, error) {
	tx, err := h.Queries.GetTransaction(ctx, transactionID)
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return toTransactionResponse(tx), nil
}

func (h Handler) ListTransactionsHandler(ctx context.Context, status string, relatedProposal string) (httptransport.ListTransactionsResponse, error) {
	items, err := h.Queries.ListTransactions(ctx, status, relatedProposal)
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	response := httptransport.ListTransactionsResponse{Items: make([]httptransport.TransactionResponse, 0, len(items))}
	for _, tx := range items {
		response.Items = append(response.Items, toTransactionResponse(tx))
	}
	return response, nil
}

func (h Handler) ListApprovalsHandler(ctx context.Context, transactionID string) (httptransport.ListApprovalsResponse, error) {
	approvals, err := h.Queries.ListApprovals(ctx, transactionID)
	if err != nil {
		return httptransport.ListApprovalsResponse{}, err
	}
	response := httptransport.ListApprovalsResponse{Items: make([]httptransport.ApprovalResponse, 0, len(approvals))}
	for _, approval := range approvals {
		response.Items = append(response.Items, httptransport.ApprovalResponse{
			TransactionID: approval.TransactionID,
			Approver:      approval.Approver,
			ApprovedAt:    approval.ApprovedAt,
		})
	}
	return response, nil
}

func (h Handler) GetBalanceHandler(ctx context.Context, token string, holder string) (httptransport.BalanceResponse, error) {
	balance, err := h.Queries.GetBalance(ctx, token, holder)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return toBalanceResponse(balance), nil
}

func toTransactionResponse(tx entities.Transaction) httptransport.TransactionResponse {
	return httptransport.TransactionResponse{
		TransactionID:     tx.TransactionID,
		Description:       tx.Description,
		Recipient:         tx.Recipient,
		Token:             tx.Token,
		Amount:            tx.Amount,
		Status:            string(tx.Status),
		RequiredApprovals: tx.RequiredApprovals,
		CurrentApprovals:  tx.CurrentApprovals,
		RelatedProposal:   tx.RelatedProposal,
		ProposedBy:        tx.ProposedBy,
		FailureReason:     tx.FailureReason,
		RejectedBy:        tx.RejectedBy,
		Metadata:          tx.Metadata,
		CreatedAt:         tx.CreatedAt,
		UpdatedAt:         tx.UpdatedAt,
		ExecutedAt:        tx.ExecutedAt,
	}
}

func toBalanceResponse(balance entities.Balance) httptransport.BalanceResponse {
	return httptransport.BalanceResponse{
		Token:     balance.Token,
		Holder:    balance.Holder,
		Amount:    balance.Amount,
		UpdatedAt: balance.UpdatedAt,
	}
}
