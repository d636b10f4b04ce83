package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
	"atomsi/contexts/treasury/treasury-approval/domain/services"
	"atomsi/contexts/treasury/treasury-approval/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func Models() []any {
	return []any{&transactionModel{}, &approvalModel{}, &balanceModel{}}
}

func (r *Repository) CreateTransaction(ctx context.Context, tx entities.Transaction) error {
	row := transactionModelFromEntity(tx)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == relatedProposalIndex {
				return domainerrors.ErrProposalAlreadyLinked
			}
			return domainerrors.ErrValidation
		}
		return r.logError("treasury_repo_create_failed", err, "transaction_id", row.ID)
	}
	return nil
}

func (r *Repository) GetTransactionByProposal(ctx context.Context, proposalID string) (entities.Transaction, error) {
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	var row transactionModel
	err := r.db.WithContext(ctx).Where("related_proposal = ?", proposalID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, r.logError("treasury_repo_get_by_proposal_failed", err, "proposal_id", proposalID)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(transactionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, r.logError("treasury_repo_get_failed", err, "transaction_id", transactionID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTransactions(ctx context.Context, filter ports.TransactionFilter) ([]entities.Transaction, error) {
	tx := r.db.WithContext(ctx).Model(&transactionModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.RelatedProposal != "" {
		tx = tx.Where("related_proposal = ?", filter.RelatedProposal)
	}
	var rows []transactionModel
	if err := tx.Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("treasury_repo_list_failed", err, "status", string(filter.Status))
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListApprovals(ctx context.Context, transactionID string) ([]entities.Approval, error) {
	var rows []approvalModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", strings.TrimSpace(transactionID)).
		Order("approved_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("treasury_repo_list_approvals_failed", err, "transaction_id", transactionID)
	}
	items := make([]entities.Approval, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Approval{
			TransactionID: row.TransactionID,
			Approver:      row.Approver,
			ApprovedAt:    row.ApprovedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) GetBalance(ctx context.Context, token string, holder string) (entities.Balance, error) {
	var row balanceModel
	err := r.db.WithContext(ctx).Where("token = ? AND holder = ?", token, holder).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Balance{Token: token, Holder: holder}, nil
		}
		return entities.Balance{}, r.logError("treasury_repo_get_balance_failed", err, "token", token, "holder", holder)
	}
	return row.toEntity(), nil
}

func (r *Repository) CreditBalance(ctx context.Context, token string, holder string, amount int64, at time.Time) (entities.Balance, error) {
	if amount <= 0 {
		return entities.Balance{}, domainerrors.ErrValidation
	}
	var balance entities.Balance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := credit(tx, token, holder, amount, at); err != nil {
			return err
		}
		var row balanceModel
		if err := tx.Where("token = ? AND holder = ?", token, holder).First(&row).Error; err != nil {
			return err
		}
		balance = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Balance{}, r.logError("treasury_repo_credit_failed", err, "token", token, "holder", holder)
	}
	return balance, nil
}

func (r *Repository) ApproveTransaction(ctx context.Context, req ports.ApproveRequest) (ports.ApprovalResult, error) {
	var result ports.ApprovalResult
	var fundsErr error
	at := req.At.UTC()
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx, err := lockTransaction(db, req.TransactionID)
		if err != nil {
			return err
		}
		if !tx.Status.Open() {
			return domainerrors.ErrInvalidState
		}
		approval := approvalModel{TransactionID: tx.TransactionID, Approver: req.Approver, ApprovedAt: at}
		if err := db.Create(&approval).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateApproval
			}
			return err
		}
		reached, err := services.ApplyApproval(&tx, at)
		if err != nil {
			return err
		}
		result.Approval = entities.Approval{TransactionID: tx.TransactionID, Approver: req.Approver, ApprovedAt: at}

		if reached {
			debited, err := debit(db, tx.Token, req.TreasuryAddress, tx.Amount, at)
			if err != nil {
				return err
			}
			if !debited {
				fundsErr = domainerrors.ErrInsufficientFunds
				services.MarkFailed(&tx, fundsErr.Error(), at)
			} else {
				if err := credit(db, tx.Token, tx.Recipient, tx.Amount, at); err != nil {
					return err
				}
				services.MarkExecuted(&tx, at)
				result.Executed = true
			}
			if err := db.Model(&approvalModel{}).
				Where("transaction_id = ?", tx.TransactionID).
				Order("approved_at ASC").
				Pluck("approver", &result.Approvers).Error; err != nil {
				return err
			}
		}

		row := transactionModelFromEntity(tx)
		if err := db.Model(&transactionModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"status":            row.Status,
				"current_approvals": row.CurrentApprovals,
				"failure_reason":    row.FailureReason,
				"executed_at":       row.ExecutedAt,
				"updated_at":        row.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		result.Transaction = tx
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return ports.ApprovalResult{}, err
		}
		return ports.ApprovalResult{}, r.logError("treasury_repo_approve_failed", err,
			"transaction_id", req.TransactionID,
			"approver", req.Approver,
		)
	}
	return result, fundsErr
}

func (r *Repository) RejectTransaction(ctx context.Context, transactionID string, actor string, at time.Time) (entities.Transaction, error) {
	var rejected entities.Transaction
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx, err := lockTransaction(db, transactionID)
		if err != nil {
			return err
		}
		if !tx.Status.Open() {
			return domainerrors.ErrInvalidState
		}
		tx.Status = entities.TransactionStatusRejected
		tx.RejectedBy = actor
		tx.UpdatedAt = at.UTC()
		if err := db.Model(&transactionModel{}).
			Where("id = ?", tx.TransactionID).
			Updates(map[string]any{
				"status":      string(tx.Status),
				"rejected_by": tx.RejectedBy,
				"updated_at":  tx.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		rejected = tx
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Transaction{}, err
		}
		return entities.Transaction{}, r.logError("treasury_repo_reject_failed", err, "transaction_id", transactionID)
	}
	return rejected, nil
}

func lockTransaction(db *gorm.DB, transactionID string) (entities.Transaction, error) {
	var row transactionModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(transactionID)).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, err
	}
	return row.toEntity(), nil
}

// debit only applies when the holder can cover the amount; it reports false
// and leaves the row untouched otherwise.
func debit(db *gorm.DB, token string, holder string, amount int64, at time.Time) (bool, error) {
	res := db.Model(&balanceModel{}).
		Where("token = ? AND holder = ? AND amount >= ?", token, holder, amount).
		Updates(map[string]any{
			"amount":     gorm.Expr("amount - ?", amount),
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func credit(db *gorm.DB, token string, holder string, amount int64, at time.Time) error {
	row := balanceModel{Token: token, Holder: holder, Amount: amount, UpdatedAt: at.UTC()}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}, {Name: "holder"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     gorm.Expr("token_balances.amount + ?", amount),
			"updated_at": at.UTC(),
		}),
	}).Create(&row).Error
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrTransactionNotFound) ||
		errors.Is(err, domainerrors.ErrInvalidState) ||
		errors.Is(err, domainerrors.ErrDuplicateApproval) ||
		errors.Is(err, domainerrors.ErrValidation)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "treasury/treasury-approval",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("treasury repository operation failed", fields...)
	return err
}

type transactionModel struct {
	ID                string            `gorm:"column:id;primaryKey"`
	Description       string            `gorm:"column:description"`
	Recipient         string            `gorm:"column:recipient"`
	Token             string            `gorm:"column:token"`
	Amount            int64             `gorm:"column:amount"`
	Status            string            `gorm:"column:status;index"`
	RequiredApprovals int               `gorm:"column:required_approvals"`
	CurrentApprovals  int               `gorm:"column:current_approvals"`
	RelatedProposal   string            `gorm:"column:related_proposal;uniqueIndex:idx_treasury_tx_related_proposal,where:related_proposal <> ''"`
	ProposedBy        string            `gorm:"column:proposed_by"`
	FailureReason     string            `gorm:"column:failure_reason"`
	RejectedBy        string            `gorm:"column:rejected_by"`
	Metadata          datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt         time.Time         `gorm:"column:created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at"`
	ExecutedAt        *time.Time        `gorm:"column:executed_at"`
}

func (transactionModel) TableName() string {
	return "treasury_transactions"
}

type approvalModel struct {
	TransactionID string    `gorm:"column:transaction_id;primaryKey"`
	Approver      string    `gorm:"column:approver;primaryKey"`
	ApprovedAt    time.Time `gorm:"column:approved_at"`
}

func (approvalModel) TableName() string {
	return "treasury_approvals"
}

type balanceModel struct {
	Token     string    `gorm:"column:token;primaryKey"`
	Holder    string    `gorm:"column:holder;primaryKey"`
	Amount    int64     `gorm:"column:amount;check:amount >= 0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (balanceModel) TableName() string {
	return "token_balances"
}

func (m balanceModel) toEntity() entities.Balance {
	return entities.Balance{Token: m.Token, Holder: m.Holder, Amount: m.Amount, UpdatedAt: m.UpdatedAt.UTC()}
}

func transactionModelFromEntity(tx entities.Transaction) transactionModel {
	row := transactionModel{
		ID:                strings.TrimSpace(tx.TransactionID),
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
		Metadata:          datatypes.JSONMap(tx.Metadata),
		CreatedAt:         tx.CreatedAt.UTC(),
		UpdatedAt:         tx.UpdatedAt.UTC(),
	}
	if tx.ExecutedAt != nil {
		executedAt := tx.ExecutedAt.UTC()
		row.ExecutedAt = &executedAt
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m transactionModel) toEntity() entities.Transaction {
	tx := entities.Transaction{
		TransactionID:     m.ID,
		Description:       m.Description,
		Recipient:         m.Recipient,
		Token:             m.Token,
		Amount:            m.Amount,
		Status:            entities.TransactionStatus(m.Status),
		RequiredApprovals: m.RequiredApprovals,
		CurrentApprovals:  m.CurrentApprovals,
		RelatedProposal:   m.RelatedProposal,
		ProposedBy:        m.ProposedBy,
		FailureReason:     m.FailureReason,
		RejectedBy:        m.RejectedBy,
		Metadata:          map[string]any(m.Metadata),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.ExecutedAt != nil {
		executedAt := m.ExecutedAt.UTC()
		tx.ExecutedAt = &executedAt
	}
	return tx
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// relatedProposalIndex allows one transaction per proposal; rows without a
// proposal are not constrained.
const relatedProposalIndex = "idx_treasury_tx_related_proposal"

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

var _ ports.Repository = (*Repository)(nil)
