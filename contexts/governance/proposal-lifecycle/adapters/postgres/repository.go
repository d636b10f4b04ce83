package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atomsi/contexts/governance/proposal-lifecycle/domain/entities"
	domainerrors "atomsi/contexts/governance/proposal-lifecycle/domain/errors"
	"atomsi/contexts/governance/proposal-lifecycle/ports"

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
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Models lists the tables this repository owns, for migrations.
func Models() []any {
	return []any{&proposalModel{}, &voteModel{}}
}

func (r *Repository) CreateProposal(ctx context.Context, proposal entities.Proposal) error {
	row := proposalModelFromEntity(proposal)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrValidation
		}
		return r.logError("proposal_repo_create_failed", err, "proposal_id", row.ID)
	}
	return nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(proposalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("proposal_repo_get_failed", err, "proposal_id", strings.TrimSpace(proposalID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	tx := r.db.WithContext(ctx).Model(&proposalModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if strings.TrimSpace(filter.Proposer) != "" {
		tx = tx.Where("proposer = ?", strings.TrimSpace(filter.Proposer))
	}
	var rows []proposalModel
	if err := tx.Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_failed", err, "status", string(filter.Status))
	}
	return toProposalEntities(rows), nil
}

func (r *Repository) ListVotes(ctx context.Context, proposalID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_votes_failed", err, "proposal_id", strings.TrimSpace(proposalID))
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListDueProposals(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	tx := r.db.WithContext(ctx).
		Where("status = ?", string(entities.ProposalStatusActive)).
		Where("voting_ends_at <= ?", now.UTC()).
		Order("voting_ends_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []proposalModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_due_failed", err)
	}
	return toProposalEntities(rows), nil
}

func (r *Repository) UpdateProposal(
	ctx context.Context,
	proposalID string,
	mutate func(proposal *entities.Proposal) error,
) (entities.Proposal, error) {
	var updated entities.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := lockProposal(tx, proposalID)
		if err != nil {
			return err
		}
		if err := mutate(&proposal); err != nil {
			return err
		}
		row := proposalModelFromEntity(proposal)
		if err := tx.Model(&proposalModel{}).
			Where("id = ?", row.ID).
			Updates(proposalUpdates(row)).
			Error; err != nil {
			return err
		}
		updated = proposal
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Proposal{}, err
		}
		return entities.Proposal{}, r.logError("proposal_repo_update_failed", err, "proposal_id", strings.TrimSpace(proposalID))
	}
	return updated, nil
}

func (r *Repository) RecordVote(
	ctx context.Context,
	vote entities.Vote,
	check func(proposal entities.Proposal) error,
) (entities.Proposal, error) {
	var updated entities.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := lockProposal(tx, vote.ProposalID)
		if err != nil {
			return err
		}
		if err := check(proposal); err != nil {
			return err
		}
		row := voteModelFromEntity(vote)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateVote
			}
			return err
		}
		proposal.Tally.Add(vote.Choice, vote.Weight)
		proposal.UpdatedAt = vote.CastAt.UTC()
		if err := tx.Model(&proposalModel{}).
			Where("id = ?", proposal.ProposalID).
			Updates(map[string]any{
				"yes_votes":     proposal.Tally.Yes,
				"no_votes":      proposal.Tally.No,
				"abstain_votes": proposal.Tally.Abstain,
				"updated_at":    proposal.UpdatedAt,
			}).
			Error; err != nil {
			return err
		}
		updated = proposal
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Proposal{}, err
		}
		return entities.Proposal{}, r.logError("proposal_repo_record_vote_failed", err,
			"proposal_id", vote.ProposalID,
			"voter", vote.Voter,
		)
	}
	return updated, nil
}

func lockProposal(tx *gorm.DB, proposalID string) (entities.Proposal, error) {
	var row proposalModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(proposalID)).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, err
	}
	return row.toEntity(), nil
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrProposalNotFound) ||
		errors.Is(err, domainerrors.ErrInvalidState) ||
		errors.Is(err, domainerrors.ErrDuplicateVote) ||
		errors.Is(err, domainerrors.ErrForbidden) ||
		errors.Is(err, domainerrors.ErrValidation) ||
		errors.Is(err, domainerrors.ErrExecution)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/proposal-lifecycle",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("proposal repository operation failed", fields...)
	return err
}

type proposalModel struct {
	ID             string            `gorm:"column:id;primaryKey"`
	Title          string            `gorm:"column:title"`
	Description    string            `gorm:"column:description"`
	Proposer       string            `gorm:"column:proposer;index"`
	ProposalType   string            `gorm:"column:proposal_type"`
	Status         string            `gorm:"column:status;index"`
	YesVotes       int64             `gorm:"column:yes_votes"`
	NoVotes        int64             `gorm:"column:no_votes"`
	AbstainVotes   int64             `gorm:"column:abstain_votes"`
	PayloadKind    *string           `gorm:"column:payload_kind"`
	PayloadData    datatypes.JSONMap `gorm:"column:payload_data"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata"`
	VotingStartsAt time.Time         `gorm:"column:voting_starts_at"`
	VotingEndsAt   time.Time         `gorm:"column:voting_ends_at;index"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
	FinalizedAt    *time.Time        `gorm:"column:finalized_at"`
	ExecutedAt     *time.Time        `gorm:"column:executed_at"`
}

func (proposalModel) TableName() string {
	return "proposals"
}

// voteModel's composite primary key enforces one vote per member per proposal.
type voteModel struct {
	ProposalID string    `gorm:"column:proposal_id;primaryKey"`
	Voter      string    `gorm:"column:voter;primaryKey"`
	Choice     string    `gorm:"column:choice"`
	Weight     int64     `gorm:"column:weight"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "proposal_votes"
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	row := proposalModel{
		ID:             strings.TrimSpace(proposal.ProposalID),
		Title:          proposal.Title,
		Description:    proposal.Description,
		Proposer:       strings.TrimSpace(proposal.Proposer),
		ProposalType:   string(proposal.Type),
		Status:         string(proposal.Status),
		YesVotes:       proposal.Tally.Yes,
		NoVotes:        proposal.Tally.No,
		AbstainVotes:   proposal.Tally.Abstain,
		Metadata:       datatypes.JSONMap(proposal.Metadata),
		VotingStartsAt: proposal.VotingStartsAt.UTC(),
		VotingEndsAt:   proposal.VotingEndsAt.UTC(),
		CreatedAt:      proposal.CreatedAt.UTC(),
		UpdatedAt:      proposal.UpdatedAt.UTC(),
		FinalizedAt:    normalizeOptionalTime(proposal.FinalizedAt),
		ExecutedAt:     normalizeOptionalTime(proposal.ExecutedAt),
	}
	if proposal.Payload != nil {
		kind := proposal.Payload.Kind
		row.PayloadKind = &kind
		row.PayloadData = datatypes.JSONMap(proposal.Payload.Data)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func proposalUpdates(row proposalModel) map[string]any {
	return map[string]any{
		"status":           row.Status,
		"yes_votes":        row.YesVotes,
		"no_votes":         row.NoVotes,
		"abstain_votes":    row.AbstainVotes,
		"voting_starts_at": row.VotingStartsAt,
		"voting_ends_at":   row.VotingEndsAt,
		"updated_at":       row.UpdatedAt,
		"finalized_at":     row.FinalizedAt,
		"executed_at":      row.ExecutedAt,
	}
}

func (m proposalModel) toEntity() entities.Proposal {
	proposal := entities.Proposal{
		ProposalID:  m.ID,
		Title:       m.Title,
		Description: m.Description,
		Proposer:    m.Proposer,
		Type:        entities.ProposalType(m.ProposalType),
		Status:      entities.ProposalStatus(m.Status),
		Tally: entities.Tally{
			Yes:     m.YesVotes,
			No:      m.NoVotes,
			Abstain: m.AbstainVotes,
		},
		Metadata:       map[string]any(m.Metadata),
		VotingStartsAt: m.VotingStartsAt.UTC(),
		VotingEndsAt:   m.VotingEndsAt.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
		FinalizedAt:    normalizeOptionalTime(m.FinalizedAt),
		ExecutedAt:     normalizeOptionalTime(m.ExecutedAt),
	}
	if m.PayloadKind != nil {
		proposal.Payload = &entities.ExecutionPayload{
			Kind: *m.PayloadKind,
			Data: map[string]any(m.PayloadData),
		}
	}
	return proposal
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ProposalID: strings.TrimSpace(vote.ProposalID),
		Voter:      strings.TrimSpace(vote.Voter),
		Choice:     string(vote.Choice),
		Weight:     vote.Weight,
		CastAt:     vote.CastAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		ProposalID: m.ProposalID,
		Voter:      m.Voter,
		Choice:     entities.VoteChoice(m.Choice),
		Weight:     m.Weight,
		CastAt:     m.CastAt.UTC(),
	}
}

func toProposalEntities(rows []proposalModel) []entities.Proposal {
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
