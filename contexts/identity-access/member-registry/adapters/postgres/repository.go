package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"
	"atomsi/contexts/identity-access/member-registry/ports"

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
	return []any{&memberModel{}}
}

func (r *Repository) CreateMember(ctx context.Context, member entities.Member) error {
	row := memberModelFromEntity(member)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrMemberExists
		}
		return r.logError("member_repo_create_failed", err, "member_address", row.Address)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, address string) (entities.Member, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("address = ?", strings.TrimSpace(address)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, domainerrors.ErrMemberNotFound
		}
		return entities.Member{}, r.logError("member_repo_get_failed", err, "member_address", strings.TrimSpace(address))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateMember(ctx context.Context, member entities.Member) error {
	row := memberModelFromEntity(member)
	result := r.db.WithContext(ctx).
		Model(&memberModel{}).
		Where("address = ?", row.Address).
		Updates(map[string]any{
			"name":       row.Name,
			"role":       row.Role,
			"status":     row.Status,
			"metadata":   row.Metadata,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("member_repo_update_failed", result.Error, "member_address", row.Address)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMemberNotFound
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, filter ports.MemberFilter) ([]entities.Member, error) {
	tx := r.db.WithContext(ctx).Model(&memberModel{})
	if filter.Role != "" {
		tx = tx.Where("role = ?", string(filter.Role))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	var rows []memberModel
	if err := tx.Order("joined_at ASC").Order("address ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("member_repo_list_failed", err,
			"role", string(filter.Role),
			"status", string(filter.Status),
		)
	}
	items := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ApplyReputationDelta(
	ctx context.Context,
	address string,
	delta int64,
	at time.Time,
) (entities.Member, error) {
	var member entities.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row memberModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", strings.TrimSpace(address)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrMemberNotFound
			}
			return err
		}
		member = row.toEntity()
		member.ApplyReputation(delta, at)
		return tx.Model(&memberModel{}).
			Where("address = ?", member.Address).
			Updates(map[string]any{
				"reputation":     member.Reputation,
				"last_active_at": member.LastActiveAt,
				"updated_at":     member.UpdatedAt,
			}).
			Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrMemberNotFound) {
			return entities.Member{}, err
		}
		return entities.Member{}, r.logError("member_repo_apply_reputation_failed", err,
			"member_address", strings.TrimSpace(address),
			"delta", delta,
		)
	}
	return member, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/member-registry",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("member repository operation failed", fields...)
	return err
}

type memberModel struct {
	Address      string            `gorm:"column:address;primaryKey"`
	Name         string            `gorm:"column:name"`
	Role         string            `gorm:"column:role;index"`
	Status       string            `gorm:"column:status;index"`
	Reputation   int64             `gorm:"column:reputation;not null"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata"`
	JoinedAt     time.Time         `gorm:"column:joined_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at"`
	LastActiveAt *time.Time        `gorm:"column:last_active_at"`
}

func (memberModel) TableName() string {
	return "members"
}

func memberModelFromEntity(member entities.Member) memberModel {
	row := memberModel{
		Address:      strings.TrimSpace(member.Address),
		Name:         strings.TrimSpace(member.Name),
		Role:         string(member.Role),
		Status:       string(member.Status),
		Reputation:   member.Reputation,
		Metadata:     datatypes.JSONMap(member.Metadata),
		JoinedAt:     member.JoinedAt.UTC(),
		UpdatedAt:    member.UpdatedAt.UTC(),
		LastActiveAt: normalizeOptionalTime(member.LastActiveAt),
	}
	if row.JoinedAt.IsZero() {
		row.JoinedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.JoinedAt
	}
	return row
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		Address:      m.Address,
		Name:         m.Name,
		Role:         entities.Role(m.Role),
		Status:       entities.Status(m.Status),
		Reputation:   m.Reputation,
		Metadata:     map[string]any(m.Metadata),
		JoinedAt:     m.JoinedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		LastActiveAt: normalizeOptionalTime(m.LastActiveAt),
	}
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
