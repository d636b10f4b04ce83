package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
	domainerrors "atomsi/contexts/community-experience/reputation-ledger/domain/errors"
	"atomsi/contexts/community-experience/reputation-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
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
	return []any{&activityModel{}}
}

func (r *Repository) RecordActivity(ctx context.Context, activity entities.Activity) error {
	row := activityModelFromEntity(activity)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateActivity
		}
		return r.logError("activity_repo_create_failed", err, "activity_id", row.ID)
	}
	return nil
}

func (r *Repository) GetActivity(ctx context.Context, activityID string) (entities.Activity, error) {
	var row activityModel
	if err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(activityID)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Activity{}, domainerrors.ErrActivityNotFound
		}
		return entities.Activity{}, r.logError("activity_repo_get_failed", err, "activity_id", activityID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListActivities(ctx context.Context, filter ports.ActivityFilter) ([]entities.Activity, error) {
	tx := r.db.WithContext(ctx).Model(&activityModel{})
	if filter.MemberAddress != "" {
		tx = tx.Where("member_address = ?", filter.MemberAddress)
	}
	if filter.Type != "" {
		tx = tx.Where("activity_type = ?", string(filter.Type))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var rows []activityModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("activity_repo_list_failed", err, "member_address", filter.MemberAddress)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListPending(ctx context.Context, limit int) ([]entities.Activity, error) {
	tx := r.db.WithContext(ctx).
		Where("apply_status = ?", string(entities.ApplyStatusPending)).
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []activityModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("activity_repo_list_pending_failed", err)
	}
	return toEntities(rows), nil
}

func (r *Repository) MarkApplyResult(
	ctx context.Context,
	activityID string,
	status entities.ApplyStatus,
	lastError string,
	at time.Time,
) (entities.Activity, error) {
	updates := map[string]any{
		"apply_status": string(status),
		"attempts":     gorm.Expr("attempts + 1"),
		"last_error":   lastError,
	}
	if status == entities.ApplyStatusApplied {
		updates["applied_at"] = at.UTC()
	}
	res := r.db.WithContext(ctx).Model(&activityModel{}).Where("id = ?", activityID).Updates(updates)
	if res.Error != nil {
		return entities.Activity{}, r.logError("activity_repo_mark_failed", res.Error, "activity_id", activityID)
	}
	if res.RowsAffected == 0 {
		return entities.Activity{}, domainerrors.ErrActivityNotFound
	}
	return r.GetActivity(ctx, activityID)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-experience/reputation-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("activity repository operation failed", fields...)
	return err
}

// The unique index on (member_address, activity_type, related_id) makes
// replayed events idempotent.
type activityModel struct {
	ID               string            `gorm:"column:id;primaryKey"`
	MemberAddress    string            `gorm:"column:member_address;uniqueIndex:idx_activity_key,priority:1"`
	ActivityType     string            `gorm:"column:activity_type;uniqueIndex:idx_activity_key,priority:2"`
	RelatedID        string            `gorm:"column:related_id;uniqueIndex:idx_activity_key,priority:3"`
	ReputationChange int64             `gorm:"column:reputation_change"`
	ApplyStatus      string            `gorm:"column:apply_status;index"`
	Attempts         int               `gorm:"column:attempts"`
	LastError        string            `gorm:"column:last_error"`
	Description      string            `gorm:"column:description"`
	Metadata         datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt        time.Time         `gorm:"column:created_at;index"`
	AppliedAt        *time.Time        `gorm:"column:applied_at"`
}

func (activityModel) TableName() string {
	return "member_activities"
}

func activityModelFromEntity(activity entities.Activity) activityModel {
	row := activityModel{
		ID:               activity.ActivityID,
		MemberAddress:    activity.MemberAddress,
		ActivityType:     string(activity.Type),
		RelatedID:        activity.RelatedID,
		ReputationChange: activity.ReputationChange,
		ApplyStatus:      string(activity.ApplyStatus),
		Attempts:         activity.Attempts,
		LastError:        activity.LastError,
		Description:      activity.Description,
		Metadata:         datatypes.JSONMap(activity.Metadata),
		CreatedAt:        activity.CreatedAt.UTC(),
	}
	if activity.AppliedAt != nil {
		appliedAt := activity.AppliedAt.UTC()
		row.AppliedAt = &appliedAt
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m activityModel) toEntity() entities.Activity {
	activity := entities.Activity{
		ActivityID:       m.ID,
		MemberAddress:    m.MemberAddress,
		Type:             entities.ActivityType(m.ActivityType),
		RelatedID:        m.RelatedID,
		ReputationChange: m.ReputationChange,
		ApplyStatus:      entities.ApplyStatus(m.ApplyStatus),
		Attempts:         m.Attempts,
		LastError:        m.LastError,
		Description:      m.Description,
		Metadata:         map[string]any(m.Metadata),
		CreatedAt:        m.CreatedAt.UTC(),
	}
	if m.AppliedAt != nil {
		appliedAt := m.AppliedAt.UTC()
		activity.AppliedAt = &appliedAt
	}
	return activity
}

func toEntities(rows []activityModel) []entities.Activity {
	items := make([]entities.Activity, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
