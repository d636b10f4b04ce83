package postgresadapter

import (
	"context"
	"testing"
	"time"

	"atomsi/contexts/identity-access/member-registry/domain/entities"
	domainerrors "atomsi/contexts/identity-access/member-registry/domain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return NewRepository(db, nil), mock
}

func memberColumns() []string {
	return []string{"address", "name", "role", "status", "reputation", "metadata", "joined_at", "updated_at", "last_active_at"}
}

func TestGetMemberMapsMissingRowToNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE address = \$1`).
		WillReturnRows(sqlmock.NewRows(memberColumns()))

	_, err := repo.GetMember(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, domainerrors.ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMemberMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO "members"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.CreateMember(context.Background(), entities.Member{
		Address: "0xabc",
		Role:    entities.RoleMember,
		Status:  entities.StatusActive,
	})
	assert.ErrorIs(t, err, domainerrors.ErrMemberExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyReputationDeltaLocksAndFloorsAtZero(t *testing.T) {
	repo, mock := newMockRepository(t)
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := joined.Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE address = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(memberColumns()).
			AddRow("0xabc", "alice", "member", "active", 3, []byte(`{}`), joined, joined, nil))
	mock.ExpectExec(`UPDATE "members" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	member, err := repo.ApplyReputationDelta(context.Background(), "0xabc", -10, at)
	require.NoError(t, err)
	assert.Equal(t, int64(0), member.Reputation)
	require.NotNil(t, member.LastActiveAt)
	assert.True(t, member.LastActiveAt.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
