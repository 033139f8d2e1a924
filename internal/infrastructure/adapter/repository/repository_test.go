package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "business_name",
	"credits_balance", "location_id", "auth_type", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepository_AdjustCredits(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("applies delta and returns fresh row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, testutil.NewClock(now), testutil.QuietLogger(t))

		mock.ExpectExec(`UPDATE "users" SET "credits_balance"=credits_balance \+ \$1`).
			WithArgs(int64(-5), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(-5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(userID.String(), "alice", "alice@example.com", "hash", "", int64(15), nil, "password", now, now))

		user, err := repo.AdjustCredits(ctx, userID, -5)

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, int64(15), user.Credits())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses to go below zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, testutil.NewClock(now), testutil.QuietLogger(t))

		mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		_, err := repo.AdjustCredits(ctx, userID, -500)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrInsufficientCredits))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, testutil.NewClock(now), testutil.QuietLogger(t))

		mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, err := repo.AdjustCredits(ctx, userID, 10)

		assert.ErrorIs(t, err, errs.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, testutil.NewClock(time.Now()), testutil.QuietLogger(t))

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditEntryRepository_Append(t *testing.T) {
	ctx := context.Background()
	entry := &entity.CreditEntry{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Amount:    -10,
		Kind:      entity.CreditKindUsage,
		Reference: "video:abc:usage",
		CreatedAt: time.Now().UTC(),
	}

	t.Run("inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditEntryRepository(db, testutil.QuietLogger(t))

		mock.ExpectExec(`INSERT INTO "credit_entries" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Append(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing reference is reported as duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditEntryRepository(db, testutil.QuietLogger(t))

		mock.ExpectExec(`INSERT INTO "credit_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Append(ctx, entry)

		assert.ErrorIs(t, err, errs.ErrDuplicateLedgerEntry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditEntryRepository_SumByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditEntryRepository(db, testutil.QuietLogger(t))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "credit_entries" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(42)))

	total, err := repo.SumByUser(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVideoRepository(db, testutil.NewClock(time.Now()), testutil.QuietLogger(t))

	mock.ExpectExec(`DELETE FROM "videos" WHERE id = \$1 AND user_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, errs.ErrVideoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorClassifier(t *testing.T) {
	c := NewErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, DuplicateKeyError},
		{"translated duplicate", gorm.ErrDuplicatedKey, DuplicateKeyError},
		{"check violation", &pgconn.PgError{Code: "23514"}, ConstraintError},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, LockError},
		{"connection reset", errors.New("read: connection reset by peer"), TransientError},
		{"other", errors.New("syntax error"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestErrorClassifier_MapError(t *testing.T) {
	c := NewErrorClassifier()

	assert.NoError(t, c.MapError(nil, errs.ErrUserNotFound, nil))
	assert.ErrorIs(t, c.MapError(gorm.ErrRecordNotFound, errs.ErrVideoNotFound, nil), errs.ErrVideoNotFound)
	assert.ErrorIs(t, c.MapError(&pgconn.PgError{Code: "23505"}, errs.ErrUserNotFound, errs.ErrDuplicateUser), errs.ErrDuplicateUser)
	assert.ErrorIs(t, c.MapError(&pgconn.PgError{Code: "23505"}, errs.ErrUserNotFound, nil), errs.ErrConstraintViolation)
	assert.ErrorIs(t, c.MapError(errors.New("dial tcp: connection refused"), errs.ErrUserNotFound, nil), errs.ErrDatabaseConnection)
	assert.ErrorIs(t, c.MapError(errors.New("boom"), errs.ErrUserNotFound, nil), errs.ErrInternalServer)
}
