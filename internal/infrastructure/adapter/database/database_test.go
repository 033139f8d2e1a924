package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/testutil"
)

func newTestUnitOfWork(t *testing.T) (*UnitOfWork, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return NewUnitOfWork(db, testutil.QuietLogger(t), testutil.NewClock(time.Now())), mock
}

func TestUnitOfWork_WithinTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		uow, mock := newTestUnitOfWork(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		var joined bool
		err := persistence.WithinTx(context.Background(), uow, func(txCtx context.Context) error {
			joined = uow.InTransaction(txCtx)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, joined)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		uow, mock := newTestUnitOfWork(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := persistence.WithinTx(context.Background(), uow, func(context.Context) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call joins the open transaction", func(t *testing.T) {
		uow, mock := newTestUnitOfWork(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := persistence.WithinTx(context.Background(), uow, func(txCtx context.Context) error {
			return persistence.WithinTx(txCtx, uow, func(inner context.Context) error {
				assert.Equal(t, txCtx, inner)
				return nil
			})
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow, _ := newTestUnitOfWork(t)

	assert.False(t, uow.InTransaction(context.Background()))
	assert.Error(t, uow.Commit(context.Background()))
	assert.Error(t, uow.Rollback(context.Background()))
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: 5432, Username: "cf", Password: "pw", Database: "clipforge", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=cf password=pw dbname=clipforge sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://cf:pw@db:5432/clipforge"
	assert.Equal(t, cfg.URL, cfg.DSN())
}

func TestConfig_Validate(t *testing.T) {
	base := Config{MaxOpenConns: 10, MaxIdleConns: 5}

	withURL := base
	withURL.URL = "postgres://u:p@localhost/db"
	assert.NoError(t, withURL.Validate())

	badURL := base
	badURL.URL = "mysql://u:p@localhost/db"
	assert.Error(t, badURL.Validate())

	missingHost := base
	missingHost.Port = 5432
	assert.Error(t, missingHost.Validate())

	fields := base
	fields.Host, fields.Port, fields.Username, fields.Database, fields.SSLMode = "localhost", 5432, "u", "db", "disable"
	assert.NoError(t, fields.Validate())
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, 6543, ParsePort("6543"))
	assert.Equal(t, 5432, ParsePort(""))
	assert.Equal(t, 5432, ParsePort("abc"))
}

func TestExtractQueryMetadata(t *testing.T) {
	assert.Equal(t, "SELECT", extractQueryType(` select * from "users"`))
	assert.Equal(t, "users", extractTableName(`SELECT * FROM "users" WHERE id = $1`))
	assert.Equal(t, "credit_entries", extractTableName(`INSERT INTO "credit_entries" ("id") VALUES ($1)`))
	assert.Equal(t, "videos", extractTableName(`UPDATE "videos" SET "status"=$1`))
	assert.Equal(t, "", extractTableName(`BEGIN`))
}
