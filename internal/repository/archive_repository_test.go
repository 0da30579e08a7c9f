package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchiveMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func archiveQuery(table string) string {
	return regexp.QuoteMeta("UPDATE " + table + " SET is_archived = TRUE, updated_at = $2 WHERE academic_period_id = $1 AND is_archived = FALSE")
}

func TestArchiveRepositoryCollectionNames(t *testing.T) {
	repo := NewArchiveRepository(nil)
	assert.Equal(t, []string{"events", "students", "staff_faculty", "community_members"}, repo.CollectionNames())
}

func TestArchiveRepositoryArchiveByPeriod(t *testing.T) {
	db, mock, cleanup := newArchiveMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectExec(archiveQuery("events")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(archiveQuery("students")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 40))
	mock.ExpectExec(archiveQuery("staff_faculty")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(archiveQuery("community_members")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 7))

	results, err := repo.ArchiveByPeriod(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 40, results["students"].Archived)
	assert.Equal(t, 3, results["events"].Archived)
	assert.Zero(t, results["students"].Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryArchiveByPeriodContinuesOnFailure(t *testing.T) {
	db, mock, cleanup := newArchiveMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectExec(archiveQuery("events")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnError(sql.ErrConnDone)
	mock.ExpectExec(archiveQuery("students")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 40))
	mock.ExpectExec(archiveQuery("staff_faculty")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(archiveQuery("community_members")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 7))

	results, err := repo.ArchiveByPeriod(context.Background(), "p-1")
	require.NoError(t, err)

	// The failing collection is reported, the rest still ran.
	assert.Equal(t, 1, results["events"].Failed)
	assert.NotEmpty(t, results["events"].Errors)
	assert.Equal(t, 40, results["students"].Archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryArchiveByPeriodIsIdempotent(t *testing.T) {
	db, mock, cleanup := newArchiveMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	// Everything already archived: the WHERE clause matches nothing.
	for _, table := range []string{"events", "students", "staff_faculty", "community_members"} {
		mock.ExpectExec(archiveQuery(table)).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	results, err := repo.ArchiveByPeriod(context.Background(), "p-1")
	require.NoError(t, err)
	for name, result := range results {
		assert.Zero(t, result.Archived, "collection %s", name)
		assert.Zero(t, result.Failed, "collection %s", name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryArchiveByPeriodAtomic(t *testing.T) {
	t.Run("commits when every collection succeeds", func(t *testing.T) {
		db, mock, cleanup := newArchiveMock(t)
		defer cleanup()
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		for _, table := range []string{"events", "students", "staff_faculty", "community_members"} {
			mock.ExpectExec(archiveQuery(table)).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 5))
		}
		mock.ExpectCommit()

		results, err := repo.ArchiveByPeriodAtomic(context.Background(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, 5, results["students"].Archived)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on any failure", func(t *testing.T) {
		db, mock, cleanup := newArchiveMock(t)
		defer cleanup()
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(archiveQuery("events")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectExec(archiveQuery("students")).WithArgs("p-1", sqlmock.AnyArg()).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := repo.ArchiveByPeriodAtomic(context.Background(), "p-1")
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
