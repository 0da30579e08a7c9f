package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadconnect/gadconnect-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_number", "full_name", "gender", "birth_date", "program", "year_level", "academic_period_id", "is_archived", "created_by", "created_at", "updated_at"})
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	t.Run("default excludes archived", func(t *testing.T) {
		rows := studentRows().
			AddRow("s-1", "2025-00123", "Ana Cruz", "FEMALE", time.Now(), "BS Social Work", 2, "p-1", false, "u-1", time.Now(), time.Now())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT "+studentColumns+" FROM students WHERE 1=1 AND is_archived = FALSE ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
			WillReturnRows(rows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND is_archived = FALSE")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		students, total, err := repo.List(context.Background(), models.StudentFilter{})
		require.NoError(t, err)
		assert.Len(t, students, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("includeArchived drops the filter", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT "+studentColumns+" FROM students WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
			WillReturnRows(studentRows())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, _, err := repo.List(context.Background(), models.StudentFilter{IncludeArchived: true})
		require.NoError(t, err)
	})

	t.Run("search and period filters", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("(LOWER(full_name) LIKE $1 OR student_number LIKE $1)")).
			WithArgs("%ana%", "p-1").
			WillReturnRows(studentRows())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
			WithArgs("%ana%", "p-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, _, err := repo.List(context.Background(), models.StudentFilter{Search: "Ana", PeriodID: "p-1"})
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByStudentNumber(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	t.Run("exists", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE student_number = $1 AND academic_period_id = $2 LIMIT 1")).
			WithArgs("2025-00123", "p-1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		exists, err := repo.ExistsByStudentNumber(context.Background(), "2025-00123", "p-1", "")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students")).
			WithArgs("2025-00999", "p-1").
			WillReturnError(sql.ErrNoRows)

		exists, err := repo.ExistsByStudentNumber(context.Background(), "2025-00999", "p-1", "")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("excludes the record being updated", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("AND id <> $3 LIMIT 1")).
			WithArgs("2025-00123", "p-1", "s-1").
			WillReturnError(sql.ErrNoRows)

		exists, err := repo.ExistsByStudentNumber(context.Background(), "2025-00123", "p-1", "s-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		StudentNumber:    "2025-00123",
		FullName:         "Ana Cruz",
		Gender:           "FEMALE",
		BirthDate:        time.Now(),
		Program:          "BS Social Work",
		YearLevel:        2,
		AcademicPeriodID: "p-1",
		CreatedBy:        "u-1",
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryArchive(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET is_archived = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("s-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Archive(context.Background(), "s-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountByGender(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT gender, COUNT(*) AS total FROM students WHERE academic_period_id = $1 AND is_archived = FALSE GROUP BY gender")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"gender", "total"}).
			AddRow("FEMALE", 30).
			AddRow("MALE", 20))

	counts, err := repo.CountByGender(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"FEMALE": 30, "MALE": 20}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
