package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gadconnect/gadconnect-api/internal/models"
)

const periodColumns = "id, school_year, period_type, start_date, end_date, is_active, created_by, created_at, updated_at, archived_at"

// PeriodRepository handles persistence for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns periods matching provided filters with a total count.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error) {
	base := "FROM academic_periods WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.PeriodType != "" {
		conditions = append(conditions, fmt.Sprintf("period_type = $%d", len(args)+1))
		args = append(args, filter.PeriodType)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"school_year": true,
		"start_date":  true,
		"end_date":    true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", periodColumns, base, sortBy, order, size, offset)

	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list periods: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count periods: %w", err)
	}

	return periods, total, nil
}

// FindByID loads a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods WHERE id = $1", periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindActive returns the currently active period.
func (r *PeriodRepository) FindActive(ctx context.Context) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods WHERE is_active = TRUE LIMIT 1", periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindBySchoolYear returns every period recorded for the given school year.
func (r *PeriodRepository) FindBySchoolYear(ctx context.Context, schoolYear string) ([]models.AcademicPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_periods WHERE school_year = $1 ORDER BY start_date", periodColumns)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query, schoolYear); err != nil {
		return nil, fmt.Errorf("find periods by school year: %w", err)
	}
	return periods, nil
}

// Create inserts a new period record.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO academic_periods (id, school_year, period_type, start_date, end_date, is_active, created_by, created_at, updated_at)
VALUES (:id, :school_year, :period_type, :start_date, :end_date, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// Update modifies an existing period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.AcademicPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_periods SET school_year = :school_year, period_type = :period_type, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

// Activate marks the provided period as active and, in the same transaction,
// deactivates any other active period stamping its archived_at. This is what
// keeps the single-active-period invariant even when two transitions race.
func (r *PeriodRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_periods SET is_active = FALSE, archived_at = $1, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("deactivate previous periods: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE academic_periods SET is_active = TRUE, archived_at = NULL, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("activate period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate tx: %w", err)
	}
	return nil
}

// Deactivate flips a period inactive and stamps archived_at.
func (r *PeriodRepository) Deactivate(ctx context.Context, id string, archivedAt time.Time) error {
	const query = `UPDATE academic_periods SET is_active = FALSE, archived_at = $2, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, archivedAt)
	if err != nil {
		return fmt.Errorf("deactivate period: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
