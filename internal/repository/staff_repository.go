package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gadconnect/gadconnect-api/internal/models"
)

const staffColumns = "id, employee_number, full_name, gender, birth_date, department, position, academic_period_id, is_archived, created_by, created_at, updated_at"

// StaffRepository handles persistence for staff and faculty participants.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository instantiates a staff repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff records matching provided filters with a total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffFaculty, int, error) {
	base := "FROM staff_faculty WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR employee_number LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":       true,
		"employee_number": true,
		"department":      true,
		"position":        true,
		"created_at":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", staffColumns, base, sortBy, order, size, offset)

	var staff []models.StaffFaculty
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}

	return staff, total, nil
}

// FindByID loads a staff record by identifier.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.StaffFaculty, error) {
	query := fmt.Sprintf("SELECT %s FROM staff_faculty WHERE id = $1", staffColumns)
	var staff models.StaffFaculty
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// Create inserts a new staff record.
func (r *StaffRepository) Create(ctx context.Context, staff *models.StaffFaculty) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	const query = `INSERT INTO staff_faculty (id, employee_number, full_name, gender, birth_date, department, position, academic_period_id, is_archived, created_by, created_at, updated_at)
VALUES (:id, :employee_number, :full_name, :gender, :birth_date, :department, :position, :academic_period_id, :is_archived, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Update modifies an existing staff record.
func (r *StaffRepository) Update(ctx context.Context, staff *models.StaffFaculty) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff_faculty SET employee_number = :employee_number, full_name = :full_name, gender = :gender, birth_date = :birth_date, department = :department, position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// Archive flags a single staff record as archived.
func (r *StaffRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE staff_faculty SET is_archived = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive staff: %w", err)
	}
	return nil
}

// CountByGender tallies unarchived staff for a period grouped by gender.
func (r *StaffRepository) CountByGender(ctx context.Context, periodID string) (map[string]int, error) {
	return countByGender(ctx, r.db, "staff_faculty", periodID)
}
