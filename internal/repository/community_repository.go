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

const communityColumns = "id, full_name, gender, birth_date, barangay, occupation, contact_number, academic_period_id, is_archived, created_by, created_at, updated_at"

// CommunityRepository handles persistence for community member participants.
type CommunityRepository struct {
	db *sqlx.DB
}

// NewCommunityRepository instantiates a community member repository.
func NewCommunityRepository(db *sqlx.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// List returns community members matching provided filters with a total count.
func (r *CommunityRepository) List(ctx context.Context, filter models.CommunityFilter) ([]models.CommunityMember, int, error) {
	base := "FROM community_members WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Barangay != "" {
		conditions = append(conditions, fmt.Sprintf("barangay = $%d", len(args)+1))
		args = append(args, filter.Barangay)
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
		"full_name":  true,
		"barangay":   true,
		"occupation": true,
		"created_at": true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", communityColumns, base, sortBy, order, size, offset)

	var members []models.CommunityMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list community members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count community members: %w", err)
	}

	return members, total, nil
}

// FindByID loads a community member by identifier.
func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*models.CommunityMember, error) {
	query := fmt.Sprintf("SELECT %s FROM community_members WHERE id = $1", communityColumns)
	var member models.CommunityMember
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Create inserts a new community member record.
func (r *CommunityRepository) Create(ctx context.Context, member *models.CommunityMember) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	const query = `INSERT INTO community_members (id, full_name, gender, birth_date, barangay, occupation, contact_number, academic_period_id, is_archived, created_by, created_at, updated_at)
VALUES (:id, :full_name, :gender, :birth_date, :barangay, :occupation, :contact_number, :academic_period_id, :is_archived, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create community member: %w", err)
	}
	return nil
}

// Update modifies an existing community member record.
func (r *CommunityRepository) Update(ctx context.Context, member *models.CommunityMember) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE community_members SET full_name = :full_name, gender = :gender, birth_date = :birth_date, barangay = :barangay, occupation = :occupation, contact_number = :contact_number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update community member: %w", err)
	}
	return nil
}

// Archive flags a single community member as archived.
func (r *CommunityRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE community_members SET is_archived = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive community member: %w", err)
	}
	return nil
}

// CountByGender tallies unarchived community members for a period grouped by gender.
func (r *CommunityRepository) CountByGender(ctx context.Context, periodID string) (map[string]int, error) {
	return countByGender(ctx, r.db, "community_members", periodID)
}
