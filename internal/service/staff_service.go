package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.StaffFaculty, int, error)
	FindByID(ctx context.Context, id string) (*models.StaffFaculty, error)
	Create(ctx context.Context, staff *models.StaffFaculty) error
	Update(ctx context.Context, staff *models.StaffFaculty) error
	Archive(ctx context.Context, id string) error
}

// StaffRequest describes payload for creating or updating staff records.
type StaffRequest struct {
	EmployeeNumber   string    `json:"employee_number" validate:"required"`
	FullName         string    `json:"full_name" validate:"required"`
	Gender           string    `json:"gender" validate:"required"`
	BirthDate        time.Time `json:"birth_date"`
	Department       string    `json:"department" validate:"required"`
	Position         string    `json:"position" validate:"required"`
	AcademicPeriodID string    `json:"academic_period_id"`
}

// StaffService orchestrates staff and faculty participant workflows.
type StaffService struct {
	repo      staffRepository
	periods   activePeriodSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService creates a new staff service instance.
func NewStaffService(repo staffRepository, periods activePeriodSource, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// List returns paginated staff records.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffFaculty, *models.Pagination, error) {
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a staff record by ID.
func (s *StaffService) Get(ctx context.Context, id string) (*models.StaffFaculty, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff record")
	}
	return staff, nil
}

// Create registers a staff or faculty member in the active period.
func (s *StaffService) Create(ctx context.Context, req StaffRequest, actorID string) (*models.StaffFaculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}

	periodID, err := resolvePeriodID(ctx, s.periods, req.AcademicPeriodID)
	if err != nil {
		return nil, err
	}

	staff := &models.StaffFaculty{
		EmployeeNumber:   req.EmployeeNumber,
		FullName:         req.FullName,
		Gender:           req.Gender,
		BirthDate:        req.BirthDate,
		Department:       req.Department,
		Position:         req.Position,
		AcademicPeriodID: periodID,
		CreatedBy:        actorID,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff record")
	}
	return staff, nil
}

// Update modifies an existing staff record.
func (s *StaffService) Update(ctx context.Context, id string, req StaffRequest) (*models.StaffFaculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}

	staff, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	staff.EmployeeNumber = req.EmployeeNumber
	staff.FullName = req.FullName
	staff.Gender = req.Gender
	staff.BirthDate = req.BirthDate
	staff.Department = req.Department
	staff.Position = req.Position
	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff record")
	}
	return staff, nil
}

// Archive flags a staff record as archived without deleting it.
func (s *StaffService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive staff record")
	}
	return nil
}

// resolvePeriodID defaults an empty period reference to the active period.
func resolvePeriodID(ctx context.Context, periods activePeriodSource, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	active, err := periods.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "no active academic period")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}
	return active.ID, nil
}
