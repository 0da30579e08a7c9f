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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentNumber(ctx context.Context, studentNumber, periodID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Archive(ctx context.Context, id string) error
}

type activePeriodSource interface {
	FindActive(ctx context.Context) (*models.AcademicPeriod, error)
}

// CreateStudentRequest describes payload for registering a student participant.
type CreateStudentRequest struct {
	StudentNumber    string    `json:"student_number" validate:"required"`
	FullName         string    `json:"full_name" validate:"required"`
	Gender           string    `json:"gender" validate:"required"`
	BirthDate        time.Time `json:"birth_date"`
	Program          string    `json:"program" validate:"required"`
	YearLevel        int       `json:"year_level" validate:"required,min=1,max=6"`
	AcademicPeriodID string    `json:"academic_period_id"`
}

// UpdateStudentRequest updates mutable fields on a student.
type UpdateStudentRequest struct {
	StudentNumber string    `json:"student_number" validate:"required"`
	FullName      string    `json:"full_name" validate:"required"`
	Gender        string    `json:"gender" validate:"required"`
	BirthDate     time.Time `json:"birth_date"`
	Program       string    `json:"program" validate:"required"`
	YearLevel     int       `json:"year_level" validate:"required,min=1,max=6"`
}

// StudentService orchestrates student participant workflows. New records
// land in the active period unless a period is named explicitly.
type StudentService struct {
	repo      studentRepository
	periods   activePeriodSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service instance.
func NewStudentService(repo studentRepository, periods activePeriodSource, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student in the active period.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, actorID string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	periodID, err := resolvePeriodID(ctx, s.periods, req.AcademicPeriodID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByStudentNumber(ctx, req.StudentNumber, periodID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already registered in this period")
	}

	student := &models.Student{
		StudentNumber:    req.StudentNumber,
		FullName:         req.FullName,
		Gender:           req.Gender,
		BirthDate:        req.BirthDate,
		Program:          req.Program,
		YearLevel:        req.YearLevel,
		AcademicPeriodID: periodID,
		CreatedBy:        actorID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StudentNumber != student.StudentNumber {
		exists, err := s.repo.ExistsByStudentNumber(ctx, req.StudentNumber, student.AcademicPeriodID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number already registered in this period")
		}
	}

	student.StudentNumber = req.StudentNumber
	student.FullName = req.FullName
	student.Gender = req.Gender
	student.BirthDate = req.BirthDate
	student.Program = req.Program
	student.YearLevel = req.YearLevel
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Archive flags a student as archived without deleting the record.
func (s *StudentService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive student")
	}
	return nil
}
