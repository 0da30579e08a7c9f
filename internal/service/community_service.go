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

type communityRepository interface {
	List(ctx context.Context, filter models.CommunityFilter) ([]models.CommunityMember, int, error)
	FindByID(ctx context.Context, id string) (*models.CommunityMember, error)
	Create(ctx context.Context, member *models.CommunityMember) error
	Update(ctx context.Context, member *models.CommunityMember) error
	Archive(ctx context.Context, id string) error
}

// CommunityMemberRequest describes payload for community member records.
type CommunityMemberRequest struct {
	FullName         string    `json:"full_name" validate:"required"`
	Gender           string    `json:"gender" validate:"required"`
	BirthDate        time.Time `json:"birth_date"`
	Barangay         string    `json:"barangay" validate:"required"`
	Occupation       string    `json:"occupation"`
	ContactNumber    string    `json:"contact_number"`
	AcademicPeriodID string    `json:"academic_period_id"`
}

// CommunityService orchestrates community member participant workflows.
type CommunityService struct {
	repo      communityRepository
	periods   activePeriodSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommunityService creates a new community service instance.
func NewCommunityService(repo communityRepository, periods activePeriodSource, validate *validator.Validate, logger *zap.Logger) *CommunityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommunityService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// List returns paginated community members.
func (s *CommunityService) List(ctx context.Context, filter models.CommunityFilter) ([]models.CommunityMember, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list community members")
	}
	return members, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a community member by ID.
func (s *CommunityService) Get(ctx context.Context, id string) (*models.CommunityMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "community member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load community member")
	}
	return member, nil
}

// Create registers a community member in the active period.
func (s *CommunityService) Create(ctx context.Context, req CommunityMemberRequest, actorID string) (*models.CommunityMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid community member payload")
	}

	periodID, err := resolvePeriodID(ctx, s.periods, req.AcademicPeriodID)
	if err != nil {
		return nil, err
	}

	member := &models.CommunityMember{
		FullName:         req.FullName,
		Gender:           req.Gender,
		BirthDate:        req.BirthDate,
		Barangay:         req.Barangay,
		Occupation:       req.Occupation,
		ContactNumber:    req.ContactNumber,
		AcademicPeriodID: periodID,
		CreatedBy:        actorID,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create community member")
	}
	return member, nil
}

// Update modifies an existing community member.
func (s *CommunityService) Update(ctx context.Context, id string, req CommunityMemberRequest) (*models.CommunityMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid community member payload")
	}

	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	member.FullName = req.FullName
	member.Gender = req.Gender
	member.BirthDate = req.BirthDate
	member.Barangay = req.Barangay
	member.Occupation = req.Occupation
	member.ContactNumber = req.ContactNumber
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update community member")
	}
	return member, nil
}

// Archive flags a community member as archived without deleting the record.
func (s *CommunityService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive community member")
	}
	return nil
}
