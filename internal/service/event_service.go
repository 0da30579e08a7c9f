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

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Archive(ctx context.Context, id string) error
}

// EventRequest describes payload for creating or updating events.
type EventRequest struct {
	Title            string             `json:"title" validate:"required"`
	Description      string             `json:"description"`
	Venue            string             `json:"venue" validate:"required"`
	FocusArea        string             `json:"focus_area" validate:"required"`
	Status           models.EventStatus `json:"status"`
	StartDate        time.Time          `json:"start_date" validate:"required"`
	EndDate          time.Time          `json:"end_date" validate:"required"`
	AcademicPeriodID string             `json:"academic_period_id"`
}

// EventService orchestrates GAD event workflows.
type EventService struct {
	repo      eventRepository
	periods   activePeriodSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService creates a new event service instance.
func NewEventService(repo eventRepository, periods activePeriodSource, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// List returns paginated events.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create schedules a new event in the active period.
func (s *EventService) Create(ctx context.Context, req EventRequest, actorID string) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event end date must not be before its start date")
	}

	periodID, err := resolvePeriodID(ctx, s.periods, req.AcademicPeriodID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.EventStatusPlanned
	}

	event := &models.Event{
		Title:            req.Title,
		Description:      req.Description,
		Venue:            req.Venue,
		FocusArea:        req.FocusArea,
		Status:           status,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		AcademicPeriodID: periodID,
		CreatedBy:        actorID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, id string, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event end date must not be before its start date")
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Venue = req.Venue
	event.FocusArea = req.FocusArea
	if req.Status != "" {
		event.Status = req.Status
	}
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Archive flags an event as archived without deleting the record.
func (s *EventService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive event")
	}
	return nil
}
