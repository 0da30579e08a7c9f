package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	FindActive(ctx context.Context) (*models.AcademicPeriod, error)
	FindBySchoolYear(ctx context.Context, schoolYear string) ([]models.AcademicPeriod, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
	Update(ctx context.Context, period *models.AcademicPeriod) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string, archivedAt time.Time) error
}

type archiveRepository interface {
	CollectionNames() []string
	ArchiveByPeriod(ctx context.Context, periodID string) (map[string]models.BatchResult, error)
	ArchiveByPeriodAtomic(ctx context.Context, periodID string) (map[string]models.BatchResult, error)
}

type transitionNotifier interface {
	NotifyPeriodTransition(ctx context.Context, previous, next *models.AcademicPeriod) error
}

type transitionAuditor interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// PeriodRequest describes payload for creating or validating academic periods.
type PeriodRequest struct {
	SchoolYear string            `json:"school_year" validate:"required"`
	PeriodType models.PeriodType `json:"period_type" validate:"required"`
	StartDate  time.Time         `json:"start_date" validate:"required"`
	EndDate    time.Time         `json:"end_date" validate:"required"`
}

// TransitionRequest starts a transition to a new academic period.
type TransitionRequest struct {
	SchoolYear string            `json:"school_year" validate:"required"`
	PeriodType models.PeriodType `json:"period_type" validate:"required"`
	StartDate  time.Time         `json:"start_date" validate:"required"`
	EndDate    time.Time         `json:"end_date" validate:"required"`
	Atomic     bool              `json:"atomic"`
	ActorID    string            `json:"-"`
}

// PeriodService orchestrates academic period workflows, including the
// transition that archives the outgoing period's records.
type PeriodService struct {
	repo     periodRepository
	archive  archiveRepository
	notifier transitionNotifier
	auditor  transitionAuditor

	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service instance.
func NewPeriodService(repo periodRepository, archive archiveRepository, notifier transitionNotifier, auditor transitionAuditor, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{
		repo:      repo,
		archive:   archive,
		notifier:  notifier,
		auditor:   auditor,
		validator: validate,
		logger:    logger,
	}
}

// List returns paginated periods.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a period by ID.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// GetActive returns the currently active period.
func (s *PeriodService) GetActive(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}
	return period, nil
}

// Validate checks a proposed period and returns every rule violation found.
// An empty slice means the payload is valid. Purely computational, no I/O.
func (s *PeriodService) Validate(req PeriodRequest) []string {
	var problems []string

	if msg := validateSchoolYear(req.SchoolYear); msg != "" {
		problems = append(problems, msg)
	}
	if req.PeriodType == "" {
		problems = append(problems, "period type is required")
	} else if !req.PeriodType.Valid() {
		problems = append(problems, fmt.Sprintf("unknown period type %q", req.PeriodType))
	}
	switch {
	case req.StartDate.IsZero():
		problems = append(problems, "start date is required")
	case req.EndDate.IsZero():
		problems = append(problems, "end date is required")
	case !req.StartDate.Before(req.EndDate):
		problems = append(problems, "start date must be before end date")
	}

	return problems
}

// validateSchoolYear enforces the YYYY-YYYY format with consecutive years.
func validateSchoolYear(schoolYear string) string {
	if schoolYear == "" {
		return "school year is required"
	}
	parts := strings.Split(schoolYear, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return "school year must use the YYYY-YYYY format"
	}
	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return "school year must use the YYYY-YYYY format"
	}
	if second != first+1 {
		return "school year end must be the year after its start"
	}
	return ""
}

// CheckDuplicate reports whether the proposed period collides with an
// existing one in the same school year, either by repeating the period type
// or by overlapping dates.
func (s *PeriodService) CheckDuplicate(ctx context.Context, req PeriodRequest) (*models.DuplicateCheck, error) {
	existing, err := s.repo.FindBySchoolYear(ctx, req.SchoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicates")
	}
	check := checkDuplicate(req, existing)
	return &check, nil
}

// checkDuplicate is the pure collision rule shared by CheckDuplicate and the
// transition workflow.
func checkDuplicate(req PeriodRequest, existing []models.AcademicPeriod) models.DuplicateCheck {
	for _, period := range existing {
		if period.PeriodType == req.PeriodType {
			return models.DuplicateCheck{
				IsDuplicate: true,
				Message:     fmt.Sprintf("a %s period already exists for school year %s", period.PeriodType, period.SchoolYear),
			}
		}
		if req.StartDate.Before(period.EndDate) && period.StartDate.Before(req.EndDate) {
			return models.DuplicateCheck{
				IsDuplicate: true,
				Message:     fmt.Sprintf("dates overlap the existing %s period of school year %s", period.PeriodType, period.SchoolYear),
			}
		}
	}
	return models.DuplicateCheck{}
}

// Create adds a new inactive period after validation and duplicate checks.
func (s *PeriodService) Create(ctx context.Context, req PeriodRequest, actorID string) (*models.AcademicPeriod, error) {
	if problems := s.Validate(req); len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
	}

	check, err := s.CheckDuplicate(ctx, req)
	if err != nil {
		return nil, err
	}
	if check.IsDuplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, check.Message)
	}

	period := &models.AcademicPeriod{
		SchoolYear: req.SchoolYear,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		CreatedBy:  actorID,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}

	s.logger.Sugar().Infow("period created", "period_id", period.ID, "school_year", period.SchoolYear, "period_type", period.PeriodType)
	return period, nil
}

// Update modifies the mutable fields of an inactive period.
func (s *PeriodService) Update(ctx context.Context, id string, req PeriodRequest) (*models.AcademicPeriod, error) {
	if problems := s.Validate(req); len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
	}

	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBySchoolYear(ctx, req.SchoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for duplicates")
	}
	others := existing[:0:0]
	for _, p := range existing {
		if p.ID != id {
			others = append(others, p)
		}
	}
	if check := checkDuplicate(req, others); check.IsDuplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, check.Message)
	}

	period.SchoolYear = req.SchoolYear
	period.PeriodType = req.PeriodType
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

// Transition creates the next academic period, activates it, deactivates the
// outgoing one, and archives that period's records collection by collection.
// Archival is best effort unless Atomic is set; the result reports exactly
// what happened per collection either way.
func (s *PeriodService) Transition(ctx context.Context, req TransitionRequest) (*models.TransitionResult, error) {
	periodReq := PeriodRequest{
		SchoolYear: req.SchoolYear,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if problems := s.Validate(periodReq); len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
	}

	check, err := s.CheckDuplicate(ctx, periodReq)
	if err != nil {
		return nil, err
	}
	if check.IsDuplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, check.Message)
	}

	var previous *models.AcademicPeriod
	previous, err = s.repo.FindActive(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}

	newPeriod := &models.AcademicPeriod{
		SchoolYear: req.SchoolYear,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		CreatedBy:  req.ActorID,
	}
	if err := s.repo.Create(ctx, newPeriod); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create new period")
	}

	// Activate deactivates the outgoing period in the same transaction, so
	// concurrent transitions cannot leave two active periods.
	if err := s.repo.Activate(ctx, newPeriod.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate new period")
	}
	newPeriod.IsActive = true

	result := &models.TransitionResult{
		NewPeriod:   newPeriod,
		Collections: map[string]models.BatchResult{},
	}

	if previous != nil {
		result.PreviousPeriodID = previous.ID

		var collections map[string]models.BatchResult
		if req.Atomic {
			collections, err = s.archive.ArchiveByPeriodAtomic(ctx, previous.ID)
		} else {
			collections, err = s.archive.ArchiveByPeriod(ctx, previous.ID)
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive outgoing period records")
		}
		result.Collections = collections
		for _, batch := range collections {
			result.TotalArchived += batch.Archived
			result.TotalFailed += batch.Failed
		}
	}

	s.recordTransition(ctx, req, previous, result)
	s.notifyTransition(ctx, previous, newPeriod)

	s.logger.Sugar().Infow("period transition complete",
		"period_id", newPeriod.ID,
		"school_year", newPeriod.SchoolYear,
		"period_type", newPeriod.PeriodType,
		"previous_period_id", result.PreviousPeriodID,
		"total_archived", result.TotalArchived,
		"total_failed", result.TotalFailed,
	)
	return result, nil
}

// recordTransition writes the audit entry for a completed transition. Both
// period identifiers are captured: the new one as the resource, the outgoing
// one in the old-values payload.
func (s *PeriodService) recordTransition(ctx context.Context, req TransitionRequest, previous *models.AcademicPeriod, result *models.TransitionResult) {
	if s.auditor == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     models.AuditActionPeriodTransition,
		Resource:   "academic_periods",
		ResourceID: &result.NewPeriod.ID,
	}
	if req.ActorID != "" {
		entry.UserID = &req.ActorID
	}
	if previous != nil {
		entry.OldValues, _ = json.Marshal(map[string]string{
			"period_id":   previous.ID,
			"school_year": previous.SchoolYear,
		})
	}
	entry.NewValues, _ = json.Marshal(map[string]string{
		"period_id":   result.NewPeriod.ID,
		"school_year": result.NewPeriod.SchoolYear,
	})
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to record transition audit", "error", err)
	}
}

func (s *PeriodService) notifyTransition(ctx context.Context, previous, next *models.AcademicPeriod) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPeriodTransition(ctx, previous, next); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue transition notifications", "error", err)
	}
}
