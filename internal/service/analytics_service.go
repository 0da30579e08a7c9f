package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type genderCounter interface {
	CountByGender(ctx context.Context, periodID string) (map[string]int, error)
}

type eventCounter interface {
	CountByPeriod(ctx context.Context, periodID string) (int, error)
}

// AnalyticsService aggregates gender-disaggregated demographics across all
// participant groups of a period. Counts for the four sources are gathered
// concurrently and the assembled snapshot is cached.
type AnalyticsService struct {
	periods   activePeriodSource
	periodGet interface {
		FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	}
	students genderCounter
	staff    genderCounter
	communal genderCounter
	events   eventCounter
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(
	periods interface {
		FindActive(ctx context.Context) (*models.AcademicPeriod, error)
		FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	},
	students, staff, communal genderCounter,
	events eventCounter,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		periods:   periods,
		periodGet: periods,
		students:  students,
		staff:     staff,
		communal:  communal,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Demographics returns the demographics snapshot for a period, defaulting to
// the active one. The boolean reports whether the snapshot came from cache.
func (s *AnalyticsService) Demographics(ctx context.Context, periodID string) (*models.DemographicsSnapshot, bool, error) {
	period, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("analytics:demographics:%s", period.ID)
	var cached models.DemographicsSnapshot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	snapshot, err := s.buildSnapshot(ctx, period)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, cacheKey, snapshot, 0); err != nil {
		s.logger.Warn("failed to cache demographics", zap.Error(err))
	}
	return snapshot, false, nil
}

// InvalidateDemographics evicts cached snapshots after record writes.
func (s *AnalyticsService) InvalidateDemographics(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "analytics:demographics:*"); err != nil {
		s.logger.Warn("failed to invalidate demographics cache", zap.Error(err))
	}
}

func (s *AnalyticsService) resolvePeriod(ctx context.Context, periodID string) (*models.AcademicPeriod, error) {
	var period *models.AcademicPeriod
	var err error
	if periodID == "" {
		period, err = s.periods.FindActive(ctx)
	} else {
		period, err = s.periodGet.FindByID(ctx, periodID)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

func (s *AnalyticsService) buildSnapshot(ctx context.Context, period *models.AcademicPeriod) (*models.DemographicsSnapshot, error) {
	start := time.Now()

	var studentCounts, staffCounts, communityCounts map[string]int
	var eventCount int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		studentCounts, err = s.students.CountByGender(gctx, period.ID)
		return err
	})
	g.Go(func() error {
		var err error
		staffCounts, err = s.staff.CountByGender(gctx, period.ID)
		return err
	})
	g.Go(func() error {
		var err error
		communityCounts, err = s.communal.CountByGender(gctx, period.ID)
		return err
	})
	g.Go(func() error {
		var err error
		eventCount, err = s.events.CountByPeriod(gctx, period.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate demographics")
	}

	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_demographics", time.Since(start))
	}

	return &models.DemographicsSnapshot{
		PeriodID:     period.ID,
		SchoolYear:   period.SchoolYear,
		Students:     toBreakdown(studentCounts),
		StaffFaculty: toBreakdown(staffCounts),
		Community:    toBreakdown(communityCounts),
		EventCount:   eventCount,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// toBreakdown folds raw gender labels into the reported buckets. Unrecognised
// labels count as Other rather than being dropped.
func toBreakdown(counts map[string]int) models.GenderBreakdown {
	var breakdown models.GenderBreakdown
	for gender, count := range counts {
		breakdown.Total += count
		switch strings.ToUpper(gender) {
		case "MALE", "M":
			breakdown.Male += count
		case "FEMALE", "F":
			breakdown.Female += count
		default:
			breakdown.Other += count
		}
	}
	return breakdown
}
