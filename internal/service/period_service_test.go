package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type periodRepoStub struct {
	periods    map[string]*models.AcademicPeriod
	activeID   string
	nextID     int
	activated  []string
	createErr  error
	activerErr error
}

func newPeriodRepoStub() *periodRepoStub {
	return &periodRepoStub{periods: make(map[string]*models.AcademicPeriod)}
}

func (r *periodRepoStub) add(period models.AcademicPeriod) *models.AcademicPeriod {
	if period.ID == "" {
		r.nextID++
		period.ID = fmt.Sprintf("period-%d", r.nextID)
	}
	if period.IsActive {
		r.activeID = period.ID
	}
	stored := period
	r.periods[period.ID] = &stored
	return &stored
}

func (r *periodRepoStub) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error) {
	result := make([]models.AcademicPeriod, 0, len(r.periods))
	for _, p := range r.periods {
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (r *periodRepoStub) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	if p, ok := r.periods[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *periodRepoStub) FindActive(ctx context.Context) (*models.AcademicPeriod, error) {
	if r.activeID == "" {
		return nil, sql.ErrNoRows
	}
	return r.FindByID(ctx, r.activeID)
}

func (r *periodRepoStub) FindBySchoolYear(ctx context.Context, schoolYear string) ([]models.AcademicPeriod, error) {
	var result []models.AcademicPeriod
	for _, p := range r.periods {
		if p.SchoolYear == schoolYear {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *periodRepoStub) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	period.ID = fmt.Sprintf("period-%d", r.nextID)
	period.CreatedAt = time.Now().UTC()
	stored := *period
	r.periods[period.ID] = &stored
	return nil
}

func (r *periodRepoStub) Update(ctx context.Context, period *models.AcademicPeriod) error {
	if _, ok := r.periods[period.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *period
	r.periods[period.ID] = &stored
	return nil
}

func (r *periodRepoStub) Activate(ctx context.Context, id string) error {
	if r.activerErr != nil {
		return r.activerErr
	}
	if _, ok := r.periods[id]; !ok {
		return sql.ErrNoRows
	}
	if r.activeID != "" && r.activeID != id {
		if prev, ok := r.periods[r.activeID]; ok {
			prev.IsActive = false
			now := time.Now().UTC()
			prev.ArchivedAt = &now
		}
	}
	r.periods[id].IsActive = true
	r.activeID = id
	r.activated = append(r.activated, id)
	return nil
}

func (r *periodRepoStub) Deactivate(ctx context.Context, id string, archivedAt time.Time) error {
	if p, ok := r.periods[id]; ok {
		p.IsActive = false
		p.ArchivedAt = &archivedAt
		if r.activeID == id {
			r.activeID = ""
		}
		return nil
	}
	return sql.ErrNoRows
}

type archiveRepoStub struct {
	results    map[string]models.BatchResult
	calls      []string
	atomicUsed bool
	err        error
}

func (r *archiveRepoStub) CollectionNames() []string {
	return []string{"students", "staff_faculty", "community_members", "events"}
}

func (r *archiveRepoStub) ArchiveByPeriod(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	r.calls = append(r.calls, periodID)
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

func (r *archiveRepoStub) ArchiveByPeriodAtomic(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	r.atomicUsed = true
	return r.ArchiveByPeriod(ctx, periodID)
}

type notifierTransition struct {
	previous *models.AcademicPeriod
	next     *models.AcademicPeriod
}

type notifierStub struct {
	transitions []notifierTransition
	err         error
}

func (n *notifierStub) NotifyPeriodTransition(ctx context.Context, previous, next *models.AcademicPeriod) error {
	n.transitions = append(n.transitions, notifierTransition{previous: previous, next: next})
	return n.err
}

type auditorStub struct {
	entries []*models.AuditLog
}

func (a *auditorStub) Record(ctx context.Context, entry *models.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func validPeriodRequest() PeriodRequest {
	return PeriodRequest{
		SchoolYear: "2025-2026",
		PeriodType: models.PeriodTypeFirstSemester,
		StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestPeriodServiceValidate(t *testing.T) {
	svc := NewPeriodService(newPeriodRepoStub(), &archiveRepoStub{}, nil, nil, nil, nil)

	t.Run("valid request has no problems", func(t *testing.T) {
		require.Empty(t, svc.Validate(validPeriodRequest()))
	})

	t.Run("malformed school year", func(t *testing.T) {
		for _, schoolYear := range []string{"", "2025", "2025-26", "abcd-efgh", "2025/2026"} {
			req := validPeriodRequest()
			req.SchoolYear = schoolYear
			problems := svc.Validate(req)
			require.NotEmpty(t, problems, "school year %q should be rejected", schoolYear)
		}
	})

	t.Run("non consecutive years", func(t *testing.T) {
		req := validPeriodRequest()
		req.SchoolYear = "2025-2027"
		problems := svc.Validate(req)
		require.Contains(t, problems, "school year end must be the year after its start")
	})

	t.Run("unknown period type", func(t *testing.T) {
		req := validPeriodRequest()
		req.PeriodType = "THIRD_TRIMESTER"
		problems := svc.Validate(req)
		require.Len(t, problems, 1)
		require.Contains(t, problems[0], "THIRD_TRIMESTER")
	})

	t.Run("start not before end", func(t *testing.T) {
		req := validPeriodRequest()
		req.EndDate = req.StartDate
		problems := svc.Validate(req)
		require.Contains(t, problems, "start date must be before end date")
	})

	t.Run("collects every violation", func(t *testing.T) {
		req := PeriodRequest{SchoolYear: "bad", PeriodType: "NOPE"}
		problems := svc.Validate(req)
		require.Len(t, problems, 3)
	})
}

func TestPeriodServiceCheckDuplicate(t *testing.T) {
	repo := newPeriodRepoStub()
	repo.add(models.AcademicPeriod{
		SchoolYear: "2025-2026",
		PeriodType: models.PeriodTypeFirstSemester,
		StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
	})
	svc := NewPeriodService(repo, &archiveRepoStub{}, nil, nil, nil, nil)
	ctx := context.Background()

	t.Run("same type same year is a duplicate", func(t *testing.T) {
		check, err := svc.CheckDuplicate(ctx, validPeriodRequest())
		require.NoError(t, err)
		require.True(t, check.IsDuplicate)
		require.Contains(t, check.Message, "FIRST_SEMESTER")
	})

	t.Run("overlapping dates are a duplicate", func(t *testing.T) {
		req := validPeriodRequest()
		req.PeriodType = models.PeriodTypeSecondSemester
		req.StartDate = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
		req.EndDate = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		check, err := svc.CheckDuplicate(ctx, req)
		require.NoError(t, err)
		require.True(t, check.IsDuplicate)
		require.Contains(t, check.Message, "overlap")
	})

	t.Run("disjoint period of another type passes", func(t *testing.T) {
		req := validPeriodRequest()
		req.PeriodType = models.PeriodTypeSecondSemester
		req.StartDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		req.EndDate = time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
		check, err := svc.CheckDuplicate(ctx, req)
		require.NoError(t, err)
		require.False(t, check.IsDuplicate)
		require.Empty(t, check.Message)
	})

	t.Run("different school year passes", func(t *testing.T) {
		req := validPeriodRequest()
		req.SchoolYear = "2026-2027"
		req.StartDate = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		req.EndDate = time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
		check, err := svc.CheckDuplicate(ctx, req)
		require.NoError(t, err)
		require.False(t, check.IsDuplicate)
	})
}

func TestPeriodServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates inactive period", func(t *testing.T) {
		repo := newPeriodRepoStub()
		svc := NewPeriodService(repo, &archiveRepoStub{}, nil, nil, nil, nil)

		period, err := svc.Create(ctx, validPeriodRequest(), "user-1")
		require.NoError(t, err)
		require.NotEmpty(t, period.ID)
		require.False(t, period.IsActive)
		require.Equal(t, "user-1", period.CreatedBy)
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		svc := NewPeriodService(newPeriodRepoStub(), &archiveRepoStub{}, nil, nil, nil, nil)
		req := validPeriodRequest()
		req.SchoolYear = "2025-2030"

		_, err := svc.Create(ctx, req, "user-1")
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	})

	t.Run("rejects duplicate", func(t *testing.T) {
		repo := newPeriodRepoStub()
		svc := NewPeriodService(repo, &archiveRepoStub{}, nil, nil, nil, nil)

		_, err := svc.Create(ctx, validPeriodRequest(), "user-1")
		require.NoError(t, err)
		_, err = svc.Create(ctx, validPeriodRequest(), "user-1")
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	})
}

func TestPeriodServiceTransition(t *testing.T) {
	ctx := context.Background()

	setup := func() (*periodRepoStub, *archiveRepoStub, *notifierStub, *auditorStub, *PeriodService) {
		repo := newPeriodRepoStub()
		repo.add(models.AcademicPeriod{
			ID:         "period-old",
			SchoolYear: "2024-2025",
			PeriodType: models.PeriodTypeSecondSemester,
			StartDate:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
			IsActive:   true,
		})
		archive := &archiveRepoStub{results: map[string]models.BatchResult{
			"students":          {Archived: 40},
			"staff_faculty":     {Archived: 12},
			"community_members": {Archived: 7},
			"events":            {Archived: 3, Failed: 1, Errors: []string{"event evt-9: row locked"}},
		}}
		notifier := &notifierStub{}
		auditor := &auditorStub{}
		svc := NewPeriodService(repo, archive, notifier, auditor, nil, nil)
		return repo, archive, notifier, auditor, svc
	}

	t.Run("full transition", func(t *testing.T) {
		repo, archive, notifier, auditor, svc := setup()

		result, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
			ActorID:    "admin-1",
		})
		require.NoError(t, err)

		require.True(t, result.NewPeriod.IsActive)
		require.Equal(t, "period-old", result.PreviousPeriodID)
		require.Equal(t, 62, result.TotalArchived)
		require.Equal(t, 1, result.TotalFailed)
		require.Len(t, result.Collections, 4)
		require.Equal(t, 40, result.Collections["students"].Archived)

		// The outgoing period is deactivated and stamped.
		old := repo.periods["period-old"]
		require.False(t, old.IsActive)
		require.NotNil(t, old.ArchivedAt)

		require.Equal(t, []string{"period-old"}, archive.calls)
		require.False(t, archive.atomicUsed)

		// Both ends of the transition reach the notifier.
		require.Len(t, notifier.transitions, 1)
		require.NotNil(t, notifier.transitions[0].previous)
		require.Equal(t, "2024-2025", notifier.transitions[0].previous.SchoolYear)
		require.Equal(t, "2025-2026", notifier.transitions[0].next.SchoolYear)

		require.Len(t, auditor.entries, 1)
		entry := auditor.entries[0]
		require.Equal(t, models.AuditActionPeriodTransition, entry.Action)
		require.Equal(t, "admin-1", *entry.UserID)
		require.Equal(t, result.NewPeriod.ID, *entry.ResourceID)

		var oldValues, newValues map[string]string
		require.NoError(t, json.Unmarshal(entry.OldValues, &oldValues))
		require.NoError(t, json.Unmarshal(entry.NewValues, &newValues))
		require.Equal(t, "period-old", oldValues["period_id"])
		require.Equal(t, "2024-2025", oldValues["school_year"])
		require.Equal(t, result.NewPeriod.ID, newValues["period_id"])
		require.Equal(t, "2025-2026", newValues["school_year"])
	})

	t.Run("atomic mode uses transactional archival", func(t *testing.T) {
		_, archive, _, _, svc := setup()

		_, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
			Atomic:     true,
		})
		require.NoError(t, err)
		require.True(t, archive.atomicUsed)
	})

	t.Run("first transition tolerates no active period", func(t *testing.T) {
		repo := newPeriodRepoStub()
		archive := &archiveRepoStub{}
		svc := NewPeriodService(repo, archive, nil, nil, nil, nil)

		result, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Empty(t, result.PreviousPeriodID)
		require.Empty(t, archive.calls)
		require.Zero(t, result.TotalArchived)
	})

	t.Run("duplicate target is rejected before any write", func(t *testing.T) {
		repo, archive, _, _, svc := setup()
		repo.add(models.AcademicPeriod{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		})

		_, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		})
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
		require.Empty(t, archive.calls)
	})

	t.Run("rerun archives nothing new", func(t *testing.T) {
		repo, archive, _, _, svc := setup()

		first, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Equal(t, 62, first.TotalArchived)

		// Everything from the now-previous period was already archived, so a
		// second transition reports zero archived for it.
		archive.results = map[string]models.BatchResult{
			"students": {}, "staff_faculty": {}, "community_members": {}, "events": {},
		}
		repo.periods[repo.activeID].SchoolYear = "2025-2026"

		second, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2026-2027",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Zero(t, second.TotalArchived)
		require.Zero(t, second.TotalFailed)
	})

	t.Run("archive failure surfaces as internal error", func(t *testing.T) {
		_, archive, _, _, svc := setup()
		archive.err = fmt.Errorf("connection reset")

		_, err := svc.Transition(ctx, TransitionRequest{
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		})
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	})
}

func TestNewPagination(t *testing.T) {
	t.Run("middle page", func(t *testing.T) {
		p := models.NewPagination(2, 10, 25)
		require.Equal(t, 2, p.CurrentPage)
		require.Equal(t, 3, p.TotalPages)
		require.Equal(t, 25, p.TotalItems)
		require.Equal(t, 10, p.ItemsPerPage)
		require.True(t, p.HasNextPage)
		require.True(t, p.HasPreviousPage)
		require.Equal(t, 11, p.StartIndex)
		require.Equal(t, 20, p.EndIndex)
	})

	t.Run("last partial page clamps end index", func(t *testing.T) {
		p := models.NewPagination(2, 10, 15)
		require.Equal(t, 11, p.StartIndex)
		require.Equal(t, 15, p.EndIndex)
		require.False(t, p.HasNextPage)
	})

	t.Run("empty result", func(t *testing.T) {
		p := models.NewPagination(1, 10, 0)
		require.Zero(t, p.TotalPages)
		require.Zero(t, p.StartIndex)
		require.Zero(t, p.EndIndex)
		require.False(t, p.HasNextPage)
		require.False(t, p.HasPreviousPage)
	})
}
