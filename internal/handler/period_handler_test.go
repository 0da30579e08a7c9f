package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadconnect/gadconnect-api/internal/middleware"
	"github.com/gadconnect/gadconnect-api/internal/models"
	"github.com/gadconnect/gadconnect-api/internal/service"
)

type fakePeriodRepo struct {
	periods []models.AcademicPeriod
	active  *models.AcademicPeriod
	created []*models.AcademicPeriod
}

func (f *fakePeriodRepo) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error) {
	return f.periods, len(f.periods), nil
}

func (f *fakePeriodRepo) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	for i := range f.periods {
		if f.periods[i].ID == id {
			return &f.periods[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePeriodRepo) FindActive(ctx context.Context) (*models.AcademicPeriod, error) {
	if f.active == nil {
		return nil, sql.ErrNoRows
	}
	return f.active, nil
}

func (f *fakePeriodRepo) FindBySchoolYear(ctx context.Context, schoolYear string) ([]models.AcademicPeriod, error) {
	var result []models.AcademicPeriod
	for _, p := range f.periods {
		if p.SchoolYear == schoolYear {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakePeriodRepo) Create(ctx context.Context, period *models.AcademicPeriod) error {
	period.ID = "period-new"
	f.created = append(f.created, period)
	return nil
}

func (f *fakePeriodRepo) Update(ctx context.Context, period *models.AcademicPeriod) error { return nil }

func (f *fakePeriodRepo) Activate(ctx context.Context, id string) error { return nil }

func (f *fakePeriodRepo) Deactivate(ctx context.Context, id string, archivedAt time.Time) error {
	return nil
}

type fakeArchiveRepo struct {
	results map[string]models.BatchResult
}

func (f *fakeArchiveRepo) CollectionNames() []string { return []string{"students"} }

func (f *fakeArchiveRepo) ArchiveByPeriod(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	return f.results, nil
}

func (f *fakeArchiveRepo) ArchiveByPeriodAtomic(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	return f.results, nil
}

func newPeriodHandler(repo *fakePeriodRepo) *PeriodHandler {
	svc := service.NewPeriodService(repo, &fakeArchiveRepo{results: map[string]models.BatchResult{}}, nil, nil, nil, nil)
	return NewPeriodHandler(svc)
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   map[string]interface{} `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestPeriodHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePeriodRepo{periods: []models.AcademicPeriod{
		{ID: "p-1", SchoolYear: "2025-2026", PeriodType: models.PeriodTypeFirstSemester},
	}}
	handler := newPeriodHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/academic-periods?page=1&limit=10", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	items := env.Data["items"].([]interface{})
	assert.Len(t, items, 1)

	pagination := env.Data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["currentPage"])
	assert.Equal(t, float64(1), pagination["totalItems"])
	assert.Equal(t, float64(10), pagination["itemsPerPage"])
	assert.Equal(t, false, pagination["hasNextPage"])
}

func TestPeriodHandlerGetActive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("found", func(t *testing.T) {
		handler := newPeriodHandler(&fakePeriodRepo{active: &models.AcademicPeriod{ID: "p-1", IsActive: true}})

		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/academic-periods/active", nil)

		handler.GetActive(c)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "p-1", env.Data["id"])
	})

	t.Run("no active period", func(t *testing.T) {
		handler := newPeriodHandler(&fakePeriodRepo{})

		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/academic-periods/active", nil)

		handler.GetActive(c)

		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "NOT_FOUND", env.Error["code"])
	})
}

func TestPeriodHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	post := func(handler *PeriodHandler, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodPost, "/academic-periods/validate", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		handler.Validate(c)
		return rec
	}

	t.Run("clean payload", func(t *testing.T) {
		handler := newPeriodHandler(&fakePeriodRepo{})
		rec := post(handler, `{
			"school_year": "2025-2026",
			"period_type": "FIRST_SEMESTER",
			"start_date": "2025-08-01T00:00:00Z",
			"end_date": "2025-12-20T00:00:00Z"
		}`)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, true, env.Data["valid"])
		assert.Empty(t, env.Data["errors"])
	})

	t.Run("rule violations are listed", func(t *testing.T) {
		handler := newPeriodHandler(&fakePeriodRepo{})
		rec := post(handler, `{
			"school_year": "2025-2027",
			"period_type": "FIRST_SEMESTER",
			"start_date": "2025-08-01T00:00:00Z",
			"end_date": "2025-12-20T00:00:00Z"
		}`)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, false, env.Data["valid"])
		errs := env.Data["errors"].([]interface{})
		assert.Len(t, errs, 1)
	})

	t.Run("duplicate is reported", func(t *testing.T) {
		handler := newPeriodHandler(&fakePeriodRepo{periods: []models.AcademicPeriod{{
			ID:         "p-1",
			SchoolYear: "2025-2026",
			PeriodType: models.PeriodTypeFirstSemester,
			StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		}}})
		rec := post(handler, `{
			"school_year": "2025-2026",
			"period_type": "FIRST_SEMESTER",
			"start_date": "2025-08-01T00:00:00Z",
			"end_date": "2025-12-20T00:00:00Z"
		}`)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, false, env.Data["valid"])
		duplicate := env.Data["duplicate"].(map[string]interface{})
		assert.Equal(t, true, duplicate["is_duplicate"])
	})
}

func TestPeriodHandlerTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakePeriodRepo{active: &models.AcademicPeriod{ID: "p-old", SchoolYear: "2024-2025"}}
	handler := newPeriodHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/academic-periods/transition", strings.NewReader(`{
		"school_year": "2025-2026",
		"period_type": "FIRST_SEMESTER",
		"start_date": "2025-08-01T00:00:00Z",
		"end_date": "2025-12-20T00:00:00Z"
	}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Transition(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "p-old", env.Data["previous_period_id"])
	require.Len(t, repo.created, 1)
	assert.Equal(t, "admin-1", repo.created[0].CreatedBy)
}

func TestPeriodHandlerCreateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPeriodHandler(&fakePeriodRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/academic-periods", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}
