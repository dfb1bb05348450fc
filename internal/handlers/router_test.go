package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/numbering"
	"github.com/leonthanh/listening-service/internal/repositories"
	"github.com/leonthanh/listening-service/internal/services"
	"github.com/leonthanh/listening-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== STUB SERVICES =====

type stubTestService struct {
	detail *services.TestDetail
	err    error
}

func (s *stubTestService) Create(context.Context, *services.CreateTestRequest) (*models.ListeningTest, error) {
	return &models.ListeningTest{ID: 1}, nil
}
func (s *stubTestService) Get(context.Context, uint) (*services.TestDetail, error) {
	return s.detail, s.err
}
func (s *stubTestService) Update(context.Context, uint, *services.UpdateTestRequest) (*models.ListeningTest, error) {
	return nil, s.err
}
func (s *stubTestService) Delete(context.Context, uint) error { return s.err }
func (s *stubTestService) List(context.Context, repositories.TestFilters) ([]*models.ListeningTest, int64, error) {
	return nil, 0, nil
}

type stubAttemptService struct {
	active     *models.ListeningSubmission
	submission *models.ListeningSubmission
	err        error

	lastAutosave *services.AutosaveRequest
	lastSubmit   *services.SubmitRequest
}

func (s *stubAttemptService) Autosave(_ context.Context, req *services.AutosaveRequest) (*services.AutosaveResponse, error) {
	s.lastAutosave = req
	if s.err != nil {
		return nil, s.err
	}
	return &services.AutosaveResponse{SubmissionID: 7, SavedAt: time.Now()}, nil
}

func (s *stubAttemptService) Active(context.Context, uint, int64, string) (*models.ListeningSubmission, error) {
	return s.active, s.err
}

func (s *stubAttemptService) Submit(_ context.Context, req *services.SubmitRequest) (*models.ListeningSubmission, error) {
	s.lastSubmit = req
	if s.err != nil {
		return nil, s.err
	}
	return s.submission, nil
}

func (s *stubAttemptService) GetSubmission(context.Context, uint) (*services.SubmissionDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.SubmissionDetail{Submission: s.submission}, nil
}

func (s *stubAttemptService) Cleanup(context.Context, uint, string) (*services.CleanupResult, error) {
	return &services.CleanupResult{Deleted: 1}, s.err
}

func (s *stubAttemptService) ListSubmissions(context.Context, repositories.SubmissionFilters) ([]*models.ListeningSubmission, int64, error) {
	return nil, 0, nil
}

type stubExportService struct{}

func (s *stubExportService) ExportTestResults(context.Context, uint) ([]byte, error) {
	return []byte("xlsx"), nil
}

func newTestRouter(testSvc services.TestService, attemptSvc services.AttemptService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	manager := NewHandlerManager(testSvc, attemptSvc, &stubExportService{}, utils.NewDefaultLogger())
	manager.SetupRoutes(router)
	return router
}

// ===== TESTS =====

func TestGetTestRoute(t *testing.T) {
	testSvc := &stubTestService{detail: &services.TestDetail{
		Test:           &models.ListeningTest{ID: 3, Title: "Test 3", Duration: 30},
		TotalQuestions: 10,
		Slots:          [][]numbering.Slot{},
	}}
	router := newTestRouter(testSvc, &stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listening-tests/3", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Test 3", body["title"])
	assert.Equal(t, float64(10), body["totalQuestions"])
}

func TestGetTestNotFound(t *testing.T) {
	router := newTestRouter(&stubTestService{err: services.ErrTestNotFound}, &stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listening-tests/99", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRoute(t *testing.T) {
	now := time.Now()
	attemptSvc := &stubAttemptService{submission: &models.ListeningSubmission{
		ID: 5, TotalQuestions: 40, Correct: 30, Percentage: 75, Band: 7.0,
		Finished: true, SubmittedAt: &now,
	}}
	router := newTestRouter(&stubTestService{}, attemptSvc)

	payload := `{"answers":{"q1":"a","q6":[0,2]},"user":{"id":"u1","name":"An"},"submissionId":5}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening-tests/3/submit", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["submissionId"])
	assert.Equal(t, float64(30), body["correct"])
	assert.Equal(t, 7.0, body["band"])

	// The flexible answer values reached the service intact.
	require.NotNil(t, attemptSvc.lastSubmit)
	assert.Equal(t, "u1", attemptSvc.lastSubmit.UserID)
	multi := attemptSvc.lastSubmit.Answers["q6"]
	assert.Equal(t, []int{0, 2}, multi.Indices)
}

func TestSubmitConflictWhenFinished(t *testing.T) {
	router := newTestRouter(&stubTestService{}, &stubAttemptService{err: services.ErrAlreadySubmitted})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening-tests/3/submit", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAutosaveRoute(t *testing.T) {
	attemptSvc := &stubAttemptService{}
	router := newTestRouter(&stubTestService{}, attemptSvc)

	payload := `{"submissionId":0,"answers":{"q1":"a"},"expiresAt":1700000000000,"user":"anon-tab"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening-submissions/3/autosave", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["submissionId"])
	assert.NotEmpty(t, body["savedAt"])

	// A bare string user decodes to the id.
	require.NotNil(t, attemptSvc.lastAutosave)
	assert.Equal(t, "anon-tab", attemptSvc.lastAutosave.UserID)
	assert.Equal(t, int64(1_700_000_000_000), attemptSvc.lastAutosave.ExpiresAt)
}

func TestAutosaveEmptyRejected(t *testing.T) {
	router := newTestRouter(&stubTestService{}, &stubAttemptService{err: services.ErrEmptyAutosave})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening-submissions/3/autosave", strings.NewReader(`{"answers":{}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActiveRouteNull(t *testing.T) {
	router := newTestRouter(&stubTestService{}, &stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listening-submissions/3/active?userId=u1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, hasKey := body["submission"]
	assert.True(t, hasKey)
	assert.Nil(t, body["submission"])
}

func TestCleanupRouteWithoutBody(t *testing.T) {
	router := newTestRouter(&stubTestService{}, &stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listening-submissions/3/cleanup", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["deleted"])
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(&stubTestService{}, &stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
