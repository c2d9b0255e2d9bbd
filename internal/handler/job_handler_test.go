package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orderlens/internal/domain"
	"orderlens/internal/service"
	"orderlens/mocks"
)

func setupJobRouter(svc service.JobService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewJobHandler(svc)
	r := gin.New()
	jobs := r.Group("/api/v1/jobs")
	jobs.POST("", h.Submit)
	jobs.GET("", h.List)
	jobs.GET("/:id", h.GetByID)
	jobs.GET("/:id/result/:model", h.Result)
	jobs.GET("/:id/excel/:model", h.Excel)
	jobs.GET("/:id/comparison", h.Comparison)
	return r
}

func multipartBody(t *testing.T, models string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "order.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	require.NoError(t, err)
	if models != "" {
		require.NoError(t, w.WriteField("models", models))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestJobHandler_Submit(t *testing.T) {
	svc := new(mocks.MockJobService)
	job := &domain.Job{
		ID:     uuid.New(),
		Status: domain.JobStatusProcessing,
		ModelResults: map[string]*domain.ModelRun{
			"gemini": {Model: "gemini", Status: domain.RunStatusProcessing},
			"claude": {Model: "claude", Status: domain.RunStatusProcessing},
		},
	}
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(in service.JobSubmitInput) bool {
		return len(in.Models) == 2 && in.Models[0] == "gemini" && in.Models[1] == "claude" &&
			in.Header.Filename == "order.png"
	})).Return(job, nil).Once()

	r := setupJobRouter(svc)
	body, contentType := multipartBody(t, "gemini, claude")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeEnvelope(t, w.Body)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestJobHandler_SubmitMissingFile(t *testing.T) {
	svc := new(mocks.MockJobService)
	r := setupJobRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w.Body)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_FILE", resp.Error.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestJobHandler_SubmitUnknownModel(t *testing.T) {
	svc := new(mocks.MockJobService)
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, domain.ErrUnknownModel).Once()

	r := setupJobRouter(svc)
	body, contentType := multipartBody(t, "mistral")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w.Body)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_MODEL", resp.Error.Code)
}

func TestJobHandler_GetByID(t *testing.T) {
	jobID := uuid.New()
	svc := new(mocks.MockJobService)
	svc.On("GetByID", mock.Anything, jobID).Return(&domain.Job{
		ID:     jobID,
		Status: domain.JobStatusCompleted,
	}, nil).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestJobHandler_GetByIDInvalidUUID(t *testing.T) {
	svc := new(mocks.MockJobService)
	r := setupJobRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_GetByIDNotFound(t *testing.T) {
	jobID := uuid.New()
	svc := new(mocks.MockJobService)
	svc.On("GetByID", mock.Anything, jobID).Return(nil, domain.ErrJobNotFound).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w.Body)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "JOB_NOT_FOUND", resp.Error.Code)
}

func TestJobHandler_List(t *testing.T) {
	svc := new(mocks.MockJobService)
	svc.On("List", mock.Anything).Return([]domain.JobSummary{
		{ID: uuid.New(), Status: domain.JobStatusCompleted, CreatedAt: time.Now()},
	}, nil).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestJobHandler_ResultNotReady(t *testing.T) {
	jobID := uuid.New()
	svc := new(mocks.MockJobService)
	svc.On("Result", mock.Anything, jobID, "gemini").Return(nil, domain.ErrResultNotReady).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/result/gemini", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeEnvelope(t, w.Body)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESULT_NOT_READY", resp.Error.Code)
}

func TestJobHandler_Excel(t *testing.T) {
	jobID := uuid.New()
	name := "Shirt"
	result := &domain.ExtractionResult{
		Products: []domain.Product{
			{
				Name: &name,
				Colors: []domain.Color{
					{Sizes: []domain.SizeEntry{{Size: "M", Quantity: 2}}},
				},
			},
		},
		OrderInfo: domain.OrderInfo{},
	}

	svc := new(mocks.MockJobService)
	svc.On("Result", mock.Anything, jobID, "gemini").Return(result, nil).Once()
	svc.On("GetByID", mock.Anything, jobID).Return(&domain.Job{
		ID:           jobID,
		Status:       domain.JobStatusCompleted,
		OriginalName: "spring order.pdf",
	}, nil).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/excel/gemini", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "spring_order_pdf_gemini_")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
	svc.AssertExpectations(t)
}

func TestJobHandler_Comparison(t *testing.T) {
	jobID := uuid.New()
	svc := new(mocks.MockJobService)
	svc.On("ComparisonFor", mock.Anything, jobID).Return(&domain.Comparison{
		JobID:  jobID,
		Models: []string{"claude", "gemini"},
	}, nil).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/comparison", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestJobHandler_ComparisonNotReady(t *testing.T) {
	jobID := uuid.New()
	svc := new(mocks.MockJobService)
	svc.On("ComparisonFor", mock.Anything, jobID).Return(nil, domain.ErrComparisonNotReady).Once()

	r := setupJobRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/comparison", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
