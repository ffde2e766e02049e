package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/background"
	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/cv/recovery"
	"jobportal-cv/internal/cv/validate"
	"jobportal-cv/internal/form"
	"jobportal-cv/pkg/models"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

type fakePipeline struct {
	mu     sync.Mutex
	result func() *cv.Result
	err    error
	calls  int
}

func (f *fakePipeline) Process(ctx context.Context, doc *document.EncodedDocument) (*cv.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakePipeline) NormalizeText(text string) (*cv.Result, error) {
	p := cv.NewPipeline(nil)
	return p.NormalizeText(text)
}

func (f *fakePipeline) Validate(profile *models.UnifiedProfileData) models.ValidationResult {
	return validate.Validate(profile)
}

type fakeArchiver struct {
	err error
}

func (f *fakeArchiver) UploadCV(ownerID, filename, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/candidates/cv/" + ownerID + "/" + filename, nil
}

func extractedResult() *cv.Result {
	profile := models.NewUnifiedProfileData()
	profile.FirstName = "Ana"
	profile.LastName = "Li"
	profile.WorkExperience = []models.WorkExperienceData{{Title: "Engineer", Company: "Acme", StartDate: "2020-01-01", IsCurrent: true}}
	return &cv.Result{
		Profile:       profile,
		Validation:    validate.Validate(profile),
		Warnings:      []string{},
		PromptVersion: "cv-extraction/v1",
		Provider:      "fake",
	}
}

func newGuard() *document.Guard {
	return document.NewGuard(document.GuardConfig{MaxSizeBytes: 1024})
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(UploadField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func serve(e *echo.Echo, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func jsonBody(v interface{}) *bytes.Buffer {
	data, _ := json.Marshal(v)
	return bytes.NewBuffer(data)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestValidation(middleware.DefaultMaxBodyBytes))
	return e
}

func TestExtractCVHandler(t *testing.T) {
	pipeline := &fakePipeline{result: extractedResult}
	e := newTestEcho()
	e.POST("/extract", ExtractCVHandler(pipeline, newGuard(), &fakeArchiver{}))

	body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
	rec := serve(e, http.MethodPost, "/extract", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CVExtractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Ana", resp.Profile.FirstName)
	assert.True(t, resp.Validation.IsValid)
	assert.Equal(t, []string{}, resp.Validation.Errors)
	require.Len(t, resp.Profile.CVDocuments, 1)
	assert.Equal(t, "ana.pdf", resp.Profile.CVDocuments[0].FileName)
	assert.NotEmpty(t, resp.RequestID)
}

func TestExtractCVHandlerArchiveFailureIsAWarning(t *testing.T) {
	pipeline := &fakePipeline{result: extractedResult}
	e := newTestEcho()
	e.POST("/extract", ExtractCVHandler(pipeline, newGuard(), &fakeArchiver{err: errors.New("bucket gone")}))

	body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
	rec := serve(e, http.MethodPost, "/extract", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CVExtractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Profile.CVDocuments)
	assert.Contains(t, resp.Warnings, "cv archive failed: bucket gone")
}

func TestExtractCVHandlerRejectsUploads(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		want    int
	}{
		{"too large", "big.pdf", append([]byte(samplePDF), bytes.Repeat([]byte("x"), 2048)...), http.StatusRequestEntityTooLarge},
		{"not a pdf", "cv.txt", []byte("just some text"), http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &fakePipeline{result: extractedResult}
			e := newTestEcho()
			e.POST("/extract", ExtractCVHandler(pipeline, newGuard(), nil))

			body, ct := multipartBody(t, tt.file, tt.content)
			rec := serve(e, http.MethodPost, "/extract", body, ct)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, 0, pipeline.calls, "rejected before the pipeline")
		})
	}

	e := newTestEcho()
	e.POST("/extract", ExtractCVHandler(&fakePipeline{result: extractedResult}, newGuard(), nil))
	rec := serve(e, http.MethodPost, "/extract", jsonBody(map[string]string{}), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing file field")
}

func TestExtractCVHandlerPipelineFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"extraction", &cv.ExtractionServiceError{Err: errors.New("quota exceeded")}, CodeExtractionFailed},
		{"parsing", &recovery.ParseError{Reason: recovery.ReasonNoJSON}, CodeParseFailed},
		{"encoding", &document.EncodingError{Err: errors.New("unreadable")}, CodeEncodingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			e.POST("/extract", ExtractCVHandler(&fakePipeline{err: tt.err}, newGuard(), nil))

			body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
			rec := serve(e, http.MethodPost, "/extract", body, ct)
			require.Equal(t, http.StatusBadGateway, rec.Code)

			var resp models.CVFailureResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, cv.UserMessage, resp.Message)
			assert.Equal(t, tt.err.Error(), resp.Detail)
		})
	}
}

func TestExtractCVAsyncHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.PoolSize = 1
	tm := background.NewTaskManager(cfg, &fakePipeline{result: extractedResult})
	require.NoError(t, tm.Start(context.Background()))
	defer func() { _ = tm.Stop(context.Background()) }()

	e := newTestEcho()
	e.POST("/extract/async", ExtractCVAsyncHandler(tm, newGuard(), &fakeArchiver{}))
	e.GET("/tasks/:processId", TaskStatusHandler(tm))

	body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
	rec := serve(e, http.MethodPost, "/extract/async", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted models.AsyncExtractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, models.AsyncStatusAccepted, accepted.Status)

	var status struct {
		Status models.AsyncStatus `json:"status"`
		Data   struct {
			Profile     models.UnifiedProfileData `json:"profile"`
			DocumentURL string                    `json:"document_url"`
		} `json:"data"`
	}
	require.Eventually(t, func() bool {
		rec := serve(e, http.MethodGet, "/tasks/"+accepted.ProcessID, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &status)
		return status.Status == models.AsyncStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Ana", status.Data.Profile.FirstName)
	assert.True(t, strings.HasSuffix(status.Data.DocumentURL, "/ana.pdf"))

	rec = serve(e, http.MethodGet, "/tasks/cvx_00000000-0000-0000-0000-000000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(e, http.MethodGet, "/tasks/nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileHandlers(t *testing.T) {
	e := newTestEcho()
	pipeline := &fakePipeline{}
	e.POST("/validate", ValidateProfileHandler(pipeline))
	e.POST("/normalize", NormalizeProfileHandler(pipeline))

	rec := serve(e, http.MethodPost, "/validate", jsonBody(map[string]interface{}{
		"first_name":      "Ana",
		"work_experience": []map[string]string{{"title": "Engineer"}},
	}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	var validation models.ProfileValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validation))
	assert.False(t, validation.Validation.IsValid)
	assert.Equal(t, []string{
		"Last name is required",
		"Work experience #1: company is required",
		"Work experience #1: start date is required",
	}, validation.Validation.Errors)

	inputs := map[string]*bytes.Buffer{
		"raw text":  jsonBody(map[string]string{"raw_text": "```json\n{\"basic_info\":{\"first_name\":\"Ana\",\"last_name\":\"Li\"}}\n```"}),
		"extracted": jsonBody(map[string]interface{}{"extracted": map[string]interface{}{"basic_info": map[string]string{"first_name": "Ana", "last_name": "Li"}}}),
		"bare":      bytes.NewBufferString(`{"basic_info":{"first_name":"Ana","last_name":"Li"}}`),
	}
	for name, body := range inputs {
		t.Run(name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, "/normalize", body, echo.MIMEApplicationJSON)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp models.ProfileNormalizationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Ana", resp.Profile.FirstName)
			assert.True(t, resp.Validation.IsValid)
		})
	}

	rec = serve(e, http.MethodPost, "/normalize", jsonBody(map[string]string{"raw_text": "sorry, I cannot read this file"}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), recovery.ReasonNoJSON)
}

type submitterFunc func(ctx context.Context, candidateID string, p *models.UnifiedProfileData) error

func (f submitterFunc) SubmitProfile(ctx context.Context, candidateID string, p *models.UnifiedProfileData) error {
	return f(ctx, candidateID, p)
}

func newFormEcho(svc *form.Service, pipeline CVPipeline) *echo.Echo {
	e := newTestEcho()
	e.POST("/forms", CreateFormHandler(svc))
	e.GET("/forms/:id", GetFormHandler(svc))
	e.DELETE("/forms/:id", DeleteFormHandler(svc))
	e.POST("/forms/:id/cv", UploadFormCVHandler(svc, pipeline, newGuard(), nil))
	e.PUT("/forms/:id/steps/:step", UpdateFormStepHandler(svc))
	e.POST("/forms/:id/submit", SubmitFormHandler(svc))
	return e
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) *form.Session {
	t.Helper()
	var s form.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s), rec.Body.String())
	return &s
}

func TestFormLifecycle(t *testing.T) {
	var submitted *models.UnifiedProfileData
	svc := form.NewService(form.NewMemoryStore(), validate.New(), submitterFunc(func(_ context.Context, _ string, p *models.UnifiedProfileData) error {
		submitted = p
		return nil
	}), time.Hour)
	e := newFormEcho(svc, &fakePipeline{result: extractedResult})

	rec := serve(e, http.MethodPost, "/forms", jsonBody(map[string]string{"candidate_id": "cand-1"}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeSession(t, rec)
	assert.Equal(t, 1, session.Version)
	assert.False(t, session.Validation.IsValid)

	body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
	rec = serve(e, http.MethodPost, "/forms/"+session.ID+"/cv", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	session = decodeSession(t, rec)
	assert.Equal(t, 2, session.Version)
	assert.Equal(t, "Ana", session.Profile.FirstName)
	require.NotNil(t, session.Extraction)
	assert.Equal(t, "ana.pdf", session.Extraction.FileName)

	rec = serve(e, http.MethodPut, "/forms/"+session.ID+"/steps/skills", jsonBody(map[string]interface{}{
		"expected_version": 1,
		"data":             []map[string]string{{"skill_name": "Go"}},
	}), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusConflict, rec.Code, "stale version")

	rec = serve(e, http.MethodPut, "/forms/"+session.ID+"/steps/skills", jsonBody(map[string]interface{}{
		"expected_version": 2,
		"data":             []map[string]string{{"skill_name": "Go"}},
	}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session = decodeSession(t, rec)
	assert.Equal(t, []string{"Go"}, session.Profile.Skills)

	rec = serve(e, http.MethodPut, "/forms/"+session.ID+"/steps/hobbies", jsonBody(map[string]interface{}{
		"expected_version": 3,
		"data":             []string{},
	}), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodPost, "/forms/"+session.ID+"/submit", jsonBody(map[string]int{"expected_version": 3}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, submitted)
	assert.Equal(t, "Ana", submitted.FirstName)

	rec = serve(e, http.MethodGet, "/forms/"+session.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "submitted sessions are removed")
}

func TestFormUploadFailureLeavesSessionUntouched(t *testing.T) {
	svc := form.NewService(form.NewMemoryStore(), validate.New(), nil, time.Hour)
	e := newFormEcho(svc, &fakePipeline{err: &cv.ExtractionServiceError{Err: errors.New("timeout")}})

	rec := serve(e, http.MethodPost, "/forms", jsonBody(map[string]interface{}{
		"profile": map[string]string{"first_name": "Joana"},
	}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeSession(t, rec)

	body, ct := multipartBody(t, "ana.pdf", []byte(samplePDF))
	rec = serve(e, http.MethodPost, "/forms/"+session.ID+"/cv", body, ct)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(e, http.MethodGet, "/forms/"+session.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeSession(t, rec)
	assert.Equal(t, 1, after.Version)
	assert.Equal(t, "Joana", after.Profile.FirstName)
}

func TestFormSubmitInvalidProfile(t *testing.T) {
	svc := form.NewService(form.NewMemoryStore(), validate.New(), nil, time.Hour)
	e := newFormEcho(svc, &fakePipeline{result: extractedResult})

	rec := serve(e, http.MethodPost, "/forms", jsonBody(map[string]string{}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeSession(t, rec)

	rec = serve(e, http.MethodPost, fmt.Sprintf("/forms/%s/submit", session.ID), jsonBody(map[string]int{"expected_version": 1}), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "First name is required")

	rec = serve(e, http.MethodDelete, "/forms/"+session.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFormOwnership(t *testing.T) {
	svc := form.NewService(form.NewMemoryStore(), validate.New(), nil, time.Hour)
	session, err := svc.Create(context.Background(), "cand-1", nil)
	require.NoError(t, err)

	token, err := middleware.SignToken("s3cret", "", "cand-2", time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.RequestValidation(0), middleware.JWTAuth("s3cret", ""))
	e.GET("/forms/:id", GetFormHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/forms/"+session.ID, nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadinessHandler(t *testing.T) {
	e := echo.New()
	e.GET("/ready", ReadinessHandler(HealthChecks{
		"llm":   func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}))
	e.GET("/status", StatusHandler(HealthChecks{
		"llm": func(context.Context) error { return nil },
	}))

	rec := serve(e, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["llm"])
	assert.Equal(t, "unavailable: connection refused", resp.Checks["redis"])

	rec = serve(e, http.MethodGet, "/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "operational", resp.Status)
}
