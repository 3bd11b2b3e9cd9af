package jobs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tokoscrape-backend/lib/scrapers/tokopedia"
	"tokoscrape-backend/lib/telemetry"
	"tokoscrape-backend/services/jobs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, runner jobs.Runner) (*echo.Echo, jobs.Service) {
	t.Helper()
	service, _ := newTestService(t, runner)
	e := echo.New()
	jobs.RegisterRoutes(e, service)
	return e, service
}

func doRequest(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	return rec, payload
}

func TestHealthEndpoint(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, _ := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return nil, nil
	}))

	rec, payload := doRequest(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", payload["status"])
}

func TestCreateJobValidation(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	var runs atomic.Int64
	e, _ := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		runs.Add(1)
		return nil, nil
	}))

	// rejected before any job exists
	rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MISSING_QUERY", payload["code"])

	rec, payload = doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone&max_products=5000", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_MAX_PRODUCTS", payload["code"])

	rec, payload = doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone&pages=99", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_PAGES", payload["code"])

	rec, payload = doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone&output_format=xml", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_OUTPUT_FORMAT", payload["code"])

	require.EqualValues(t, 0, runs.Load())
}

func TestCreateJobAndStatus(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return sampleProducts(), nil
	}))

	rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone+13&brand=Apple&max_products=25&output_format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobId, ok := payload["job_id"].(string)
	require.True(t, ok)
	require.Equal(t, "pending", payload["status"])

	waitForStatus(t, service, jobId, jobs.StatusCompleted)

	rec, payload = doRequest(e, http.MethodGet, "/api/v1/jobs/"+jobId, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "completed", payload["status"])
	require.EqualValues(t, 1, payload["result_count"])

	params, ok := payload["parameters"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "iphone 13", params["query"])
	require.Equal(t, "Apple", params["brand"])
	require.EqualValues(t, 25, params["max_products"])
	require.Equal(t, "csv", params["output_format"])
}

func TestLegacySearchBindsJsonBody(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return sampleProducts(), nil
	}))

	rec, payload := doRequest(
		e, http.MethodPost, "/scrape/search",
		`{"query": "iphone 13", "brand": "Apple", "max_products": 10}`,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	jobId := payload["job_id"].(string)

	job := waitForStatus(t, service, jobId, jobs.StatusCompleted)
	require.Equal(t, "iphone 13", job.Query)
	require.EqualValues(t, 10, job.MaxProducts)
}

func TestJobStatusNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, _ := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return nil, nil
	}))

	rec, payload := doRequest(e, http.MethodGet, "/api/v1/jobs/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "JOB_NOT_FOUND", payload["code"])

	rec, payload = doRequest(e, http.MethodGet, "/scrape/status/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "JOB_NOT_FOUND", payload["code"])
}

func TestResultsEndpoints(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return sampleProducts(), nil
	}))

	rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobId := payload["job_id"].(string)
	waitForStatus(t, service, jobId, jobs.StatusCompleted)

	rec, payload = doRequest(e, http.MethodGet, "/api/v1/jobs/"+jobId+"/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, payload["total_items"])
	require.EqualValues(t, 1, payload["total_pages"])
	items := payload["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	require.Equal(t, "iPhone 13 Used", first["Title"])

	rec, payload = doRequest(e, http.MethodGet, "/scrape/results/"+jobId, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, payload["result_count"])
}

func TestLegacyResultsRejectsIncompleteJob(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	release := make(chan struct{})
	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		<-release
		return nil, nil
	}))

	rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobId := payload["job_id"].(string)

	rec, payload = doRequest(e, http.MethodGet, "/scrape/results/"+jobId, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "JOB_NOT_COMPLETED", payload["code"])

	close(release)
	waitForStatus(t, service, jobId, jobs.StatusCompleted)
}

func TestListJobsPagination(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return sampleProducts(), nil
	}))

	var ids []string
	for i := 0; i < 3; i++ {
		rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone", "")
		require.Equal(t, http.StatusOK, rec.Code)
		ids = append(ids, payload["job_id"].(string))
	}
	for _, id := range ids {
		waitForStatus(t, service, id, jobs.StatusCompleted)
	}

	rec, payload := doRequest(e, http.MethodGet, "/api/v1/jobs?page=1&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, payload["total_jobs"])
	require.EqualValues(t, 2, payload["total_pages"])
	require.Len(t, payload["jobs"].([]any), 2)

	rec, payload = doRequest(e, http.MethodGet, "/api/v1/jobs?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, payload["jobs"].([]any), 1)

	rec, payload = doRequest(e, http.MethodGet, "/scrape/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, payload["jobs"].([]any), 3)

	rec, payload = doRequest(e, http.MethodGet, "/api/v1/jobs?page_size=500", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_PAGE_SIZE", payload["code"])
}

func TestDeleteJobEndpoint(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:jobs")
	defer cleanup()

	e, service := newTestApi(t, jobs.RunnerFunc(func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
		return sampleProducts(), nil
	}))

	rec, payload := doRequest(e, http.MethodPost, "/api/v1/jobs?query=iphone", "")
	require.Equal(t, http.StatusOK, rec.Code)
	jobId := payload["job_id"].(string)
	waitForStatus(t, service, jobId, jobs.StatusCompleted)

	rec, _ = doRequest(e, http.MethodDelete, "/api/v1/jobs/"+jobId, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = doRequest(e, http.MethodDelete, "/api/v1/jobs/"+jobId, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "JOB_NOT_FOUND", payload["code"])
}
