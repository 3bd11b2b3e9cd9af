package jobs

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokoscrape-backend/services/jobs/db"

	"github.com/labstack/echo/v4"
)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func fail(c echo.Context, status int, code, message string, detail any) error {
	return c.JSON(status, errorEnvelope{Code: code, Message: message, Detail: detail})
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// RegisterRoutes mounts both route sets on the echo instance: the
// /api/v1/jobs surface and the older /scrape aliases kept for
// integrations that predate it.
func RegisterRoutes(e *echo.Echo, s Service) {
	e.GET("/health", handleHealth)

	v1 := e.Group("/api/v1")
	v1.POST("/jobs", s.handleCreateJob)
	v1.GET("/jobs", s.handleListJobs)
	v1.GET("/jobs/:id", s.handleJobStatus)
	v1.GET("/jobs/:id/results", s.handleJobResults)
	v1.DELETE("/jobs/:id", s.handleDeleteJob)

	legacy := e.Group("/scrape")
	legacy.POST("/search", s.handleLegacySearch)
	legacy.GET("/status/:id", s.handleJobStatus)
	legacy.GET("/results/:id", s.handleLegacyResults)
	legacy.GET("/jobs", s.handleLegacyListJobs)
	legacy.DELETE("/jobs/:id", s.handleDeleteJob)
}

func handleHealth(c echo.Context) error {
	return ok(c, map[string]string{
		"status":    "healthy",
		"service":   "tokoscrape",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func unixString(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func nullableUnixString(ts sql.NullInt64) *string {
	if !ts.Valid {
		return nil
	}
	s := unixString(ts.Int64)
	return &s
}

type jobPayload struct {
	JobID        string         `json:"job_id"`
	Status       string         `json:"status"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	StartedAt    *string        `json:"started_at"`
	CompletedAt  *string        `json:"completed_at"`
	ErrorMessage *string        `json:"error_message"`
	ResultCount  *int64         `json:"result_count"`
	Parameters   map[string]any `json:"parameters"`
}

func jobToPayload(job db.Job) jobPayload {
	out := jobPayload{
		JobID:       job.ID,
		Status:      job.Status,
		CreatedAt:   unixString(job.CreatedAt),
		UpdatedAt:   unixString(job.UpdatedAt),
		StartedAt:   nullableUnixString(job.StartedAt),
		CompletedAt: nullableUnixString(job.CompletedAt),
		Parameters: map[string]any{
			"query":         job.Query,
			"brand":         job.Brand,
			"max_products":  job.MaxProducts,
			"pages":         job.MaxPages,
			"output_format": job.OutputFormat,
		},
	}
	if job.ErrorMessage.Valid {
		out.ErrorMessage = &job.ErrorMessage.String
	}
	if job.ResultCount.Valid {
		out.ResultCount = &job.ResultCount.Int64
	}
	return out
}

type scrapeRequest struct {
	Query        string `json:"query"`
	Brand        string `json:"brand"`
	MaxProducts  int    `json:"max_products"`
	Pages        int    `json:"pages"`
	OutputFormat string `json:"output_format"`
}

// validate rejects bad parameters before any network activity and
// fills in the documented defaults.
func (r *scrapeRequest) validate() (string, error) {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return "MISSING_QUERY", fmt.Errorf("query is required")
	}

	if r.MaxProducts == 0 {
		r.MaxProducts = 100
	}
	if r.MaxProducts < 1 || r.MaxProducts > 1000 {
		return "INVALID_MAX_PRODUCTS", fmt.Errorf("max_products must be between 1 and 1000")
	}

	if r.Pages != 0 && (r.Pages < 1 || r.Pages > 50) {
		return "INVALID_PAGES", fmt.Errorf("pages must be between 1 and 50")
	}

	if r.OutputFormat == "" {
		r.OutputFormat = "json"
	}
	if r.OutputFormat != "json" && r.OutputFormat != "csv" {
		return "INVALID_OUTPUT_FORMAT", fmt.Errorf("output_format must be json or csv")
	}

	return "", nil
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

func (s Service) startJob(c echo.Context, req scrapeRequest) error {
	if code, err := req.validate(); err != nil {
		return fail(c, http.StatusBadRequest, code, err.Error(), nil)
	}

	job, err := s.Create(c.Request().Context(), CreateJobParams{
		Query:        req.Query,
		Brand:        req.Brand,
		MaxProducts:  req.MaxProducts,
		MaxPages:     req.Pages,
		OutputFormat: req.OutputFormat,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "JOB_CREATE_FAILED", "Failed to create job", err.Error())
	}

	return ok(c, map[string]any{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": fmt.Sprintf("Scraping job started for query: %s", req.Query),
	})
}

func (s Service) handleCreateJob(c echo.Context) error {
	req := scrapeRequest{
		Query:        c.QueryParam("query"),
		Brand:        c.QueryParam("brand"),
		OutputFormat: c.QueryParam("output_format"),
	}

	var err error
	req.MaxProducts, err = intQueryParam(c, "max_products", 0)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_MAX_PRODUCTS", err.Error(), nil)
	}
	req.Pages, err = intQueryParam(c, "pages", 0)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGES", err.Error(), nil)
	}

	return s.startJob(c, req)
}

func (s Service) handleLegacySearch(c echo.Context) error {
	var req scrapeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", nil)
	}
	return s.startJob(c, req)
}

func (s Service) handleJobStatus(c echo.Context) error {
	job, err := s.Get(c.Request().Context(), c.Param("id"))
	if err == ErrNotFound {
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query job", err.Error())
	}
	return ok(c, jobToPayload(job))
}

func (s Service) handleListJobs(c echo.Context) error {
	page, err := intQueryParam(c, "page", 1)
	if err != nil || page < 1 {
		return fail(c, http.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer", nil)
	}
	pageSize, err := intQueryParam(c, "page_size", 20)
	if err != nil || pageSize < 1 || pageSize > 100 {
		return fail(c, http.StatusBadRequest, "INVALID_PAGE_SIZE", "page_size must be between 1 and 100", nil)
	}

	jobs, err := s.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list jobs", err.Error())
	}

	totalJobs := len(jobs)
	totalPages := (totalJobs + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start > totalJobs {
		start = totalJobs
	}
	end := start + pageSize
	if end > totalJobs {
		end = totalJobs
	}

	payloads := make([]jobPayload, 0, end-start)
	for _, job := range jobs[start:end] {
		payloads = append(payloads, jobToPayload(job))
	}

	return ok(c, map[string]any{
		"total_jobs":  totalJobs,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"jobs":        payloads,
	})
}

func (s Service) handleLegacyListJobs(c echo.Context) error {
	jobs, err := s.List(c.Request().Context(), "")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list jobs", err.Error())
	}

	payloads := make([]jobPayload, 0, len(jobs))
	for _, job := range jobs {
		payloads = append(payloads, jobToPayload(job))
	}
	return ok(c, map[string]any{"jobs": payloads})
}

func (s Service) handleJobResults(c echo.Context) error {
	page, err := intQueryParam(c, "page", 1)
	if err != nil || page < 1 {
		return fail(c, http.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer", nil)
	}
	pageSize, err := intQueryParam(c, "page_size", 100)
	if err != nil || pageSize < 1 || pageSize > 1000 {
		return fail(c, http.StatusBadRequest, "INVALID_PAGE_SIZE", "page_size must be between 1 and 1000", nil)
	}

	job, products, err := s.Results(c.Request().Context(), c.Param("id"))
	if err == ErrNotFound {
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	}
	if err != nil {
		// results.json appears once the worker finishes, before that
		// the job has no items to serve
		products = nil
	}

	totalItems := len(products)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return ok(c, map[string]any{
		"job_id":      job.ID,
		"status":      job.Status,
		"total_items": totalItems,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"items":       products[start:end],
	})
}

func (s Service) handleLegacyResults(c echo.Context) error {
	job, products, err := s.Results(c.Request().Context(), c.Param("id"))
	if err == ErrNotFound {
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	}
	if job.Status != StatusCompleted {
		return fail(
			c, http.StatusBadRequest, "JOB_NOT_COMPLETED",
			fmt.Sprintf("Job is not completed yet. Current status: %s", job.Status), nil,
		)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "RESULTS_UNAVAILABLE", "Failed to read job results", err.Error())
	}

	return ok(c, map[string]any{
		"job_id":       job.ID,
		"status":       job.Status,
		"result_count": len(products),
		"results":      products,
	})
}

func (s Service) handleDeleteJob(c echo.Context) error {
	err := s.Delete(c.Request().Context(), c.Param("id"))
	if err == ErrNotFound {
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "JOB_DELETE_FAILED", "Failed to delete job", err.Error())
	}
	return ok(c, map[string]string{
		"message": fmt.Sprintf("Job %s deleted successfully", c.Param("id")),
	})
}
