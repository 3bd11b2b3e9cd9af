package jobs

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"tokoscrape-backend/lib/scrapers/tokopedia"
	"tokoscrape-backend/services/jobs/db"
	"tokoscrape-backend/services/scrape"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/jobs")

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("job not found")

// Runner executes one scrape run, tests swap it for a stub.
type Runner interface {
	Run(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error)
}

type RunnerFunc func(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error)

func (f RunnerFunc) Run(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
	return f(ctx, opts)
}

// DriverRunner runs the GraphQL driver with a fresh scraping session
// per job, fabricated device ids should not be shared across jobs.
type DriverRunner struct {
	Client tokopedia.ClientOptions
}

func (r DriverRunner) Run(ctx context.Context, opts tokopedia.Options) ([]tokopedia.Product, error) {
	client, err := tokopedia.NewClient(r.Client)
	if err != nil {
		return nil, err
	}
	return tokopedia.NewDriver(client, opts).Run(ctx)
}

type Service struct {
	db     *sql.DB
	qry    *db.Queries
	store  scrape.Store
	runner Runner
	delay  time.Duration
}

func NewService(database *sql.DB, store scrape.Store, runner Runner, delay time.Duration) Service {
	return Service{
		db:     database,
		qry:    db.New(database),
		store:  store,
		runner: runner,
		delay:  delay,
	}
}

type CreateJobParams struct {
	Query        string
	Brand        string
	MaxProducts  int
	MaxPages     int
	OutputFormat string
}

func (p CreateJobParams) parameterMap() map[string]any {
	return map[string]any{
		"query":         p.Query,
		"brand":         p.Brand,
		"max_products":  p.MaxProducts,
		"pages":         p.MaxPages,
		"output_format": p.OutputFormat,
	}
}

// Create registers a pending job and spawns its worker goroutine. The
// worker outlives the request context on purpose.
func (s Service) Create(ctx context.Context, params CreateJobParams) (db.Job, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("query", params.Query),
		attribute.Int("max_products", params.MaxProducts),
	)

	jobId := uuid.NewString()
	now := time.Now().Unix()
	err := s.qry.CreateJob(ctx, db.CreateJobParams{
		ID:           jobId,
		Status:       StatusPending,
		Query:        params.Query,
		Brand:        params.Brand,
		MaxProducts:  int64(params.MaxProducts),
		MaxPages:     int64(params.MaxPages),
		OutputFormat: params.OutputFormat,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert job")
		return db.Job{}, err
	}

	err = s.store.EnsureJobDirs(jobId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create job directories")
		return db.Job{}, err
	}
	meta := scrape.NewJobMetadata(jobId, params.parameterMap())
	err = meta.Save(s.store.MetadataPath(jobId))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write job metadata")
		return db.Job{}, err
	}

	go s.runJob(jobId, params)

	return s.qry.GetJob(ctx, jobId)
}

func (s Service) saveMetadata(jobId string, mutate func(*scrape.JobMetadata)) {
	meta, err := scrape.LoadJobMetadata(s.store.MetadataPath(jobId))
	if err != nil {
		// job directory was deleted out from under us, nothing to record
		return
	}
	mutate(&meta)
	err = meta.Save(s.store.MetadataPath(jobId))
	if err != nil {
		slog.Warn("failed to save job metadata", "job_id", jobId, "err", err)
	}
}

func (s Service) runJob(jobId string, params CreateJobParams) {
	ctx, span := tracer.Start(context.Background(), "runJob")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	now := time.Now().Unix()
	rows, err := s.qry.SetJobRunning(ctx, db.SetJobRunningParams{
		UpdatedAt: now,
		StartedAt: now,
		ID:        jobId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark job running")
		return
	}
	if rows == 0 {
		// deleted before the worker got going
		s.discardArtifacts(ctx, jobId)
		return
	}
	s.saveMetadata(jobId, func(meta *scrape.JobMetadata) {
		meta.UpdateStatus(StatusRunning, "")
	})

	products, err := s.runner.Run(ctx, tokopedia.Options{
		Keyword:     params.Query,
		Brand:       params.Brand,
		MaxProducts: params.MaxProducts,
		MaxPages:    params.MaxPages,
		Delay:       s.delay,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		s.failJob(ctx, jobId, err)
		return
	}

	jsonRel, err := s.store.WriteResults(jobId, products)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write results")
		s.failJob(ctx, jobId, err)
		return
	}
	outputFiles := []string{jsonRel}

	if params.OutputFormat == "csv" {
		err = scrape.WriteCsv(s.store.ResultsCsvPath(jobId), products)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write csv")
			s.failJob(ctx, jobId, err)
			return
		}
		outputFiles = append(outputFiles, "csv/results.csv")
	}

	now = time.Now().Unix()
	rows, err = s.qry.SetJobCompleted(ctx, db.SetJobCompletedParams{
		UpdatedAt:   now,
		CompletedAt: now,
		ResultCount: int64(len(products)),
		ID:          jobId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark job completed")
		return
	}
	if rows == 0 {
		// deleted while the scrape was running, its output is unwanted
		s.discardArtifacts(ctx, jobId)
		return
	}

	s.saveMetadata(jobId, func(meta *scrape.JobMetadata) {
		for _, file := range outputFiles {
			meta.AddOutputFile(file)
		}
		meta.ResultsSummary["total_products"] = len(products)
		meta.ResultsSummary["query"] = params.Query
		meta.ResultsSummary["brand"] = params.Brand
		meta.UpdateStatus(StatusCompleted, "")
	})

	span.SetAttributes(attribute.Int("result_count", len(products)))
	slog.Info("job completed", "job_id", jobId, "result_count", len(products))
}

func (s Service) failJob(ctx context.Context, jobId string, cause error) {
	now := time.Now().Unix()
	rows, err := s.qry.SetJobFailed(ctx, db.SetJobFailedParams{
		UpdatedAt:    now,
		CompletedAt:  now,
		ErrorMessage: cause.Error(),
		ID:           jobId,
	})
	if err != nil {
		slog.Error("failed to mark job failed", "job_id", jobId, "err", err)
		return
	}
	if rows == 0 {
		s.discardArtifacts(ctx, jobId)
		return
	}
	s.saveMetadata(jobId, func(meta *scrape.JobMetadata) {
		meta.UpdateStatus(StatusFailed, cause.Error())
	})
	slog.Warn("job failed", "job_id", jobId, "err", cause)
}

func (s Service) discardArtifacts(ctx context.Context, jobId string) {
	err := s.store.RemoveJob(jobId)
	if err != nil {
		slog.Warn("failed to remove artifacts of deleted job", "job_id", jobId, "err", err)
	}
	slog.InfoContext(ctx, "discarded artifacts of deleted job", "job_id", jobId)
}

func (s Service) Get(ctx context.Context, jobId string) (db.Job, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	job, err := s.qry.GetJob(ctx, jobId)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Job{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.Job{}, err
	}
	return job, nil
}

// List returns all jobs, newest first, optionally filtered by status.
func (s Service) List(ctx context.Context, status string) ([]db.Job, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	jobs, err := s.qry.ListJobs(ctx, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return jobs, nil
}

// Results loads the persisted record list of a job.
func (s Service) Results(ctx context.Context, jobId string) (db.Job, []tokopedia.Product, error) {
	ctx, span := tracer.Start(ctx, "Results")
	defer span.End()

	job, err := s.Get(ctx, jobId)
	if err != nil {
		return db.Job{}, nil, err
	}

	products, err := s.store.ReadResults(jobId)
	if err != nil {
		span.RecordError(err)
		return job, nil, err
	}
	return job, products, nil
}

// Delete removes the job row and its artifact directory. A worker
// still running for this job finishes against zero rows and discards
// its own output.
func (s Service) Delete(ctx context.Context, jobId string) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobId))

	rows, err := s.qry.DeleteJob(ctx, jobId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return s.store.RemoveJob(jobId)
}
