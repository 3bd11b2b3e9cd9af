package db

import (
	"context"
	"database/sql"
)

type Job struct {
	ID           string
	Status       string
	Query        string
	Brand        string
	MaxProducts  int64
	MaxPages     int64
	OutputFormat string
	ErrorMessage sql.NullString
	ResultCount  sql.NullInt64
	CreatedAt    int64
	UpdatedAt    int64
	StartedAt    sql.NullInt64
	CompletedAt  sql.NullInt64
}

type Queries struct {
	db *sql.DB
}

func New(database *sql.DB) *Queries {
	return &Queries{db: database}
}

const createJob = `
INSERT INTO jobs (id, status, query, brand, max_products, max_pages, output_format, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateJobParams struct {
	ID           string
	Status       string
	Query        string
	Brand        string
	MaxProducts  int64
	MaxPages     int64
	OutputFormat string
	CreatedAt    int64
	UpdatedAt    int64
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) error {
	_, err := q.db.ExecContext(
		ctx, createJob,
		arg.ID, arg.Status, arg.Query, arg.Brand,
		arg.MaxProducts, arg.MaxPages, arg.OutputFormat,
		arg.CreatedAt, arg.UpdatedAt,
	)
	return err
}

const getJob = `
SELECT id, status, query, brand, max_products, max_pages, output_format,
       error_message, result_count, created_at, updated_at, started_at, completed_at
FROM jobs WHERE id = ?
`

func (q *Queries) GetJob(ctx context.Context, id string) (Job, error) {
	row := q.db.QueryRowContext(ctx, getJob, id)
	var j Job
	err := row.Scan(
		&j.ID, &j.Status, &j.Query, &j.Brand,
		&j.MaxProducts, &j.MaxPages, &j.OutputFormat,
		&j.ErrorMessage, &j.ResultCount,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt,
	)
	return j, err
}

const listJobs = `
SELECT id, status, query, brand, max_products, max_pages, output_format,
       error_message, result_count, created_at, updated_at, started_at, completed_at
FROM jobs
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC, id
`

func (q *Queries) ListJobs(ctx context.Context, status string) ([]Job, error) {
	rows, err := q.db.QueryContext(ctx, listJobs, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		err := rows.Scan(
			&j.ID, &j.Status, &j.Query, &j.Brand,
			&j.MaxProducts, &j.MaxPages, &j.OutputFormat,
			&j.ErrorMessage, &j.ResultCount,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

const setJobRunning = `
UPDATE jobs SET status = 'running', updated_at = ?, started_at = ?
WHERE id = ? AND status = 'pending'
`

type SetJobRunningParams struct {
	UpdatedAt int64
	StartedAt int64
	ID        string
}

func (q *Queries) SetJobRunning(ctx context.Context, arg SetJobRunningParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, setJobRunning, arg.UpdatedAt, arg.StartedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setJobCompleted = `
UPDATE jobs SET status = 'completed', updated_at = ?, completed_at = ?, result_count = ?
WHERE id = ?
`

type SetJobCompletedParams struct {
	UpdatedAt   int64
	CompletedAt int64
	ResultCount int64
	ID          string
}

func (q *Queries) SetJobCompleted(ctx context.Context, arg SetJobCompletedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, setJobCompleted, arg.UpdatedAt, arg.CompletedAt, arg.ResultCount, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setJobFailed = `
UPDATE jobs SET status = 'failed', updated_at = ?, completed_at = ?, error_message = ?
WHERE id = ?
`

type SetJobFailedParams struct {
	UpdatedAt    int64
	CompletedAt  int64
	ErrorMessage string
	ID           string
}

func (q *Queries) SetJobFailed(ctx context.Context, arg SetJobFailedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, setJobFailed, arg.UpdatedAt, arg.CompletedAt, arg.ErrorMessage, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteJob = `DELETE FROM jobs WHERE id = ?`

func (q *Queries) DeleteJob(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteJob, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
