package scrape

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// JobMetadata is the job snapshot written next to the artifacts, it
// mirrors what the status endpoints serve so a job directory is
// self-describing.
type JobMetadata struct {
	JobID          string         `json:"job_id"`
	Status         string         `json:"status"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
	StartedAt      *string        `json:"started_at"`
	CompletedAt    *string        `json:"completed_at"`
	ErrorMessage   *string        `json:"error_message"`
	Parameters     map[string]any `json:"parameters"`
	ResultsSummary map[string]any `json:"results_summary"`
	OutputFiles    []string       `json:"output_files"`
}

func NewJobMetadata(jobId string, parameters map[string]any) JobMetadata {
	now := time.Now().UTC().Format(time.RFC3339)
	if parameters == nil {
		parameters = map[string]any{}
	}
	return JobMetadata{
		JobID:          jobId,
		Status:         "pending",
		CreatedAt:      now,
		UpdatedAt:      now,
		Parameters:     parameters,
		ResultsSummary: map[string]any{},
		OutputFiles:    []string{},
	}
}

func (m *JobMetadata) UpdateStatus(status string, errorMessage string) {
	now := time.Now().UTC().Format(time.RFC3339)
	m.Status = status
	m.UpdatedAt = now

	if status == "running" && m.StartedAt == nil {
		m.StartedAt = &now
	}
	if status == "completed" || status == "failed" {
		m.CompletedAt = &now
	}
	if errorMessage != "" {
		m.ErrorMessage = &errorMessage
	}
}

func (m *JobMetadata) AddOutputFile(path string) {
	for _, existing := range m.OutputFiles {
		if existing == path {
			return
		}
	}
	m.OutputFiles = append(m.OutputFiles, path)
	m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (m JobMetadata) Save(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

func LoadJobMetadata(path string) (JobMetadata, error) {
	var out JobMetadata
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
