package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tokoscrape-backend/lib/scrapers/tokopedia"
)

// Store manages the on-disk artifact layout, one directory per job:
//
//	<base>/results/jobs/<id>/json/results.json
//	<base>/results/jobs/<id>/csv/results.csv
//	<base>/results/jobs/<id>/job_metadata.json
type Store struct {
	baseDir string
}

func NewStore(baseDir string) Store {
	return Store{baseDir: baseDir}
}

func (s Store) jobsDir() string {
	return filepath.Join(s.baseDir, "results", "jobs")
}

func (s Store) JobDir(jobId string) string {
	return filepath.Join(s.jobsDir(), jobId)
}

func (s Store) JsonDir(jobId string) string {
	return filepath.Join(s.JobDir(jobId), "json")
}

func (s Store) CsvDir(jobId string) string {
	return filepath.Join(s.JobDir(jobId), "csv")
}

func (s Store) ResultsJsonPath(jobId string) string {
	return filepath.Join(s.JsonDir(jobId), "results.json")
}

func (s Store) ResultsCsvPath(jobId string) string {
	return filepath.Join(s.CsvDir(jobId), "results.csv")
}

func (s Store) MetadataPath(jobId string) string {
	return filepath.Join(s.JobDir(jobId), "job_metadata.json")
}

func (s Store) EnsureJobDirs(jobId string) error {
	for _, dir := range []string{s.JobDir(jobId), s.JsonDir(jobId), s.CsvDir(jobId)} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("create job directory: %w", err)
		}
	}
	return nil
}

func (s Store) ListJobs() ([]string, error) {
	entries, err := os.ReadDir(s.jobsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var jobs []string
	for _, entry := range entries {
		if entry.IsDir() {
			jobs = append(jobs, entry.Name())
		}
	}
	return jobs, nil
}

func (s Store) RemoveJob(jobId string) error {
	return os.RemoveAll(s.JobDir(jobId))
}

// WriteResults persists the record list as pretty-printed json,
// returning the path relative to the job directory.
func (s Store) WriteResults(jobId string, products []tokopedia.Product) (string, error) {
	if products == nil {
		products = []tokopedia.Product{}
	}
	raw, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "", err
	}
	err = os.WriteFile(s.ResultsJsonPath(jobId), raw, 0644)
	if err != nil {
		return "", err
	}
	return filepath.Join("json", "results.json"), nil
}

func (s Store) ReadResults(jobId string) ([]tokopedia.Product, error) {
	raw, err := os.ReadFile(s.ResultsJsonPath(jobId))
	if err != nil {
		return nil, err
	}
	var products []tokopedia.Product
	err = json.Unmarshal(raw, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}
