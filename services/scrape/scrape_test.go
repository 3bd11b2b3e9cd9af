package scrape

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"tokoscrape-backend/lib/scrapers/tokopedia"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func sampleProduct(id string) tokopedia.Product {
	return tokopedia.Product{
		ProductID:  id,
		Title:      "Sample Product " + id,
		SalePrice:  "Rp1.246.072",
		Currency:   "IDR",
		StoreName:  strptr("Sample Store"),
		StoreURL:   strptr("https://www.tokopedia.com/samplestore"),
		ProductURL: "https://www.tokopedia.com/samplestore/sample-" + id,
		ImageURL:   "https://images.tokopedia.net/img/sample.jpg",
		Brand:      "Acme",
		Location:   strptr("Jakarta"),
		ScrapedAt:  "2026-01-02T03:04:05Z",
	}
}

func TestStoreResultsRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	err := store.EnsureJobDirs("job-1")
	require.NoError(t, err)

	written := []tokopedia.Product{sampleProduct("1"), sampleProduct("2")}
	relPath, err := store.WriteResults("job-1", written)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("json", "results.json"), relPath)

	read, err := store.ReadResults("job-1")
	require.NoError(t, err)
	require.Equal(t, written, read)
}

func TestStoreListAndRemove(t *testing.T) {
	store := NewStore(t.TempDir())

	jobs, err := store.ListJobs()
	require.NoError(t, err)
	require.Empty(t, jobs)

	require.NoError(t, store.EnsureJobDirs("job-a"))
	require.NoError(t, store.EnsureJobDirs("job-b"))

	jobs, err = store.ListJobs()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"job-a", "job-b"}, jobs)

	require.NoError(t, store.RemoveJob("job-a"))
	jobs, err = store.ListJobs()
	require.NoError(t, err)
	require.Equal(t, []string{"job-b"}, jobs)

	_, err = store.ReadResults("job-a")
	require.Error(t, err)
}

func TestWriteCsvListingTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csv", "results.csv")

	err := WriteCsv(path, []tokopedia.Product{sampleProduct("77")})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, []string{
		"Listing Title*",
		"Listings URL*",
		"Image URL*",
		"Marketplace*",
		"Price*",
		"Shipping",
		"Units Available",
		"Item Number",
		"Brand",
		"ASIN",
		"UPC",
		"Walmart ID",
		"Seller's Name*",
		"Seller's URL*",
		"Seller's Business Name",
		"Seller's Address",
		"Seller's Email",
		"Seller's Phone Number",
	}, rows[0])

	row := rows[1]
	require.Equal(t, "Sample Product 77", row[0])
	require.Equal(t, "Tokopedia", row[3])
	// localized price reduced to its numeric form
	require.Equal(t, "1246072", row[4])
	require.Equal(t, "77", row[7])
	require.Equal(t, "Sample Store", row[12])
	require.Equal(t, "Jakarta", row[15])
}

func TestJobMetadataLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_metadata.json")

	meta := NewJobMetadata("job-9", map[string]any{"query": "laptop"})
	require.Equal(t, "pending", meta.Status)
	require.Nil(t, meta.StartedAt)

	meta.UpdateStatus("running", "")
	require.NotNil(t, meta.StartedAt)
	require.Nil(t, meta.CompletedAt)

	meta.AddOutputFile("json/results.json")
	meta.AddOutputFile("json/results.json")
	require.Equal(t, []string{"json/results.json"}, meta.OutputFiles)

	meta.UpdateStatus("completed", "")
	require.NotNil(t, meta.CompletedAt)

	require.NoError(t, meta.Save(path))
	loaded, err := LoadJobMetadata(path)
	require.NoError(t, err)
	require.Equal(t, meta, loaded)
}
