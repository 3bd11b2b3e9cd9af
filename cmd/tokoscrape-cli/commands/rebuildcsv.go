package commands

import (
	"log/slog"

	"tokoscrape-backend/lib/serviceutil"
	"tokoscrape-backend/services/scrape"

	"github.com/spf13/cobra"
)

var rebuildDataDir *string
var rebuildJobId *string

func init() {
	rebuildDataDir = rebuildCsvCmd.Flags().String("data-dir", ".", "Directory the results/ tree lives under.")
	rebuildJobId = rebuildCsvCmd.Flags().String("job", "", "Rebuild only this job, otherwise all jobs are rebuilt.")
	rootCmd.AddCommand(rebuildCsvCmd)
}

var rebuildCsvCmd = &cobra.Command{
	Use:   "rebuild-csv [--data-dir <dir>] [--job <job_id>]",
	Short: "Regenerates csv artifacts from the stored json results.",
	Run: func(cmd *cobra.Command, args []string) {
		store := scrape.NewStore(*rebuildDataDir)

		var jobIds []string
		if *rebuildJobId != "" {
			jobIds = []string{*rebuildJobId}
		} else {
			var err error
			jobIds, err = store.ListJobs()
			if err != nil {
				serviceutil.Fatal("list jobs", err)
			}
		}

		for _, jobId := range jobIds {
			products, err := store.ReadResults(jobId)
			if err != nil {
				slog.Warn("skipping job without json results", "job_id", jobId, "err", err)
				continue
			}
			err = scrape.WriteCsv(store.ResultsCsvPath(jobId), products)
			if err != nil {
				serviceutil.Fatal("write csv", err)
			}
			slog.Info("rebuilt csv", "job_id", jobId, "products", len(products))
		}
	},
}
