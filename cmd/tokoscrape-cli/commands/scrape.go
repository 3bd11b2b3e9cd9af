package commands

import (
	"fmt"
	"log/slog"
	"time"

	"tokoscrape-backend/lib/restyutil"
	"tokoscrape-backend/lib/scrapers/tokopedia"
	"tokoscrape-backend/lib/serviceutil"
	"tokoscrape-backend/services/scrape"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeKeyword *string
var scrapeBrand *string
var scrapeMaxProducts *int
var scrapeMaxPages *int
var scrapeDelay *float64
var scrapeEngine *string
var scrapeDataDir *string
var scrapeVerbose *bool

func init() {
	scrapeKeyword = scrapeCmd.Flags().StringP("keyword", "k", "", "The search keyword, e.g. 'iphone 13'.")
	scrapeBrand = scrapeCmd.Flags().StringP("brand", "b", "", "A brand name prepended to the search query.")
	scrapeMaxProducts = scrapeCmd.Flags().Int("max-products", 100, "Stop after collecting this many products.")
	scrapeMaxPages = scrapeCmd.Flags().Int("max-pages", 0, "Stop after this many result pages, 0 means no page cap.")
	scrapeDelay = scrapeCmd.Flags().Float64("delay", 1, "Seconds to sleep between result pages.")
	scrapeEngine = scrapeCmd.Flags().String("engine", "graphql", "Scraping engine, either 'graphql' or 'lite'.")
	scrapeDataDir = scrapeCmd.Flags().String("data-dir", ".", "Directory the results/ tree is written under.")
	scrapeVerbose = scrapeCmd.Flags().BoolP("verbose", "v", false, "Dump http traffic to .dev/resty.")
	scrapeCmd.MarkFlagRequired("keyword")
	scrapeCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command) ([]tokopedia.Product, error) {
	ctx := cmd.Context()

	if *scrapeEngine == "lite" {
		client, err := tokopedia.NewLiteClient(tokopedia.LiteClientOptions{})
		if err != nil {
			return nil, err
		}
		return client.Scrape(ctx, *scrapeKeyword, *scrapeBrand)
	}

	client, err := tokopedia.NewClient(tokopedia.ClientOptions{})
	if err != nil {
		return nil, err
	}
	driver := tokopedia.NewDriver(client, tokopedia.Options{
		Keyword:     *scrapeKeyword,
		Brand:       *scrapeBrand,
		MaxProducts: *scrapeMaxProducts,
		MaxPages:    *scrapeMaxPages,
		Delay:       time.Duration(*scrapeDelay * float64(time.Second)),
	})
	return driver.Run(ctx)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape -k <keyword> [-b <brand>] [--engine graphql|lite]",
	Short: "Runs a product search scrape and writes json/csv artifacts.",
	Run: func(cmd *cobra.Command, args []string) {
		if *scrapeEngine != "graphql" && *scrapeEngine != "lite" {
			serviceutil.Fatal("validate flags", fmt.Errorf("unknown engine %q", *scrapeEngine))
		}
		if *scrapeVerbose {
			tokopedia.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput(".dev/resty/tokopedia"),
			)
		}

		t1 := time.Now()
		products, err := runScrape(cmd)
		if err != nil {
			serviceutil.Fatal("scrape", err)
		}
		elapsed := time.Since(t1)

		store := scrape.NewStore(*scrapeDataDir)
		jobId := uuid.NewString()
		err = store.EnsureJobDirs(jobId)
		if err != nil {
			serviceutil.Fatal("create job directories", err)
		}

		meta := scrape.NewJobMetadata(jobId, map[string]any{
			"query":        *scrapeKeyword,
			"brand":        *scrapeBrand,
			"max_products": *scrapeMaxProducts,
			"pages":        *scrapeMaxPages,
			"engine":       *scrapeEngine,
		})

		jsonRel, err := store.WriteResults(jobId, products)
		if err != nil {
			serviceutil.Fatal("write json results", err)
		}
		meta.AddOutputFile(jsonRel)

		err = scrape.WriteCsv(store.ResultsCsvPath(jobId), products)
		if err != nil {
			serviceutil.Fatal("write csv results", err)
		}
		meta.AddOutputFile("csv/results.csv")

		meta.ResultsSummary["total_products"] = len(products)
		meta.ResultsSummary["query"] = *scrapeKeyword
		meta.ResultsSummary["brand"] = *scrapeBrand
		meta.UpdateStatus("completed", "")
		err = meta.Save(store.MetadataPath(jobId))
		if err != nil {
			serviceutil.Fatal("write job metadata", err)
		}

		slog.Info("scrape finished",
			"products", len(products),
			"seconds", elapsed.Seconds(),
			"output", store.JobDir(jobId),
		)

		t := newTable()
		t.AppendHeader(table.Row{"Title", "Sale Price", "Store", "Location"})
		for _, p := range products {
			t.AppendRow(table.Row{p.Title, p.SalePrice, deref(p.StoreName), deref(p.Location)})
		}
		t.Render()
	},
}
