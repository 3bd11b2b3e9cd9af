package main

import (
	"context"
	"log/slog"

	"tokoscrape-backend/lib/restyutil"
	"tokoscrape-backend/lib/scrapers/tokopedia"
	"tokoscrape-backend/lib/serviceutil"
	"tokoscrape-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "tokoscrape-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	tokopedia.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/tokopedia"),
	)
}
