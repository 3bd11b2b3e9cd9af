package main

import (
	"flag"
	"path/filepath"
	"time"

	"tokoscrape-backend/lib/configutil"
	"tokoscrape-backend/lib/scrapers/tokopedia"
	"tokoscrape-backend/lib/serviceutil"
	"tokoscrape-backend/lib/sqliteutil"
	"tokoscrape-backend/services/jobs"
	"tokoscrape-backend/services/jobs/db"
	"tokoscrape-backend/services/scrape"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type ScraperConfig struct {
	DelaySeconds   float64 `json:"delay_seconds"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

type Config struct {
	Port    int           `json:"port"`
	DataDir string        `json:"data_dir"`
	Scraper ScraperConfig `json:"scraper"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.Scraper.DelaySeconds == 0 {
		cfg.Scraper.DelaySeconds = 1
	}

	database, err := sqliteutil.OpenDB(db.Schema, filepath.Join(cfg.DataDir, "jobs.db"))
	if err != nil {
		serviceutil.Fatal("open jobs db", err)
	}
	defer database.Close()

	runner := jobs.DriverRunner{
		Client: tokopedia.ClientOptions{
			Timeout: time.Duration(cfg.Scraper.TimeoutSeconds * float64(time.Second)),
		},
	}
	service := jobs.NewService(
		database,
		scrape.NewStore(cfg.DataDir),
		runner,
		time.Duration(cfg.Scraper.DelaySeconds*float64(time.Second)),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	jobs.RegisterRoutes(e, service)

	go serviceutil.StartHttpServer(cfg.Port, e)
	<-ctx.Done()
}
