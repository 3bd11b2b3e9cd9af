package main

import (
	"context"

	"tokoscrape-backend/cmd/tokoscrape-cli/commands"
	"tokoscrape-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "tokoscrape-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
