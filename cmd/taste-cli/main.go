package main

import (
	"context"

	"tastecard-backend/cmd/taste-cli/commands"
	"tastecard-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "taste-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
