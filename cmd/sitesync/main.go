// Command sitesync deploys static sites to S3.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()
	app.Version = version
	code := app.Run(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
