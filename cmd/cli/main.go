package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/MayanSoftwareSolution/imotr-client/internal/buildinfo"
	"github.com/MayanSoftwareSolution/imotr-client/internal/cli"
	"github.com/MayanSoftwareSolution/imotr-client/internal/config"
	"github.com/MayanSoftwareSolution/imotr-client/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, cleanup, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer cleanup()

	app.Run(ctx)

}
