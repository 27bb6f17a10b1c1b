// Command stage loads the raw source files into the warehouse's staging
// tables. It is the batch front door: run it whenever new exports land, then
// run the etl command to reconcile them.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/accident-data-warehouse/internal/config"
	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
	"github.com/couchcryptid/accident-data-warehouse/internal/observability"
	"github.com/couchcryptid/accident-data-warehouse/internal/staging"
	"github.com/couchcryptid/accident-data-warehouse/internal/warehouse"
)

func main() {
	asnPath := flag.String("asn", "", "path to the Aviation Safety Network JSON export")
	ntsbPath := flag.String("ntsb", "", "path to the NTSB CAROL JSON export")
	csvPath := flag.String("csv", "", "path to the historical accidents CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	files := map[domain.Source]string{}
	if *asnPath != "" {
		files[domain.SourceASN] = *asnPath
	}
	if *ntsbPath != "" {
		files[domain.SourceNTSB] = *ntsbPath
	}
	if *csvPath != "" {
		files[domain.SourceCSV] = *csvPath
	}
	if len(files) == 0 {
		logger.Error("no source files given; pass -asn, -ntsb, or -csv")
		os.Exit(1)
	}

	db, err := warehouse.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := warehouse.Migrate(db); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := staging.NewLoader(warehouse.NewStagingRepository(db, logger), logger)

	// Stable order keeps the logs comparable between runs.
	for _, source := range domain.Sources {
		path, ok := files[source]
		if !ok {
			continue
		}
		if _, err := loader.LoadFile(ctx, source, path); err != nil {
			logger.Error("staging load failed", "source", source, "path", path, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("staging load complete")
}
