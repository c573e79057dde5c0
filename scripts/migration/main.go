// Command migration applies the embedded schema without the full CLI.
package main

import (
	"context"
	"log"

	"tidyup-backend/config"
	"tidyup-backend/db"
	"tidyup-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		zl.Fatal(err.Error())
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, zl); err != nil {
		zl.Fatal(err.Error())
	}
	zl.Info("migration done")
}
