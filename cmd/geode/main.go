package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mparks/geode/internal/api"
	"github.com/mparks/geode/internal/config"
	"github.com/mparks/geode/internal/engine"
	"github.com/mparks/geode/internal/process"
	"github.com/mparks/geode/internal/store"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("geode: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"job_retention", cfg.JobRetention.String(),
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	registry := process.NewRegistry()
	for _, p := range []process.Processor{
		process.NewHelloWorld(),
		process.NewGeometryBuffer(),
	} {
		if err := registry.Register(p); err != nil {
			log.Fatalf("failed to register process: %v", err)
		}
	}

	eng := engine.NewEngine(db, registry, logger)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	janitor := engine.NewJanitor(db, cfg.JobRetention, cfg.RetentionInterval, logger)
	go janitor.Run(janitorCtx)

	srv := api.NewServer(cfg.ListenAddr, db, registry, eng, logger)

	err = srv.Run()
	stopJanitor()
	eng.Wait()
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}
