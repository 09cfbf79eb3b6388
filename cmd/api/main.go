package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/punchamoorthee/settlebank/internal/api"
	"github.com/punchamoorthee/settlebank/internal/config"
	"github.com/punchamoorthee/settlebank/internal/report"
	"github.com/punchamoorthee/settlebank/internal/runner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireRegistrations(); err != nil {
		log.Fatal(err)
	}

	regs, err := runner.LoadRegistrations(context.Background(), cfg.RegistrationFile, cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to load registrations: %v", err)
	}

	// Replay the command section, if any, and settle everything before serving.
	r := runner.New(report.NewPrinter(os.Stderr, cfg.Verbose))
	if cfg.CommandFile != "" {
		f, err := os.Open(cfg.CommandFile)
		if err != nil {
			log.Fatalf("Unable to open command file: %v", err)
		}
		_, err = r.Replay(regs, f)
		f.Close()
		if err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
	} else if err := r.Bootstrap(regs); err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %d accounts, %d pending after drain", len(regs), r.Bank().Pending())

	handler := api.NewHandler(r.QueryEngine())
	router := api.NewRouter(handler)

	log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
