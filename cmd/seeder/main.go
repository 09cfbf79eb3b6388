package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/punchamoorthee/settlebank/internal/config"
	"github.com/punchamoorthee/settlebank/internal/feed"
	"github.com/punchamoorthee/settlebank/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	var truncate bool
	fs := flag.NewFlagSet("seeder", flag.ExitOnError)
	cfg.BindFlags(fs)
	fs.BoolVar(&truncate, "truncate", false, "Clear the registrations table before loading")
	fs.Parse(os.Args[1:])

	if err := cfg.RequireDB(); err != nil {
		log.Fatal(err)
	}
	if cfg.RegistrationFile == "" {
		log.Fatal("a registration file is required (-f or REGISTRATION_FILE)")
	}

	f, err := os.Open(cfg.RegistrationFile)
	if err != nil {
		log.Fatalf("Unable to open registration file: %v", err)
	}
	regs, err := feed.ReadRegistrations(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	db, err := store.NewPostgresRegistrations(ctx, cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("--- Seeding Registrations ---")

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal(err)
	}
	if truncate {
		if err := db.Truncate(ctx); err != nil {
			log.Fatal(err)
		}
	}

	count, err := db.Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if count > 0 {
		log.Printf("Database already has %d registrations. Skipping.", count)
		return
	}

	copyCount, err := db.CopyIn(ctx, regs)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Successfully seeded %d registrations.", copyCount)
}
