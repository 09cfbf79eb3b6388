package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/punchamoorthee/settlebank/internal/config"
	"github.com/punchamoorthee/settlebank/internal/report"
	"github.com/punchamoorthee/settlebank/internal/runner"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	fs := flag.NewFlagSet("bank", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -f REGISTRATIONS [-v] < COMMANDS\n", os.Args[0])
		fs.PrintDefaults()
	}
	cfg.BindFlags(fs)
	fs.Parse(os.Args[1:])

	if err := cfg.RequireRegistrations(); err != nil {
		fs.Usage()
		log.Fatal(err)
	}

	regs, err := runner.LoadRegistrations(context.Background(), cfg.RegistrationFile, cfg.DBSource)
	if err != nil {
		log.Fatal(err)
	}

	var cmds io.Reader = os.Stdin
	if cfg.CommandFile != "" {
		f, err := os.Open(cfg.CommandFile)
		if err != nil {
			log.Fatalf("Unable to open command file: %v", err)
		}
		defer f.Close()
		cmds = f
	}

	out := bufio.NewWriter(os.Stdout)
	printer := report.NewPrinter(out, cfg.Verbose)
	r := runner.New(printer)

	in, err := r.Replay(regs, cmds)
	if err == nil {
		err = r.Queries(in)
	}
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err == nil {
		err = printer.Err()
	}
	if err != nil {
		log.Fatal(err)
	}
}
