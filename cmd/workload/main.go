package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/feed"
)

// Config holds the generator settings
var (
	accounts   int
	placements int
	workload   string
	seed       int64
	regPath    string
	cmdPath    string
)

func init() {
	flag.IntVar(&accounts, "accounts", 1000, "Number of registered accounts")
	flag.IntVar(&placements, "placements", 10000, "Number of place commands")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.Int64Var(&seed, "seed", 281, "Random seed")
	flag.StringVar(&regPath, "registrations", "registrations.txt", "Registration file to write")
	flag.StringVar(&cmdPath, "commands", "commands.txt", "Command file to write")
}

const start domain.Timestamp = 240101080000

type generator struct {
	rng *rand.Rand
	now domain.Timestamp
}

func main() {
	flag.Parse()
	if accounts < 2 {
		log.Fatal("at least two accounts are required")
	}
	log.Printf("Generating workload: %s | Accounts: %d | Placements: %d", workload, accounts, placements)

	g := &generator{rng: newRand(seed), now: start}

	regs := g.registrations()
	if err := writeFile(regPath, func(w io.Writer) error { return feed.WriteRegistrations(w, regs) }); err != nil {
		log.Fatal(err)
	}
	if err := writeFile(cmdPath, func(w io.Writer) error { return g.commands(w, regs) }); err != nil {
		log.Fatal(err)
	}

	results := map[string]interface{}{
		"workload":      workload,
		"seed":          seed,
		"accounts":      accounts,
		"placements":    placements,
		"registrations": regPath,
		"commands":      cmdPath,
		"first_place":   feed.FormatTimestamp(start),
		"last_place":    feed.FormatTimestamp(g.now),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return bw.Flush()
}

func (g *generator) registrations() []domain.Registration {
	regs := make([]domain.Registration, accounts)
	for i := range regs {
		// A tenth of the accounts are old enough for the loyalty discount.
		at := start - domain.Timestamp(g.rng.Intn(1_000_000))
		if i%10 == 0 {
			at -= domain.Loyalty
		}
		regs[i] = domain.Registration{
			RegisteredAt: at,
			ID:           fmt.Sprintf("user%04d", i),
			PIN:          fmt.Sprintf("%04d", g.rng.Intn(10_000)),
			Balance:      uint64(1_000 + g.rng.Intn(100_000)),
		}
	}
	return regs
}

func (g *generator) commands(w io.Writer, regs []domain.Registration) error {
	for i, r := range regs {
		if _, err := fmt.Fprintf(w, "login %s %s ip-%d\n", r.ID, r.PIN, i); err != nil {
			return err
		}
	}
	for n := 0; n < placements; n++ {
		g.now = advance(g.now, 1+g.rng.Intn(59))
		from, to := g.pickAccounts()
		exec := advance(g.now, g.rng.Intn(2*24*60*60))
		policy := domain.SenderPays
		if g.rng.Intn(2) == 0 {
			policy = domain.Shared
		}
		if _, err := fmt.Fprintf(w, "place %s ip-%d %s %s %d %s %s\n",
			feed.FormatTimestamp(g.now), from, regs[from].ID, regs[to].ID,
			1+g.rng.Intn(50_000), feed.FormatTimestamp(exec), policy); err != nil {
			return err
		}
		if n%100 == 0 {
			if _, err := fmt.Fprintf(w, "balance %s ip-%d\n", regs[from].ID, from); err != nil {
				return err
			}
		}
	}

	day := start.StartOfDay()
	_, err := fmt.Fprintf(w, "%s\nl %s %s\nr %s %s\nh %s\ns %s\n", feed.Separator,
		feed.FormatTimestamp(day), feed.FormatTimestamp(advance(day, 24*60*60)),
		feed.FormatTimestamp(day), feed.FormatTimestamp(g.now),
		regs[0].ID, feed.FormatTimestamp(g.now))
	return err
}

func (g *generator) pickAccounts() (int, int) {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic goes between the first two accounts
		if g.rng.Float32() < 0.90 {
			if g.rng.Float32() < 0.5 {
				return 0, 1
			}
			return 1, 0
		}
	}

	// Uniform Random
	a := g.rng.Intn(accounts)
	b := g.rng.Intn(accounts)
	for a == b {
		b = g.rng.Intn(accounts)
	}
	return a, b
}

// advance adds secs to a packed timestamp, carrying seconds into minutes,
// minutes into hours and hours into days. Days roll into the next month
// after the 28th.
func advance(t domain.Timestamp, secs int) domain.Timestamp {
	sec := int(t%100) + secs
	minute := int(t/100%100) + sec/60
	hour := int(t/10_000%100) + minute/60
	day := int(t/1_000_000%100) + hour/24
	month := int(t / 100_000_000 % 100)
	year := int(t / 10_000_000_000)
	for day > 28 {
		day -= 28
		month++
	}
	for month > 12 {
		month -= 12
		year++
	}
	return domain.Timestamp(year)*10_000_000_000 +
		domain.Timestamp(month)*100_000_000 +
		domain.Timestamp(day)*1_000_000 +
		domain.Timestamp(hour%24)*10_000 +
		domain.Timestamp(minute%60)*100 +
		domain.Timestamp(sec%60)
}
