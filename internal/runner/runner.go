package runner

import (
	"errors"
	"fmt"
	"io"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/feed"
	"github.com/punchamoorthee/settlebank/internal/report"
	"github.com/punchamoorthee/settlebank/internal/service"
	"github.com/punchamoorthee/settlebank/internal/store"
)

// Runner drives one simulation: bootstrap the directory, replay commands,
// force-settle whatever is still pending, then answer queries.
type Runner struct {
	accounts *store.Directory
	bank     *service.Bank
	queries  *service.Queries
	out      *report.Printer
	clock    feed.PlacementClock
}

func New(out *report.Printer) *Runner {
	accounts := store.NewDirectory()
	ledger := store.NewLedger()
	return &Runner{
		accounts: accounts,
		bank:     service.NewBank(accounts, ledger, out),
		queries:  service.NewQueries(accounts, ledger),
		out:      out,
	}
}

func (r *Runner) Bank() *service.Bank { return r.bank }

// QueryEngine exposes the read side, for serving reports after a replay.
func (r *Runner) QueryEngine() *service.Queries { return r.queries }

// Bootstrap registers every account. A duplicate id is fatal.
func (r *Runner) Bootstrap(regs []domain.Registration) error {
	for _, reg := range regs {
		if err := r.accounts.Create(reg); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

// Commands replays the command section. Rejected commands are reported and
// skipped; malformed input and out-of-order placements stop the replay.
func (r *Runner) Commands(in *feed.Reader) error {
	for {
		cmd, ok, err := in.NextCommand()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := r.apply(cmd); err != nil {
			return fmt.Errorf("command line %d: %w", cmd.Line, err)
		}
	}
}

func (r *Runner) apply(cmd feed.Command) error {
	switch cmd.Kind {
	case feed.Login:
		r.out.Login(cmd.UserID, r.bank.Login(cmd.UserID, cmd.PIN, cmd.IP))
	case feed.Logout:
		r.out.Logout(cmd.UserID, r.bank.Logout(cmd.UserID, cmd.IP))
	case feed.CheckBalance:
		b, err := r.bank.CheckBalance(cmd.UserID, cmd.IP, r.bank.LastSeen())
		r.out.Balance(cmd.UserID, b, err)
	case feed.Place:
		if err := r.clock.Check(cmd.Timestamp); err != nil {
			return err
		}
		req := service.PlaceRequest{
			Now:         cmd.Timestamp,
			Session:     cmd.IP,
			Amount:      cmd.Amount,
			ExecTime:    cmd.ExecTime,
			FeePolicy:   cmd.FeePolicy,
			SenderID:    cmd.SenderID,
			RecipientID: cmd.RecipientID,
		}
		if _, err := r.bank.Place(req); err != nil {
			r.out.PlaceRejected(req, err)
			return nil
		}
		r.clock.Accept(cmd.Timestamp)
	}
	return nil
}

// Queries answers the query section. Call it after the pending queue has
// been drained.
func (r *Runner) Queries(in *feed.Reader) error {
	for {
		q, ok, err := in.NextQuery()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := r.answer(q); err != nil {
			return fmt.Errorf("query line %d: %w", q.Line, err)
		}
	}
}

func (r *Runner) answer(q feed.Query) error {
	switch q.Kind {
	case feed.ListTransactions:
		l, err := r.queries.List(q.Start, q.End)
		if errors.Is(err, service.ErrEmptyInterval) {
			r.out.EmptyListInterval()
			return nil
		}
		if err != nil {
			return err
		}
		r.out.Listing(l)
	case feed.BankRevenue:
		rev, err := r.queries.Revenue(q.Start, q.End, service.ByExecTime)
		if errors.Is(err, service.ErrEmptyInterval) {
			r.out.EmptyRevenueInterval()
			return nil
		}
		if err != nil {
			return err
		}
		r.out.Revenue(rev)
	case feed.CustomerHistory:
		h, err := r.queries.History(q.UserID)
		if errors.Is(err, store.ErrAccountNotFound) {
			r.out.UnknownUser(q.UserID)
			return nil
		}
		if err != nil {
			return err
		}
		r.out.History(h)
	case feed.SummarizeDay:
		r.out.DaySummary(r.queries.DailySummary(q.Start))
	}
	return nil
}

// Replay bootstraps from regs and applies the command section of cmds, then
// drains the queue. The returned reader is positioned at the query section.
func (r *Runner) Replay(regs []domain.Registration, cmds io.Reader) (*feed.Reader, error) {
	if err := r.Bootstrap(regs); err != nil {
		return nil, err
	}
	in := feed.NewReader(cmds)
	if err := r.Commands(in); err != nil {
		return nil, err
	}
	r.bank.Drain()
	return in, nil
}

// Run is a full simulation over a registration file and a command stream.
func (r *Runner) Run(regFile, cmds io.Reader) error {
	regs, err := feed.ReadRegistrations(regFile)
	if err != nil {
		return err
	}
	in, err := r.Replay(regs, cmds)
	if err != nil {
		return err
	}
	if err := r.Queries(in); err != nil {
		return err
	}
	return r.out.Err()
}
