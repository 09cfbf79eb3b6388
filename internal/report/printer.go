package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/service"
	"github.com/punchamoorthee/settlebank/internal/store"
)

// BankName appears in every revenue line.
const BankName = "281Bank"

// Printer renders command diagnostics and query reports as text. Diagnostics
// are only written in verbose mode; balances and reports always are.
type Printer struct {
	w       io.Writer
	verbose bool
	err     error
}

func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose}
}

// Err returns the first write error, if any.
func (p *Printer) Err() error { return p.err }

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) diag(format string, args ...any) {
	if p.verbose {
		p.printf(format, args...)
	}
}

func (p *Printer) Placed(t domain.PendingTransaction) {
	p.diag("Transaction %d placed at %d: $%d from %s to %s at %d.\n",
		t.ReportID(), t.PlacementTime, t.Amount, t.SenderID, t.RecipientID, t.ExecTime)
}

func (p *Printer) Settled(t domain.SettledTransaction) {
	p.diag("Transaction %d executed at %d: $%d from %s to %s.\n",
		t.ReportID(), t.ExecTime, t.Amount, t.SenderID, t.RecipientID)
}

func (p *Printer) Dropped(t domain.PendingTransaction, err error) {
	if errors.Is(err, store.ErrInsufficientFunds) {
		p.diag("Insufficient funds to process transaction %d.\n", t.ReportID())
		return
	}
	p.diag("Transaction %d dropped: %v.\n", t.ReportID(), err)
}

func (p *Printer) Login(id string, ok bool) {
	if ok {
		p.diag("User %s logged in.\n", id)
		return
	}
	p.diag("Login failed for %s.\n", id)
}

func (p *Printer) Logout(id string, ok bool) {
	if ok {
		p.diag("User %s logged out.\n", id)
		return
	}
	p.diag("Logout failed for %s.\n", id)
}

func (p *Printer) Balance(id string, b service.Balance, err error) {
	switch {
	case err == nil:
		p.printf("As of %d, %s has a balance of $%d.\n", b.AsOf, b.ID, b.Amount)
	case errors.Is(err, store.ErrAccountNotFound):
		p.diag("Account %s does not exist.\n", id)
	case errors.Is(err, service.ErrNotLoggedIn):
		p.diag("Account %s is not logged in.\n", id)
	case errors.Is(err, service.ErrUnauthorized):
		p.diag("Fraudulent transaction detected, aborting request.\n")
	default:
		p.diag("Balance check failed for %s: %v.\n", id, err)
	}
}

func (p *Printer) PlaceRejected(req service.PlaceRequest, err error) {
	switch {
	case errors.Is(err, service.ErrSelfTransfer):
		p.diag("Self transactions are not allowed.\n")
	case errors.Is(err, service.ErrExecWindow):
		p.diag("Select a time up to three days in the future.\n")
	case errors.Is(err, service.ErrSenderNotFound):
		p.diag("Sender %s does not exist.\n", req.SenderID)
	case errors.Is(err, service.ErrRecipientNotFound):
		p.diag("Recipient %s does not exist.\n", req.RecipientID)
	case errors.Is(err, service.ErrNotRegistered):
		p.diag("At the time of execution, sender and/or recipient have not registered.\n")
	case errors.Is(err, service.ErrNotLoggedIn):
		p.diag("Sender %s is not logged in.\n", req.SenderID)
	case errors.Is(err, service.ErrUnauthorized):
		p.diag("Fraudulent transaction detected, aborting request.\n")
	case errors.Is(err, service.ErrFeePolicy):
		p.diag("Unknown fee payer %q.\n", string(req.FeePolicy))
	default:
		p.diag("Transaction rejected: %v.\n", err)
	}
}

func dollars(amount uint64) string {
	if amount == 1 {
		return "dollar"
	}
	return "dollars"
}

func (p *Printer) entry(t domain.SettledTransaction) {
	p.printf("%d: %s sent %d %s to %s at %d.\n",
		t.ReportID(), t.SenderID, t.Amount, dollars(t.Amount), t.RecipientID, t.ExecTime)
}

func (p *Printer) Listing(l service.Listing) {
	for _, t := range l.Transactions {
		p.entry(t)
	}
	if l.Count == 1 {
		p.printf("There was 1 transaction that was placed between time %d to %d.\n", l.Start, l.End)
		return
	}
	p.printf("There were %d transactions that were placed between time %d to %d.\n", l.Count, l.Start, l.End)
}

func (p *Printer) EmptyListInterval() {
	p.printf("List Transactions requires a non-empty time interval.\n")
}

func (p *Printer) EmptyRevenueInterval() {
	p.printf("Bank Revenue requires a non-empty time interval.\n")
}

func (p *Printer) Revenue(r service.Revenue) {
	var span domain.Timestamp
	if r.End > r.Start {
		span = r.End - r.Start
	}
	p.printf("%s has collected %d dollars in fees over %s.\n", BankName, r.Total, Span(span))
}

var spanUnits = []string{"second", "minute", "hour", "day", "month", "year"}

// Span spells out a packed duration two digits at a time, largest unit
// first, skipping zero fields. Anything beyond the month field counts as
// years.
func Span(d domain.Timestamp) string {
	var parts []string
	for i := 0; d > 0; i++ {
		n := uint64(d % 100)
		d /= 100
		if i == len(spanUnits)-1 {
			n += uint64(d) * 100
			d = 0
		}
		switch {
		case n == 1:
			parts = append(parts, "1 "+spanUnits[i])
		case n > 1:
			parts = append(parts, strconv.FormatUint(n, 10)+" "+spanUnits[i]+"s")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " ")
}

func (p *Printer) History(h service.History) {
	p.printf("Customer %s account summary:\n", h.ID)
	p.printf("Balance: $%d\n", h.Balance)
	p.printf("Total # of transactions: %d\n", h.Total)
	p.printf("Incoming %d:\n", h.IncomingCount)
	for _, t := range h.Incoming {
		p.entry(t)
	}
	p.printf("Outgoing %d:\n", h.OutgoingCount)
	for _, t := range h.Outgoing {
		p.entry(t)
	}
}

func (p *Printer) UnknownUser(id string) {
	p.printf("User %s does not exist.\n", id)
}

func (p *Printer) DaySummary(d service.DaySummary) {
	p.printf("Summary of [%d, %d):\n", d.Start, d.End)
	for _, t := range d.Transactions {
		p.entry(t)
	}
	if d.Count == 1 {
		p.printf("There was a total of 1 transaction, ")
	} else {
		p.printf("There were a total of %d transactions, ", d.Count)
	}
	p.printf("%s has collected %d dollars in fees.\n", BankName, d.Revenue)
}
