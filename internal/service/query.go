package service

import (
	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/store"
)

// HistoryWindow is how many recent entries a customer history shows per
// direction.
const HistoryWindow = 10

// RevenueBasis selects which timestamp places a fee inside a range.
type RevenueBasis string

const (
	ByExecTime      RevenueBasis = "exec"
	ByPlacementTime RevenueBasis = "placement"
)

// Listing is every ledger entry executed in [Start, End).
type Listing struct {
	Start        domain.Timestamp            `json:"start"`
	End          domain.Timestamp            `json:"end"`
	Count        int                         `json:"count"`
	Transactions []domain.SettledTransaction `json:"transactions"`
}

type Revenue struct {
	Start domain.Timestamp `json:"start"`
	End   domain.Timestamp `json:"end"`
	Basis RevenueBasis     `json:"basis"`
	Total uint64           `json:"total"`
}

// History summarises one customer. Incoming and Outgoing hold at most
// HistoryWindow of the most recent entries, oldest first; the counts are the
// full totals.
type History struct {
	ID            string                      `json:"id"`
	Balance       uint64                      `json:"balance"`
	Total         int                         `json:"total"`
	IncomingCount int                         `json:"incoming_count"`
	OutgoingCount int                         `json:"outgoing_count"`
	Incoming      []domain.SettledTransaction `json:"incoming"`
	Outgoing      []domain.SettledTransaction `json:"outgoing"`
}

type DaySummary struct {
	Listing
	Revenue uint64 `json:"revenue"`
}

// Queries answers read-only questions over the ledger and directory.
type Queries struct {
	accounts *store.Directory
	ledger   *store.Ledger
}

func NewQueries(accounts *store.Directory, ledger *store.Ledger) *Queries {
	return &Queries{accounts: accounts, ledger: ledger}
}

func (q *Queries) List(start, end domain.Timestamp) (Listing, error) {
	if start == end {
		return Listing{}, ErrEmptyInterval
	}
	return q.list(start, end), nil
}

func (q *Queries) list(start, end domain.Timestamp) Listing {
	out := Listing{Start: start, End: end, Transactions: []domain.SettledTransaction{}}
	q.ledger.Each(func(_ int, t domain.SettledTransaction) bool {
		if start <= t.ExecTime && t.ExecTime < end {
			out.Transactions = append(out.Transactions, t)
		}
		return true
	})
	out.Count = len(out.Transactions)
	return out
}

func (q *Queries) Revenue(start, end domain.Timestamp, basis RevenueBasis) (Revenue, error) {
	if start == end {
		return Revenue{}, ErrEmptyInterval
	}
	if basis == "" {
		basis = ByExecTime
	}
	return Revenue{Start: start, End: end, Basis: basis, Total: q.revenue(start, end, basis)}, nil
}

func (q *Queries) revenue(start, end domain.Timestamp, basis RevenueBasis) uint64 {
	var total uint64
	q.ledger.Each(func(_ int, t domain.SettledTransaction) bool {
		at := t.ExecTime
		if basis == ByPlacementTime {
			at = t.PlacementTime
		}
		if start <= at && at < end {
			total += t.Fee
		}
		return true
	})
	return total
}

func (q *Queries) History(id string) (History, error) {
	acct, err := q.accounts.Get(id)
	if err != nil {
		return History{}, err
	}
	return History{
		ID:            acct.ID,
		Balance:       acct.Balance,
		Total:         len(acct.Incoming) + len(acct.Outgoing),
		IncomingCount: len(acct.Incoming),
		OutgoingCount: len(acct.Outgoing),
		Incoming:      q.recent(acct.Incoming),
		Outgoing:      q.recent(acct.Outgoing),
	}, nil
}

func (q *Queries) recent(positions []int) []domain.SettledTransaction {
	if len(positions) > HistoryWindow {
		positions = positions[len(positions)-HistoryWindow:]
	}
	out := make([]domain.SettledTransaction, 0, len(positions))
	for _, pos := range positions {
		out = append(out, q.ledger.At(pos))
	}
	return out
}

// DailySummary lists and totals the day containing instant.
func (q *Queries) DailySummary(instant domain.Timestamp) DaySummary {
	start := instant.StartOfDay()
	end := start + domain.Day
	return DaySummary{
		Listing: q.list(start, end),
		Revenue: q.revenue(start, end, ByExecTime),
	}
}

// Account returns the current state of id.
func (q *Queries) Account(id string) (store.Account, error) {
	return q.accounts.Get(id)
}
