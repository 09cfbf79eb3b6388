package store

import "github.com/punchamoorthee/settlebank/internal/domain"

// Ledger is the append-only record of settled transactions in settlement
// order. Entries are never removed or rewritten.
type Ledger struct {
	entries []domain.SettledTransaction
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append stores t and returns its position.
func (l *Ledger) Append(t domain.SettledTransaction) int {
	l.entries = append(l.entries, t)
	return len(l.entries) - 1
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// At returns the entry at pos. It panics if pos was not returned by Append.
func (l *Ledger) At(pos int) domain.SettledTransaction {
	return l.entries[pos]
}

// Each calls fn for every entry in ledger order until fn returns false.
func (l *Ledger) Each(fn func(pos int, t domain.SettledTransaction) bool) {
	for i, t := range l.entries {
		if !fn(i, t) {
			return
		}
	}
}
