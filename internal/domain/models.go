package domain

import "math"

// Timestamp is a packed yymmddhhmmss instant. Ordering on the integer only
// approximates chronological ordering across field boundaries.
type Timestamp uint64

// MaxTimestamp is later than any instant the command feed can express.
const MaxTimestamp Timestamp = math.MaxUint64

// Packed-unit durations.
const (
	Day        Timestamp = 1_000_000
	ExecWindow Timestamp = 3_000_000
	Loyalty    Timestamp = 50_000_000_000
)

// StartOfDay zeroes the hour, minute and second fields.
func (t Timestamp) StartOfDay() Timestamp {
	return t - t%Day
}

// FeePolicy decides who pays the settlement fee.
type FeePolicy string

const (
	SenderPays FeePolicy = "o"
	Shared     FeePolicy = "s"
)

// Valid reports whether p is a known policy.
func (p FeePolicy) Valid() bool {
	return p == SenderPays || p == Shared
}

// Registration is one line of the account bootstrap feed.
type Registration struct {
	RegisteredAt Timestamp `json:"registered_at"`
	ID           string    `json:"id"`
	PIN          string    `json:"-"`
	Balance      uint64    `json:"balance"`
}

// PendingTransaction is a placed request waiting for its execution time.
type PendingTransaction struct {
	SequenceID    uint64    `json:"sequence_id"`
	PlacementTime Timestamp `json:"placement_time"`
	ExecTime      Timestamp `json:"exec_time"`
	SenderID      string    `json:"sender_id"`
	RecipientID   string    `json:"recipient_id"`
	Amount        uint64    `json:"amount"`
	FeePolicy     FeePolicy `json:"fee_policy"`
}

// ReportID is the zero-indexed id used in all output.
func (t PendingTransaction) ReportID() uint64 {
	return t.SequenceID - 1
}

// SettledTransaction is the immutable ledger record of an applied transfer.
type SettledTransaction struct {
	PendingTransaction
	Fee uint64 `json:"fee"`
}
