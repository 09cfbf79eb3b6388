package feed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/punchamoorthee/settlebank/internal/domain"
)

// Separator ends the command section of the stream.
const Separator = "$$$"

type CommandKind int

const (
	Login CommandKind = iota
	Logout
	CheckBalance
	Place
)

// Command is one parsed operation. Only the fields of its Kind are set.
type Command struct {
	Kind CommandKind
	Line int

	UserID string
	PIN    string
	IP     string

	Timestamp   domain.Timestamp
	ExecTime    domain.Timestamp
	Amount      uint64
	FeePolicy   domain.FeePolicy
	SenderID    string
	RecipientID string
}

type QueryKind int

const (
	ListTransactions QueryKind = iota
	BankRevenue
	CustomerHistory
	SummarizeDay
)

// Query is one parsed report request.
type Query struct {
	Kind  QueryKind
	Line  int
	Start domain.Timestamp
	End   domain.Timestamp
	// UserID is set for CustomerHistory, Start for SummarizeDay.
	UserID string
}

// Reader splits a command stream into its command and query sections. Lines
// starting with '#' are comments; verbs are recognised by their first letter.
type Reader struct {
	sc       *bufio.Scanner
	line     int
	inQuery  bool
	finished bool
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

func (r *Reader) nextFields() ([]string, bool, error) {
	for r.sc.Scan() {
		r.line++
		fields := strings.Fields(r.sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		return fields, true, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, false, fmt.Errorf("read commands: %w", err)
	}
	return nil, false, nil
}

// NextCommand returns the next command. ok is false once the separator or
// the end of input is reached.
func (r *Reader) NextCommand() (cmd Command, ok bool, err error) {
	if r.inQuery || r.finished {
		return Command{}, false, nil
	}
	fields, ok, err := r.nextFields()
	if err != nil || !ok {
		r.finished = true
		return Command{}, false, err
	}
	if fields[0] == Separator {
		r.inQuery = true
		return Command{}, false, nil
	}
	cmd, err = parseCommand(fields)
	if err != nil {
		return Command{}, false, fmt.Errorf("command line %d: %w", r.line, err)
	}
	cmd.Line = r.line
	return cmd, true, nil
}

// NextQuery returns the next query after the separator. Any commands not yet
// consumed are skipped.
func (r *Reader) NextQuery() (q Query, ok bool, err error) {
	for !r.inQuery {
		if r.finished {
			return Query{}, false, nil
		}
		if _, _, err := r.NextCommand(); err != nil {
			return Query{}, false, err
		}
	}
	if r.finished {
		return Query{}, false, nil
	}
	fields, ok, err := r.nextFields()
	if err != nil || !ok {
		r.finished = true
		return Query{}, false, err
	}
	q, err = parseQuery(fields)
	if err != nil {
		return Query{}, false, fmt.Errorf("query line %d: %w", r.line, err)
	}
	q.Line = r.line
	return q, true, nil
}

func arity(fields []string, n int) error {
	if len(fields) != n+1 {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrMalformed, fields[0], n, len(fields)-1)
	}
	return nil
}

func parseCommand(fields []string) (Command, error) {
	switch fields[0][0] {
	case 'l':
		if err := arity(fields, 3); err != nil {
			return Command{}, err
		}
		return Command{Kind: Login, UserID: fields[1], PIN: fields[2], IP: fields[3]}, nil
	case 'o':
		if err := arity(fields, 2); err != nil {
			return Command{}, err
		}
		return Command{Kind: Logout, UserID: fields[1], IP: fields[2]}, nil
	case 'b':
		if err := arity(fields, 2); err != nil {
			return Command{}, err
		}
		return Command{Kind: CheckBalance, UserID: fields[1], IP: fields[2]}, nil
	case 'p':
		return parsePlace(fields)
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrMalformed, fields[0])
	}
}

// place TIMESTAMP IP SENDER RECIPIENT AMOUNT EXEC_DATE o|s
func parsePlace(fields []string) (Command, error) {
	if err := arity(fields, 7); err != nil {
		return Command{}, err
	}
	now, err := ParseTimestamp(fields[1])
	if err != nil {
		return Command{}, err
	}
	exec, err := ParseTimestamp(fields[6])
	if err != nil {
		return Command{}, err
	}
	if exec < now {
		return Command{}, fmt.Errorf("%w: placed %d, exec %d", ErrExecBeforePlacement, now, exec)
	}
	amount, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return Command{}, fmt.Errorf("%w: amount %q", ErrMalformed, fields[5])
	}
	return Command{
		Kind:        Place,
		Timestamp:   now,
		IP:          fields[2],
		SenderID:    fields[3],
		RecipientID: fields[4],
		Amount:      amount,
		ExecTime:    exec,
		FeePolicy:   domain.FeePolicy(fields[7]),
	}, nil
}

func parseQuery(fields []string) (Query, error) {
	switch fields[0][0] {
	case 'l', 'r':
		if err := arity(fields, 2); err != nil {
			return Query{}, err
		}
		start, err := ParseTimestamp(fields[1])
		if err != nil {
			return Query{}, err
		}
		end, err := ParseTimestamp(fields[2])
		if err != nil {
			return Query{}, err
		}
		kind := ListTransactions
		if fields[0][0] == 'r' {
			kind = BankRevenue
		}
		return Query{Kind: kind, Start: start, End: end}, nil
	case 'h':
		if err := arity(fields, 1); err != nil {
			return Query{}, err
		}
		return Query{Kind: CustomerHistory, UserID: fields[1]}, nil
	case 's':
		if err := arity(fields, 1); err != nil {
			return Query{}, err
		}
		day, err := ParseTimestamp(fields[1])
		if err != nil {
			return Query{}, err
		}
		return Query{Kind: SummarizeDay, Start: day}, nil
	default:
		return Query{}, fmt.Errorf("%w: unknown query %q", ErrMalformed, fields[0])
	}
}

// PlacementClock enforces that successful placements never go back in time.
type PlacementClock struct {
	last   domain.Timestamp
	placed bool
}

// Check fails if t is earlier than the last accepted placement.
func (c *PlacementClock) Check(t domain.Timestamp) error {
	if c.placed && t < c.last {
		return fmt.Errorf("%w: %d after %d", ErrDecreasingTimestamp, t, c.last)
	}
	return nil
}

// Accept records a successful placement at t.
func (c *PlacementClock) Accept(t domain.Timestamp) {
	c.last = t
	c.placed = true
}
