package store

import (
	"fmt"

	"github.com/punchamoorthee/settlebank/internal/domain"
)

// Account is a read-only view of a customer. Incoming and Outgoing hold
// ledger positions, oldest first.
type Account struct {
	ID           string           `json:"id"`
	RegisteredAt domain.Timestamp `json:"registered_at"`
	Balance      uint64           `json:"balance"`
	Sessions     int              `json:"sessions"`
	Incoming     []int            `json:"-"`
	Outgoing     []int            `json:"-"`
}

type account struct {
	id           string
	pin          string
	registeredAt domain.Timestamp
	balance      uint64
	activeIPs    map[string]struct{}
	current      string
	incoming     []int
	outgoing     []int
}

// Directory owns every account. Accounts live in an arena and are addressed
// by slot, so no caller ever holds a pointer into the directory.
type Directory struct {
	accounts []account
	index    map[string]int
}

func NewDirectory() *Directory {
	return &Directory{index: make(map[string]int)}
}

// Create registers a new account. Re-registering an id is rejected.
func (d *Directory) Create(reg domain.Registration) error {
	if _, exists := d.index[reg.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, reg.ID)
	}
	d.index[reg.ID] = len(d.accounts)
	d.accounts = append(d.accounts, account{
		id:           reg.ID,
		pin:          reg.PIN,
		registeredAt: reg.RegisteredAt,
		balance:      reg.Balance,
		activeIPs:    make(map[string]struct{}),
	})
	return nil
}

func (d *Directory) Len() int {
	return len(d.accounts)
}

func (d *Directory) Exists(id string) bool {
	_, ok := d.index[id]
	return ok
}

func (d *Directory) slot(id string) (*account, error) {
	i, ok := d.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return &d.accounts[i], nil
}

// Get returns a snapshot of the account. History slices are copied.
func (d *Directory) Get(id string) (Account, error) {
	a, err := d.slot(id)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:           a.id,
		RegisteredAt: a.registeredAt,
		Balance:      a.balance,
		Sessions:     len(a.activeIPs),
		Incoming:     append([]int(nil), a.incoming...),
		Outgoing:     append([]int(nil), a.outgoing...),
	}, nil
}

// RegisteredAt returns the account's creation instant.
func (d *Directory) RegisteredAt(id string) (domain.Timestamp, error) {
	a, err := d.slot(id)
	if err != nil {
		return 0, err
	}
	return a.registeredAt, nil
}

// Balance returns the current balance.
func (d *Directory) Balance(id string) (uint64, error) {
	a, err := d.slot(id)
	if err != nil {
		return 0, err
	}
	return a.balance, nil
}

// Authenticate opens a session for ip when pin matches. Unknown accounts and
// wrong pins leave the directory untouched.
func (d *Directory) Authenticate(id, pin, ip string) bool {
	a, err := d.slot(id)
	if err != nil || a.pin != pin {
		return false
	}
	a.activeIPs[ip] = struct{}{}
	a.current = ip
	return true
}

// EndSession closes the session for ip if it is open.
func (d *Directory) EndSession(id, ip string) bool {
	a, err := d.slot(id)
	if err != nil {
		return false
	}
	if _, ok := a.activeIPs[ip]; !ok {
		return false
	}
	delete(a.activeIPs, ip)
	a.current = ""
	return true
}

func (d *Directory) IsAuthorized(id, ip string) bool {
	a, err := d.slot(id)
	if err != nil {
		return false
	}
	_, ok := a.activeIPs[ip]
	return ok
}

func (d *Directory) IsLoggedIn(id string) bool {
	a, err := d.slot(id)
	if err != nil {
		return false
	}
	return len(a.activeIPs) > 0
}

// CurrentSession is the ip of the most recent login, empty after a logout.
func (d *Directory) CurrentSession(id string) string {
	a, err := d.slot(id)
	if err != nil {
		return ""
	}
	return a.current
}

// AdjustBalance applies a signed delta. Callers validate sufficiency first;
// a delta that would drive the balance negative is refused without change.
func (d *Directory) AdjustBalance(id string, delta int64) error {
	a, err := d.slot(id)
	if err != nil {
		return err
	}
	if delta < 0 {
		debit := uint64(-delta)
		if a.balance < debit {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, id, a.balance, debit)
		}
		a.balance -= debit
		return nil
	}
	a.balance += uint64(delta)
	return nil
}

// Transfer moves amount from sender to recipient, debiting senderFee and
// recipientFee on the way. Both parties are checked before either balance
// changes, so a refused transfer leaves the directory untouched.
func (d *Directory) Transfer(senderID, recipientID string, amount, senderFee, recipientFee uint64) error {
	s, err := d.slot(senderID)
	if err != nil {
		return err
	}
	r, err := d.slot(recipientID)
	if err != nil {
		return err
	}
	if s.balance < amount || s.balance-amount < senderFee {
		return fmt.Errorf("%w: sender %s", ErrInsufficientFunds, senderID)
	}
	if r.balance < recipientFee {
		return fmt.Errorf("%w: recipient %s", ErrInsufficientFunds, recipientID)
	}
	s.balance -= amount + senderFee
	r.balance = r.balance - recipientFee + amount
	return nil
}

// RecordSettlement appends ledger position pos to both parties' histories.
func (d *Directory) RecordSettlement(senderID, recipientID string, pos int) error {
	s, err := d.slot(senderID)
	if err != nil {
		return err
	}
	r, err := d.slot(recipientID)
	if err != nil {
		return err
	}
	s.outgoing = append(s.outgoing, pos)
	r.incoming = append(r.incoming, pos)
	return nil
}
