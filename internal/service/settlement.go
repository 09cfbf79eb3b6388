package service

import (
	"errors"
	"fmt"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/store"
)

// Notifier receives advisory settlement events. It never influences a
// settlement decision.
type Notifier interface {
	Placed(t domain.PendingTransaction)
	Settled(t domain.SettledTransaction)
	Dropped(t domain.PendingTransaction, err error)
}

type nopNotifier struct{}

func (nopNotifier) Placed(domain.PendingTransaction) {}
func (nopNotifier) Settled(domain.SettledTransaction) {}
func (nopNotifier) Dropped(domain.PendingTransaction, error) {}

// PlaceRequest is a transfer order arriving at Now for execution at ExecTime.
type PlaceRequest struct {
	Now         domain.Timestamp
	Session     string
	Amount      uint64
	ExecTime    domain.Timestamp
	FeePolicy   domain.FeePolicy
	SenderID    string
	RecipientID string
}

// Balance is the answer to a balance check.
type Balance struct {
	ID     string           `json:"id"`
	AsOf   domain.Timestamp `json:"as_of"`
	Amount uint64           `json:"balance"`
}

// Bank is the settlement engine. It is single-threaded: callers serialize
// every call.
type Bank struct {
	accounts *store.Directory
	ledger   *store.Ledger
	pending  *PendingQueue
	notify   Notifier

	lastSeq  uint64
	lastSeen domain.Timestamp
}

func NewBank(accounts *store.Directory, ledger *store.Ledger, notify Notifier) *Bank {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Bank{
		accounts: accounts,
		ledger:   ledger,
		pending:  NewPendingQueue(),
		notify:   notify,
	}
}

// LastSeen is the placement time of the most recent place call, valid or
// not. Zero until the first placement.
func (b *Bank) LastSeen() domain.Timestamp { return b.lastSeen }

// Pending is the number of transactions not yet due.
func (b *Bank) Pending() int { return b.pending.Len() }

func (b *Bank) Login(id, pin, ip string) bool {
	return b.accounts.Authenticate(id, pin, ip)
}

func (b *Bank) Logout(id, ip string) bool {
	return b.accounts.EndSession(id, ip)
}

// CheckBalance reports the balance of id as of asOf. A zero asOf stands for
// "no placement seen yet" and reports the registration time instead.
func (b *Bank) CheckBalance(id, ip string, asOf domain.Timestamp) (Balance, error) {
	acct, err := b.accounts.Get(id)
	if err != nil {
		return Balance{}, err
	}
	if !b.accounts.IsLoggedIn(id) {
		return Balance{}, fmt.Errorf("%w: %s", ErrNotLoggedIn, id)
	}
	if !b.accounts.IsAuthorized(id, ip) {
		return Balance{}, fmt.Errorf("%w: %s from %s", ErrUnauthorized, id, ip)
	}
	if asOf == 0 {
		asOf = acct.RegisteredAt
	}
	return Balance{ID: id, AsOf: asOf, Amount: acct.Balance}, nil
}

// Place validates a transfer order and queues it. Anything already due at
// req.Now is settled before the new order is queued.
func (b *Bank) Place(req PlaceRequest) (domain.PendingTransaction, error) {
	b.lastSeen = req.Now

	if err := b.validate(req); err != nil {
		placementsTotal.WithLabelValues(rejectOutcome(err)).Inc()
		return domain.PendingTransaction{}, err
	}

	b.AdvanceTo(req.Now)

	b.lastSeq++
	t := domain.PendingTransaction{
		SequenceID:    b.lastSeq,
		PlacementTime: req.Now,
		ExecTime:      req.ExecTime,
		SenderID:      req.SenderID,
		RecipientID:   req.RecipientID,
		Amount:        req.Amount,
		FeePolicy:     req.FeePolicy,
	}
	b.pending.Insert(t)
	pendingTransactions.Set(float64(b.pending.Len()))
	placementsTotal.WithLabelValues("placed").Inc()
	b.notify.Placed(t)
	return t, nil
}

func (b *Bank) validate(req PlaceRequest) error {
	// 1. Request shape
	if !req.FeePolicy.Valid() {
		return fmt.Errorf("%w: %q", ErrFeePolicy, req.FeePolicy)
	}
	if req.SenderID == req.RecipientID {
		return fmt.Errorf("%w: %s", ErrSelfTransfer, req.SenderID)
	}
	if req.ExecTime < req.Now || req.ExecTime-req.Now > domain.ExecWindow {
		return fmt.Errorf("%w: placed %d, exec %d", ErrExecWindow, req.Now, req.ExecTime)
	}

	// 2. Parties exist and are registered by the execution time
	senderReg, err := b.accounts.RegisteredAt(req.SenderID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSenderNotFound, req.SenderID)
	}
	recipientReg, err := b.accounts.RegisteredAt(req.RecipientID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRecipientNotFound, req.RecipientID)
	}
	if req.ExecTime < senderReg || req.ExecTime < recipientReg {
		return fmt.Errorf("%w: exec %d", ErrNotRegistered, req.ExecTime)
	}

	// 3. Session
	if !b.accounts.IsLoggedIn(req.SenderID) {
		return fmt.Errorf("%w: %s", ErrNotLoggedIn, req.SenderID)
	}
	if !b.accounts.IsAuthorized(req.SenderID, req.Session) {
		return fmt.Errorf("%w: %s from %s", ErrUnauthorized, req.SenderID, req.Session)
	}
	return nil
}

// AdvanceTo settles every pending transaction due at or before now, in
// (exec time, sequence) order. Calling it again with the same now is a no-op.
func (b *Bank) AdvanceTo(now domain.Timestamp) {
	for {
		next, ok := b.pending.Peek()
		if !ok || next.ExecTime > now {
			break
		}
		t, _ := b.pending.PopMin()
		b.settle(t)
	}
	pendingTransactions.Set(float64(b.pending.Len()))
}

// Drain settles everything still pending.
func (b *Bank) Drain() {
	b.AdvanceTo(domain.MaxTimestamp)
}

func (b *Bank) settle(t domain.PendingTransaction) {
	// 1. Fee, discounted by the sender's account age at execution
	senderReg, err := b.accounts.RegisteredAt(t.SenderID)
	if err != nil {
		b.drop(t, err)
		return
	}
	fee := Fee(t.Amount, t.ExecTime-senderReg)
	senderFee, recipientFee := SplitFee(fee, t.FeePolicy)

	// 2. Solvency check and balance update, all or nothing
	if err := b.accounts.Transfer(t.SenderID, t.RecipientID, t.Amount, senderFee, recipientFee); err != nil {
		b.drop(t, err)
		return
	}

	// 3. Ledger and histories
	settled := domain.SettledTransaction{PendingTransaction: t, Fee: fee}
	pos := b.ledger.Append(settled)
	if err := b.accounts.RecordSettlement(t.SenderID, t.RecipientID, pos); err != nil {
		// Transfer already resolved both ids.
		panic(fmt.Sprintf("record settlement %d: %v", t.SequenceID, err))
	}

	settlementsTotal.WithLabelValues("settled").Inc()
	feesCollected.Add(float64(fee))
	b.notify.Settled(settled)
}

func (b *Bank) drop(t domain.PendingTransaction, err error) {
	if !errors.Is(err, store.ErrInsufficientFunds) {
		err = fmt.Errorf("settle transaction %d: %w", t.ReportID(), err)
	}
	settlementsTotal.WithLabelValues("dropped").Inc()
	b.notify.Dropped(t, err)
}
