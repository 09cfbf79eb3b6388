package service

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	placed  []domain.PendingTransaction
	settled []domain.SettledTransaction
	dropped []domain.PendingTransaction
	errs    []error
}

func (r *recorder) Placed(t domain.PendingTransaction) { r.placed = append(r.placed, t) }
func (r *recorder) Settled(t domain.SettledTransaction) { r.settled = append(r.settled, t) }
func (r *recorder) Dropped(t domain.PendingTransaction, err error) {
	r.dropped = append(r.dropped, t)
	r.errs = append(r.errs, err)
}

type fixture struct {
	bank     *Bank
	accounts *store.Directory
	ledger   *store.Ledger
	events   *recorder
}

func newFixture(t *testing.T, regs ...domain.Registration) *fixture {
	t.Helper()
	accounts := store.NewDirectory()
	for _, r := range regs {
		require.NoError(t, accounts.Create(r))
	}
	ledger := store.NewLedger()
	events := &recorder{}
	return &fixture{
		bank:     NewBank(accounts, ledger, events),
		accounts: accounts,
		ledger:   ledger,
		events:   events,
	}
}

func (f *fixture) login(t *testing.T, id, pin, ip string) {
	t.Helper()
	require.True(t, f.bank.Login(id, pin, ip))
}

func (f *fixture) balance(t *testing.T, id string) uint64 {
	t.Helper()
	b, err := f.accounts.Balance(id)
	require.NoError(t, err)
	return b
}

func transfer(now, exec domain.Timestamp, amount uint64, policy domain.FeePolicy, from, to string) PlaceRequest {
	return PlaceRequest{
		Now:         now,
		Session:     "ip-" + from,
		Amount:      amount,
		ExecTime:    exec,
		FeePolicy:   policy,
		SenderID:    from,
		RecipientID: to,
	}
}

func TestSettleSenderPays(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 1000},
		domain.Registration{ID: "B", PIN: "2", Balance: 0},
	)
	f.login(t, "A", "1", "ip-A")

	placed, err := f.bank.Place(transfer(0, 100, 500, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), placed.SequenceID)
	assert.Equal(t, uint64(0), placed.ReportID())
	assert.Equal(t, 1, f.bank.Pending())

	f.bank.AdvanceTo(99)
	assert.Zero(t, f.ledger.Len(), "not due yet")

	f.bank.AdvanceTo(100)
	require.Equal(t, 1, f.ledger.Len())
	assert.Equal(t, uint64(10), f.ledger.At(0).Fee)
	assert.Equal(t, uint64(490), f.balance(t, "A"))
	assert.Equal(t, uint64(500), f.balance(t, "B"))
	assert.Zero(t, f.bank.Pending())

	a, _ := f.accounts.Get("A")
	b, _ := f.accounts.Get("B")
	assert.Equal(t, []int{0}, a.Outgoing)
	assert.Equal(t, []int{0}, b.Incoming)
}

func TestSettleInsufficientSenderDropped(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 5},
		domain.Registration{ID: "B", PIN: "2", Balance: 0},
	)
	f.login(t, "A", "1", "ip-A")
	dropped := testutil.ToFloat64(settlementsTotal.WithLabelValues("dropped"))

	_, err := f.bank.Place(transfer(0, 100, 500, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	f.bank.AdvanceTo(100)

	assert.Zero(t, f.ledger.Len())
	assert.Equal(t, uint64(5), f.balance(t, "A"))
	assert.Zero(t, f.balance(t, "B"))
	require.Len(t, f.events.dropped, 1)
	assert.ErrorIs(t, f.events.errs[0], store.ErrInsufficientFunds)
	assert.Zero(t, f.bank.Pending(), "dropped transactions never return")
	assert.Equal(t, dropped+1, testutil.ToFloat64(settlementsTotal.WithLabelValues("dropped")))
}

func TestSettleSharedFee(t *testing.T) {
	t.Run("recipient pays half", func(t *testing.T) {
		f := newFixture(t,
			domain.Registration{ID: "A", PIN: "1", Balance: 2_000},
			domain.Registration{ID: "B", PIN: "2", Balance: 100},
		)
		f.login(t, "A", "1", "ip-A")
		_, err := f.bank.Place(transfer(0, 0, 1_500, domain.Shared, "A", "B"))
		require.NoError(t, err)
		f.bank.Drain()

		// fee 15: sender 8, recipient 7
		assert.Equal(t, uint64(2_000-1_500-8), f.balance(t, "A"))
		assert.Equal(t, uint64(100+1_500-7), f.balance(t, "B"))
		assert.Equal(t, uint64(15), f.ledger.At(0).Fee)
	})

	t.Run("recipient cannot cover its share", func(t *testing.T) {
		f := newFixture(t,
			domain.Registration{ID: "A", PIN: "1", Balance: 2_000},
			domain.Registration{ID: "B", PIN: "2", Balance: 4},
		)
		f.login(t, "A", "1", "ip-A")
		_, err := f.bank.Place(transfer(0, 0, 100, domain.Shared, "A", "B"))
		require.NoError(t, err)
		f.bank.Drain()

		assert.Zero(t, f.ledger.Len())
		assert.Equal(t, uint64(2_000), f.balance(t, "A"), "no partial transfer")
		assert.Equal(t, uint64(4), f.balance(t, "B"))
	})
}

func TestSettleLoyaltyDiscount(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "old", PIN: "1", Balance: 100_000},
		domain.Registration{ID: "new", PIN: "2", Balance: 0, RegisteredAt: domain.Loyalty},
	)
	f.login(t, "old", "1", "ip-old")

	now := domain.Loyalty - 10
	_, err := f.bank.Place(transfer(now, domain.Loyalty, 20_000, domain.SenderPays, "old", "new"))
	require.NoError(t, err)
	f.bank.Drain()

	require.Equal(t, 1, f.ledger.Len())
	assert.Equal(t, uint64(150), f.ledger.At(0).Fee)
	assert.Equal(t, uint64(100_000-20_000-150), f.balance(t, "old"))
}

func TestPlaceSettlesDueBeforeQueueing(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 10_000},
		domain.Registration{ID: "B", PIN: "2", Balance: 0},
	)
	f.login(t, "A", "1", "ip-A")

	_, err := f.bank.Place(transfer(0, 50, 100, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	assert.Zero(t, f.ledger.Len())

	_, err = f.bank.Place(transfer(50, 60, 100, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.ledger.Len(), "first order settled when the clock reached 50")
	assert.Equal(t, 1, f.bank.Pending())
	assert.Equal(t, domain.Timestamp(50), f.bank.LastSeen())
}

func TestPlaceRejections(t *testing.T) {
	regs := []domain.Registration{
		{ID: "A", PIN: "1", Balance: 1_000, RegisteredAt: 0},
		{ID: "B", PIN: "2", Balance: 1_000, RegisteredAt: 0},
		{ID: "late", PIN: "3", Balance: 1_000, RegisteredAt: 500},
		{ID: "idle", PIN: "4", Balance: 1_000, RegisteredAt: 0},
	}
	cases := []struct {
		name string
		req  PlaceRequest
		want error
	}{
		{"bad policy", transfer(0, 10, 1, "x", "A", "B"), ErrFeePolicy},
		{"self transfer checked first", transfer(0, 10, 1, domain.SenderPays, "ghost", "ghost"), ErrSelfTransfer},
		{"window before existence", transfer(0, domain.ExecWindow+1, 1, domain.SenderPays, "ghost", "B"), ErrExecWindow},
		{"exec in the past", transfer(100, 99, 1, domain.SenderPays, "A", "B"), ErrExecWindow},
		{"unknown sender", transfer(0, 10, 1, domain.SenderPays, "ghost", "B"), ErrSenderNotFound},
		{"unknown recipient", transfer(0, 10, 1, domain.SenderPays, "A", "ghost"), ErrRecipientNotFound},
		{"recipient not yet registered", transfer(0, 499, 1, domain.SenderPays, "A", "late"), ErrNotRegistered},
		{"sender not yet registered", transfer(0, 10, 1, domain.SenderPays, "late", "A"), ErrNotRegistered},
		{"not logged in", transfer(0, 10, 1, domain.SenderPays, "idle", "A"), ErrNotLoggedIn},
		{"wrong session", PlaceRequest{Now: 0, ExecTime: 10, Amount: 1, FeePolicy: domain.SenderPays, SenderID: "A", RecipientID: "B", Session: "elsewhere"}, ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, regs...)
			f.login(t, "A", "1", "ip-A")
			f.login(t, "late", "3", "ip-late")

			_, err := f.bank.Place(tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, f.bank.Pending())
			assert.Equal(t, tc.req.Now, f.bank.LastSeen(), "clock cursor moves even on rejection")
			assert.Empty(t, f.events.placed)
		})
	}
}

func TestPlaceWindowBoundary(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 1_000},
		domain.Registration{ID: "B", PIN: "2"},
	)
	f.login(t, "A", "1", "ip-A")
	_, err := f.bank.Place(transfer(100, 100+domain.ExecWindow, 1, domain.SenderPays, "A", "B"))
	assert.NoError(t, err)
}

func TestSameExecTimeSettlesInSequenceOrder(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 10_000},
		domain.Registration{ID: "B", PIN: "2", Balance: 10_000},
	)
	f.login(t, "A", "1", "ip-A")
	f.login(t, "B", "2", "ip-B")

	_, err := f.bank.Place(transfer(0, 300, 100, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	_, err = f.bank.Place(transfer(0, 300, 200, domain.SenderPays, "B", "A"))
	require.NoError(t, err)
	_, err = f.bank.Place(transfer(0, 200, 300, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	f.bank.Drain()

	var ids []uint64
	for i := 0; i < f.ledger.Len(); i++ {
		ids = append(ids, f.ledger.At(i).SequenceID)
	}
	assert.Equal(t, []uint64{3, 1, 2}, ids)
}

func TestLedgerOrderingAndConservation(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	var regs []domain.Registration
	var initial uint64
	for _, id := range ids {
		regs = append(regs, domain.Registration{ID: id, PIN: id, Balance: 5_000})
		initial += 5_000
	}
	f := newFixture(t, regs...)
	for _, id := range ids {
		f.login(t, id, id, "ip-"+id)
	}

	rng := rand.New(rand.NewSource(281))
	var now domain.Timestamp
	for i := 0; i < 300; i++ {
		now += domain.Timestamp(rng.Intn(1_000))
		from := ids[rng.Intn(len(ids))]
		to := ids[rng.Intn(len(ids))]
		policy := domain.SenderPays
		if rng.Intn(2) == 0 {
			policy = domain.Shared
		}
		exec := now + domain.Timestamp(rng.Intn(5_000))
		_, _ = f.bank.Place(transfer(now, exec, uint64(rng.Intn(3_000)), policy, from, to))
	}
	f.bank.Drain()
	require.NotZero(t, f.ledger.Len())

	entries := make([]domain.SettledTransaction, f.ledger.Len())
	var fees uint64
	for i := range entries {
		entries[i] = f.ledger.At(i)
		fees += entries[i].Fee
		assert.GreaterOrEqual(t, entries[i].Fee, uint64(MinFee))
		assert.LessOrEqual(t, entries[i].Fee, uint64(MaxFee))
	}
	assert.True(t, sort.SliceIsSorted(entries, func(i, j int) bool {
		if entries[i].ExecTime == entries[j].ExecTime {
			return entries[i].SequenceID < entries[j].SequenceID
		}
		return entries[i].ExecTime < entries[j].ExecTime
	}), "ledger must be sorted by (exec time, sequence)")

	var final uint64
	for _, id := range ids {
		final += f.balance(t, id)
	}
	assert.Equal(t, initial, final+fees, "money only leaves as fees")
	assert.Equal(t, len(f.events.placed), len(f.events.settled)+len(f.events.dropped))
}

func TestAdvanceToIsIdempotent(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 1_000},
		domain.Registration{ID: "B", PIN: "2"},
	)
	f.login(t, "A", "1", "ip-A")
	_, err := f.bank.Place(transfer(0, 10, 100, domain.SenderPays, "A", "B"))
	require.NoError(t, err)
	_, err = f.bank.Place(transfer(0, 20, 100, domain.SenderPays, "A", "B"))
	require.NoError(t, err)

	f.bank.AdvanceTo(15)
	a, b, n := f.balance(t, "A"), f.balance(t, "B"), f.ledger.Len()
	f.bank.AdvanceTo(15)
	assert.Equal(t, a, f.balance(t, "A"))
	assert.Equal(t, b, f.balance(t, "B"))
	assert.Equal(t, n, f.ledger.Len())
	assert.Equal(t, 1, f.bank.Pending())
}

func TestCheckBalance(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 42, RegisteredAt: 77},
	)

	_, err := f.bank.CheckBalance("ghost", "ip", 0)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = f.bank.CheckBalance("A", "ip-A", 0)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	f.login(t, "A", "1", "ip-A")
	_, err = f.bank.CheckBalance("A", "ip-other", 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := f.bank.CheckBalance("A", "ip-A", 0)
	require.NoError(t, err)
	assert.Equal(t, Balance{ID: "A", AsOf: 77, Amount: 42}, got)

	got, err = f.bank.CheckBalance("A", "ip-A", 1_000)
	require.NoError(t, err)
	assert.Equal(t, domain.Timestamp(1_000), got.AsOf)

	assert.True(t, f.bank.Logout("A", "ip-A"))
	assert.False(t, f.bank.Logout("A", "ip-A"))
}
