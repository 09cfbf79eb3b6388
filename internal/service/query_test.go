package service

import (
	"testing"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededQueries settles four transfers:
//
//	seq 1  A->B  amount 1000  placed 240101080000  exec 240101090000  fee 10
//	seq 2  B->A  amount 2000  placed 240101080000  exec 240101235959  fee 20
//	seq 3  A->B  amount 30000 placed 240101120000  exec 240102000000  fee 300
//	seq 4  A->B  amount 500   placed 240101230000  exec 240102010000  fee 10
func seededQueries(t *testing.T) (*Queries, *fixture) {
	t.Helper()
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 100_000, RegisteredAt: 240101000000},
		domain.Registration{ID: "B", PIN: "2", Balance: 100_000, RegisteredAt: 240101000000},
	)
	f.login(t, "A", "1", "ip-A")
	f.login(t, "B", "2", "ip-B")

	for _, req := range []PlaceRequest{
		transfer(240101080000, 240101090000, 1_000, domain.SenderPays, "A", "B"),
		transfer(240101080000, 240101235959, 2_000, domain.SenderPays, "B", "A"),
		transfer(240101120000, 240102000000, 30_000, domain.SenderPays, "A", "B"),
		transfer(240101230000, 240102010000, 500, domain.SenderPays, "A", "B"),
	} {
		_, err := f.bank.Place(req)
		require.NoError(t, err)
	}
	f.bank.Drain()
	require.Equal(t, 4, f.ledger.Len())
	return NewQueries(f.accounts, f.ledger), f
}

func TestListHalfOpenRange(t *testing.T) {
	q, _ := seededQueries(t)

	got, err := q.List(240101090000, 240102000000)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, uint64(1), got.Transactions[0].SequenceID)
	assert.Equal(t, uint64(2), got.Transactions[1].SequenceID)

	none, err := q.List(250101000000, 250102000000)
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	assert.NotNil(t, none.Transactions)

	_, err = q.List(5, 5)
	assert.ErrorIs(t, err, ErrEmptyInterval)
}

func TestRevenue(t *testing.T) {
	q, _ := seededQueries(t)

	byExec, err := q.Revenue(240101000000, 240102000000, ByExecTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), byExec.Total)

	byPlacement, err := q.Revenue(240101000000, 240102000000, ByPlacementTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(340), byPlacement.Total)

	defaulted, err := q.Revenue(240101000000, 240103000000, "")
	require.NoError(t, err)
	assert.Equal(t, ByExecTime, defaulted.Basis)
	assert.Equal(t, uint64(340), defaulted.Total)

	_, err = q.Revenue(1, 1, ByExecTime)
	assert.ErrorIs(t, err, ErrEmptyInterval)
}

func TestHistory(t *testing.T) {
	q, _ := seededQueries(t)

	h, err := q.History("A")
	require.NoError(t, err)
	assert.Equal(t, 4, h.Total)
	assert.Equal(t, 1, h.IncomingCount)
	assert.Equal(t, 3, h.OutgoingCount)
	assert.Equal(t, uint64(100_000-1_000-10+2_000-30_000-300-500-10), h.Balance)
	require.Len(t, h.Outgoing, 3)
	assert.Equal(t, uint64(1), h.Outgoing[0].SequenceID)
	assert.Equal(t, uint64(4), h.Outgoing[2].SequenceID)

	_, err = q.History("ghost")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestHistoryKeepsMostRecentWindow(t *testing.T) {
	f := newFixture(t,
		domain.Registration{ID: "A", PIN: "1", Balance: 1_000_000},
		domain.Registration{ID: "B", PIN: "2"},
	)
	f.login(t, "A", "1", "ip-A")
	for i := domain.Timestamp(1); i <= 13; i++ {
		_, err := f.bank.Place(transfer(i, i, 100, domain.SenderPays, "A", "B"))
		require.NoError(t, err)
	}
	f.bank.Drain()

	h, err := NewQueries(f.accounts, f.ledger).History("B")
	require.NoError(t, err)
	assert.Equal(t, 13, h.IncomingCount)
	require.Len(t, h.Incoming, HistoryWindow)
	assert.Equal(t, uint64(4), h.Incoming[0].SequenceID, "oldest of the last ten")
	assert.Equal(t, uint64(13), h.Incoming[9].SequenceID)
	assert.Empty(t, h.Outgoing)
}

func TestDailySummary(t *testing.T) {
	q, _ := seededQueries(t)

	day := q.DailySummary(240101153012)
	assert.Equal(t, domain.Timestamp(240101000000), day.Start)
	assert.Equal(t, domain.Timestamp(240102000000), day.End)
	assert.Equal(t, 2, day.Count)
	assert.Equal(t, uint64(30), day.Revenue)

	next := q.DailySummary(240102000000)
	assert.Equal(t, 2, next.Count)
	assert.Equal(t, uint64(310), next.Revenue)
}
