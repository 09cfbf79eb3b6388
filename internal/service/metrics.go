package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/settlebank/internal/store"
)

var (
	placementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlebank_placements_total",
		Help: "Placement requests, labeled by outcome",
	}, []string{"outcome"})

	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlebank_settlements_total",
		Help: "Due transactions processed, labeled settled or dropped",
	}, []string{"outcome"})

	feesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlebank_fees_collected_total",
		Help: "Sum of fees on settled transactions",
	})

	pendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlebank_pending_transactions",
		Help: "Transactions waiting for their execution time",
	})
)

func rejectOutcome(err error) string {
	switch {
	case errors.Is(err, ErrFeePolicy):
		return "bad_fee_policy"
	case errors.Is(err, ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ErrExecWindow):
		return "exec_window"
	case errors.Is(err, ErrSenderNotFound), errors.Is(err, ErrRecipientNotFound):
		return "unknown_account"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrNotLoggedIn):
		return "not_logged_in"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, store.ErrAccountNotFound):
		return "unknown_account"
	default:
		return "error"
	}
}
