package service

import "github.com/punchamoorthee/settlebank/internal/domain"

const (
	MinFee = 10
	MaxFee = 450
)

// Fee is 1% of amount clamped to [MinFee, MaxFee], reduced by a quarter when
// the sender's account age at execution reaches domain.Loyalty.
func Fee(amount uint64, age domain.Timestamp) uint64 {
	fee := amount / 100
	if fee < MinFee {
		fee = MinFee
	} else if fee > MaxFee {
		fee = MaxFee
	}
	if age >= domain.Loyalty {
		fee = fee * 3 / 4
	}
	return fee
}

// SplitFee divides fee between the parties. Under the shared policy the
// sender absorbs the odd unit.
func SplitFee(fee uint64, policy domain.FeePolicy) (senderFee, recipientFee uint64) {
	if policy == domain.Shared {
		recipientFee = fee / 2
		return fee - recipientFee, recipientFee
	}
	return fee, 0
}
