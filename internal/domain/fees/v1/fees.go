package feesv1

import (
	"errors"
	"math/bits"
)

// ErrInvalidTier is returned for a tier outside the schedule.
var ErrInvalidTier = errors.New("unknown fee tier")

// Tier indexes the fee schedule. Higher tiers pay lower taker fees.
type Tier uint8

const (
	// TierBase is the default tier for accounts without a discount.
	TierBase Tier = iota
	Tier1
	Tier2
	Tier3
	Tier4
	Tier5
	Tier6

	tierCount = 7
)

// Valid reports whether the tier exists in the schedule.
func (t Tier) Valid() bool {
	return t < tierCount
}

const feeDenominator = 10_000

// Schedule holds the per-tier maker and taker rates in basis points.
// Negative maker rates are rebates.
type Schedule struct {
	takerBps [tierCount]uint16
	makerBps [tierCount]int16
}

// DefaultSchedule returns the standard tier ladder: taker fees step down from
// 22 bps to 10 bps, makers earn a flat 3 bps rebate.
func DefaultSchedule() *Schedule {
	return &Schedule{
		takerBps: [tierCount]uint16{22, 20, 18, 16, 14, 12, 10},
		makerBps: [tierCount]int16{-3, -3, -3, -3, -3, -3, -3},
	}
}

// TakerBps returns the taker rate for a tier.
func (s *Schedule) TakerBps(tier Tier) uint16 {
	return s.takerBps[tier]
}

// MakerBps returns the maker rate for a tier.
func (s *Schedule) MakerBps(tier Tier) int16 {
	return s.makerBps[tier]
}

// Fee computes the fee charged for one fill: quantity * price * rate / 10000,
// truncated toward zero. A negative result is a maker rebate, accumulated by
// the settlement layer. The caller bounds quantity and price so the notional
// fits in 64 bits; the bps product is widened to 128 bits before dividing so
// the division itself is exact.
func (s *Schedule) Fee(quantity, price uint64, tier Tier, isMaker bool) (int64, error) {
	if !tier.Valid() {
		return 0, ErrInvalidTier
	}

	notional := quantity * price
	if isMaker {
		rate := s.makerBps[tier]
		if rate < 0 {
			return -int64(scaleBps(notional, uint64(-rate))), nil
		}
		return int64(scaleBps(notional, uint64(rate))), nil
	}
	return int64(scaleBps(notional, uint64(s.takerBps[tier]))), nil
}

func scaleBps(notional, bps uint64) uint64 {
	hi, lo := bits.Mul64(notional, bps)
	quo, _ := bits.Div64(hi, lo, feeDenominator)
	return quo
}
