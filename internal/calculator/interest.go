// Package calculator implements the pure accounting math for cycle settlement.
package calculator

import "fmt"

// InterestShares computes each non-winner's share of a cycle's interest.
//
// Interest is integer money in the smallest currency unit, so an even split
// can leave a remainder of up to nonWinners-1 units. The full remainder is
// assigned to the first non-winner in member-iteration order, which guarantees
// the shares always sum to exactly interest: no unit is lost to truncation.
//
// The returned slice has one share per non-winner, in member-iteration order.
func InterestShares(interest int64, nonWinners int) ([]int64, error) {
	if interest < 0 {
		return nil, fmt.Errorf("interest cannot be negative: %d", interest)
	}
	if nonWinners < 1 {
		return nil, fmt.Errorf("must have at least one non-winner, got %d", nonWinners)
	}

	per := interest / int64(nonWinners)
	remainder := interest % int64(nonWinners)

	shares := make([]int64, nonWinners)
	for i := range shares {
		shares[i] = per
	}
	shares[0] += remainder

	return shares, nil
}

// LowestBid selects the winning bid: the strictly lowest amount, with ties
// broken by insertion order (first inserted wins). The tie-break is a
// documented, deterministic rule, not an arbitrary one: bidders is expected
// in the order bids were first placed.
//
// Returns the winning index, or an error if bids is empty.
func LowestBid(amounts []int64) (int, error) {
	if len(amounts) == 0 {
		return 0, fmt.Errorf("no bids to select from")
	}

	best := 0
	for i := 1; i < len(amounts); i++ {
		if amounts[i] < amounts[best] {
			best = i
		}
	}
	return best, nil
}
