// Package election provides the reference election provider consumed by the
// staking keeper. Production selection algorithms implement
// types.ElectionProvider and are swapped in at wiring time; this package
// only ships the trivial on-chain fallback.
package election

import (
	"errors"
	"sort"

	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

var _ types.ElectionProvider = FallbackProvider{}

// ErrNoCandidates is returned when the candidate pool is empty.
var ErrNoCandidates = errors.New("election: no candidates")

// FallbackProvider is a greedy proportional election: every voter's stake is
// split evenly across its targets, each candidate additionally backs itself
// with its own stake, and the highest-backed candidates win. Given identical
// inputs the result is identical: candidates and voters are processed in
// identity order and ties break on ascending identity.
type FallbackProvider struct{}

// New returns the fallback provider.
func New() FallbackProvider {
	return FallbackProvider{}
}

// Elect implements types.ElectionProvider.
func (FallbackProvider) Elect(candidates []types.Candidate, voters []types.Voter, maxWinners uint32) (types.ElectionResult, error) {
	if len(candidates) == 0 {
		return types.ElectionResult{}, ErrNoCandidates
	}

	ordered := make([]types.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Address < ordered[j].Address })

	// self votes first
	backing := make(map[string][]types.IndividualExposure, len(ordered))
	totals := make(map[string]math.Int, len(ordered))
	for _, candidate := range ordered {
		backing[candidate.Address] = []types.IndividualExposure{{Who: candidate.Address, Value: candidate.SelfStake}}
		totals[candidate.Address] = candidate.SelfStake
	}

	orderedVoters := make([]types.Voter, len(voters))
	copy(orderedVoters, voters)
	sort.Slice(orderedVoters, func(i, j int) bool { return orderedVoters[i].Who < orderedVoters[j].Who })

	for _, voter := range orderedVoters {
		targets := make([]string, 0, len(voter.Targets))
		for _, target := range voter.Targets {
			if _, ok := totals[target]; ok {
				targets = append(targets, target)
			}
		}

		if len(targets) == 0 || !voter.Stake.IsPositive() {
			continue
		}
		sort.Strings(targets)

		// even split; the first target absorbs the rounding remainder
		per := voter.Stake.QuoRaw(int64(len(targets)))
		remainder := voter.Stake.Sub(per.MulRaw(int64(len(targets))))
		for i, target := range targets {
			value := per
			if i == 0 {
				value = value.Add(remainder)
			}

			if !value.IsPositive() {
				continue
			}

			backing[target] = append(backing[target], types.IndividualExposure{Who: voter.Who, Value: value})
			totals[target] = totals[target].Add(value)
		}
	}

	winners := make([]string, 0, len(ordered))
	for _, candidate := range ordered {
		winners = append(winners, candidate.Address)
	}
	sort.SliceStable(winners, func(i, j int) bool {
		ti, tj := totals[winners[i]], totals[winners[j]]
		switch {
		case ti.GT(tj):
			return true
		case ti.LT(tj):
			return false
		default:
			return winners[i] < winners[j]
		}
	})

	if uint32(len(winners)) > maxWinners {
		winners = winners[:maxWinners]
	}

	supports := make(map[string]types.Support, len(winners))
	for _, winner := range winners {
		supports[winner] = types.Support{
			Total:  totals[winner],
			Voters: backing[winner],
		}
	}

	return types.ElectionResult{Winners: winners, Supports: supports}, nil
}
