package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// eraSnapshot is the consistent view of candidates and voters an election
// runs against. It is assembled in memory before any era state is written.
type eraSnapshot struct {
	candidates []types.Candidate
	voters     []types.Voter
}

// snapshotStakers collects the current validator intentions and nominations
// backed by live ledgers. Nomination targets that stopped validating are
// filtered out; suppressed nominations are skipped entirely.
func (k Keeper) snapshotStakers(ctx context.Context) (eraSnapshot, error) {
	var snap eraSnapshot

	validating := make(map[string]bool)
	err := k.Validators.Walk(ctx, nil, func(stash string, prefs types.ValidatorPrefs) (bool, error) {
		ledger, err := k.Ledgers.Get(ctx, stash)
		if err != nil {
			// intention without a ledger carries no stake; skip it
			return false, nil
		}

		if !ledger.Active.IsPositive() {
			return false, nil
		}

		validating[stash] = true
		snap.candidates = append(snap.candidates, types.Candidate{
			Address:   stash,
			SelfStake: ledger.Active,
			Prefs:     prefs,
		})
		return false, nil
	})
	if err != nil {
		return eraSnapshot{}, err
	}

	err = k.Nominators.Walk(ctx, nil, func(stash string, nominations types.Nominations) (bool, error) {
		if nominations.Suppressed {
			return false, nil
		}

		ledger, err := k.Ledgers.Get(ctx, stash)
		if err != nil {
			return false, nil
		}

		if !ledger.Active.IsPositive() {
			return false, nil
		}

		targets := make([]string, 0, len(nominations.Targets))
		for _, target := range nominations.Targets {
			if validating[target] {
				targets = append(targets, target)
			}
		}

		if len(targets) == 0 {
			return false, nil
		}

		snap.voters = append(snap.voters, types.Voter{
			Who:     stash,
			Stake:   ledger.Active,
			Targets: targets,
		})
		return false, nil
	})
	if err != nil {
		return eraSnapshot{}, err
	}

	return snap, nil
}

// eraExposures is the fully computed exposure set for a new era, ready to be
// committed in one pass.
type eraExposures struct {
	winners    []string
	full       map[string]types.Exposure
	clipped    map[string]types.Exposure
	totalStake math.Int
}

// computeExposures turns election supports into per-validator exposures. The
// split across targets is exactly the one the provider produced; this
// function only separates self stake from nominator contributions and
// applies the reward clipping.
func (k Keeper) computeExposures(result types.ElectionResult, maxRewarded uint32) (eraExposures, error) {
	exposures := eraExposures{
		winners:    result.Winners,
		full:       make(map[string]types.Exposure, len(result.Winners)),
		clipped:    make(map[string]types.Exposure, len(result.Winners)),
		totalStake: math.ZeroInt(),
	}

	for _, winner := range result.Winners {
		support, ok := result.Supports[winner]
		if !ok {
			return eraExposures{}, errorsmod.Wrapf(types.ErrElectionFailed, "winner %s has no support", winner)
		}

		own := math.ZeroInt()
		others := make([]types.IndividualExposure, 0, len(support.Voters))
		for _, voter := range support.Voters {
			if voter.Who == winner {
				own = own.Add(voter.Value)
				continue
			}

			others = append(others, voter)
		}

		exposure := types.NewExposure(own, others)
		if !exposure.Total.Equal(support.Total) {
			return eraExposures{}, errorsmod.Wrapf(types.ErrElectionFailed, "support total %s of %s does not match exposure total %s",
				support.Total, winner, exposure.Total)
		}

		exposures.full[winner] = exposure
		exposures.clipped[winner] = exposure.Clipped(maxRewarded)
		exposures.totalStake = exposures.totalStake.Add(exposure.Total)
	}

	return exposures, nil
}
