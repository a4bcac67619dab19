package keeper

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// OnSessionEnd is the inbound signal from the session collaborator, called
// once per finished session. It is idempotent per session index: a repeated
// call for an already-processed session is a no-op. When the finished
// session closes the running era, a new era is planned and committed, or the
// previous set is kept on election failure.
func (k Keeper) OnSessionEnd(ctx context.Context, session uint64, now time.Time) error {
	lastPlanned, err := k.LastPlannedSession.Get(ctx)
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return err
	}

	if err == nil && session <= lastPlanned {
		return nil
	}

	if err := k.LastPlannedSession.Set(ctx, session); err != nil {
		return err
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	startSession, err := k.ErasStartSessionIndex.Get(ctx, active.Index)
	if err != nil {
		return err
	}

	if session+1 < startSession+params.SessionsPerEra {
		return nil
	}

	return k.rotateEra(ctx, params, active, session, now)
}

// rotateEra drives one Planning -> Committed | FallbackCommitted pass. No
// era state is written until election and exposure computation have fully
// succeeded, so a failed rotation leaves the previous era byte-identical.
func (k Keeper) rotateEra(ctx context.Context, params types.Params, active types.ActiveEraInfo, session uint64, now time.Time) error {
	logger := k.Logger(ctx)

	if err := k.RotationStatus.Set(ctx, RotationStatusPlanning); err != nil {
		return err
	}

	snap, err := k.snapshotStakers(ctx)
	if err != nil {
		return err
	}

	result, err := k.electionProvider.Elect(snap.candidates, snap.voters, params.MaxValidators)
	if err != nil {
		logger.Error("election provider failed; keeping previous validator set",
			"event", types.EventTypeElectionFallback,
			"era", active.Index,
			"session", session,
			"error", err,
		)

		return k.RotationStatus.Set(ctx, RotationStatusFallbackCommitted)
	}

	exposures, err := k.computeExposures(result, params.MaxNominatorRewardedPerValidator)
	if err != nil {
		logger.Error("election result rejected; keeping previous validator set",
			"event", types.EventTypeElectionFallback,
			"era", active.Index,
			"session", session,
			"error", err,
		)

		return k.RotationStatus.Set(ctx, RotationStatusFallbackCommitted)
	}

	if uint32(len(exposures.winners)) < params.MinValidatorCount || exposures.totalStake.IsZero() {
		logger.Error("elected set too small; keeping previous validator set",
			"event", types.EventTypeElectionFallback,
			"era", active.Index,
			"winners", len(exposures.winners),
			"total_stake", exposures.totalStake,
		)

		return k.RotationStatus.Set(ctx, RotationStatusFallbackCommitted)
	}

	return k.commitEra(ctx, params, active, exposures, session, now)
}

// commitEra writes the fully computed next era and activates it.
func (k Keeper) commitEra(ctx context.Context, params types.Params, active types.ActiveEraInfo, exposures eraExposures, session uint64, now time.Time) error {
	currentEra, err := k.CurrentEra.Get(ctx)
	if err != nil {
		return err
	}

	newEra := currentEra + 1
	if err := k.CurrentEra.Set(ctx, newEra); err != nil {
		return err
	}

	for _, winner := range exposures.winners {
		key := collections.Join(newEra, winner)
		if err := k.ErasStakers.Set(ctx, key, exposures.full[winner]); err != nil {
			return err
		}

		if err := k.ErasStakersClipped.Set(ctx, key, exposures.clipped[winner]); err != nil {
			return err
		}

		prefs, err := k.Validators.Get(ctx, winner)
		if err != nil {
			if !errors.Is(err, collections.ErrNotFound) {
				return err
			}

			prefs = types.ValidatorPrefs{Commission: math.LegacyZeroDec()}
		}

		if err := k.ErasValidatorPrefs.Set(ctx, key, prefs); err != nil {
			return err
		}
	}

	if err := k.ErasValidators.Set(ctx, newEra, exposures.winners); err != nil {
		return err
	}

	if err := k.ErasTotalStake.Set(ctx, newEra, exposures.totalStake); err != nil {
		return err
	}

	if err := k.ErasStartSessionIndex.Set(ctx, newEra, session+1); err != nil {
		return err
	}

	// the finished era becomes payable before the new one starts
	if err := k.closeEra(ctx, params, active.Index); err != nil {
		return err
	}

	if err := k.ActiveEra.Set(ctx, types.ActiveEraInfo{Index: newEra, Start: now}); err != nil {
		return err
	}

	if err := k.applyScheduledSlashes(ctx, newEra); err != nil {
		return err
	}

	if err := k.pruneOldEras(ctx, params, newEra); err != nil {
		return err
	}

	k.Logger(ctx).Info("new era committed",
		"event", types.EventTypeEraCommitted,
		"era", newEra,
		"session", session,
		"validators", len(exposures.winners),
		"total_stake", exposures.totalStake,
	)

	return k.RotationStatus.Set(ctx, RotationStatusCommitted)
}

// closeEra fixes the payout pool of a finished era from the reward curve and
// the era's committed stake.
func (k Keeper) closeEra(ctx context.Context, params types.Params, era uint64) error {
	staked, err := k.ErasTotalStake.Get(ctx, era)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			// nothing was committed for the era; nothing to pay
			return nil
		}

		return err
	}

	issuance, err := k.bankKeeper.TotalIssuance(ctx)
	if err != nil {
		return err
	}

	pool := math.ZeroInt()
	if issuance.IsPositive() {
		curve, err := k.RewardCurve(ctx)
		if err != nil {
			return err
		}

		ratio := math.LegacyNewDecFromInt(staked).QuoTruncate(math.LegacyNewDecFromInt(issuance))
		rate := curve.AnnualRate(ratio)
		pool = rate.MulInt(issuance).QuoTruncate(math.LegacyNewDec(int64(params.ErasPerYear))).TruncateInt()
	}

	return k.ErasValidatorReward.Set(ctx, era, pool)
}

// pruneOldEras drops every era older than HistoryDepth: its exposures,
// prefs, points, payout pool and claim marks.
func (k Keeper) pruneOldEras(ctx context.Context, params types.Params, newEra uint64) error {
	if newEra <= params.HistoryDepth {
		return nil
	}
	threshold := newEra - params.HistoryDepth // eras < threshold go away

	staleEras := []uint64{}
	rng := new(collections.Range[uint64]).EndExclusive(threshold)
	err := k.ErasStartSessionIndex.Walk(ctx, rng, func(era uint64, _ uint64) (bool, error) {
		staleEras = append(staleEras, era)
		return false, nil
	})
	if err != nil {
		return err
	}

	for _, era := range staleEras {
		pairKeys := []collections.Pair[uint64, string]{}
		err := k.ErasStakers.Walk(ctx, collections.NewPrefixedPairRange[uint64, string](era), func(key collections.Pair[uint64, string], _ types.Exposure) (bool, error) {
			pairKeys = append(pairKeys, key)
			return false, nil
		})
		if err != nil {
			return err
		}

		for _, key := range pairKeys {
			if err := k.ErasStakers.Remove(ctx, key); err != nil {
				return err
			}

			if err := k.ErasStakersClipped.Remove(ctx, key); err != nil {
				return err
			}

			if err := k.ErasValidatorPrefs.Remove(ctx, key); err != nil {
				return err
			}

			if err := k.ClaimedRewards.Remove(ctx, key); err != nil {
				return err
			}
		}

		if err := k.ErasValidators.Remove(ctx, era); err != nil {
			return err
		}

		if err := k.ErasTotalStake.Remove(ctx, era); err != nil {
			return err
		}

		if err := k.ErasRewardPoints.Remove(ctx, era); err != nil {
			return err
		}

		if err := k.ErasValidatorReward.Remove(ctx, era); err != nil {
			return err
		}

		if err := k.ErasStartSessionIndex.Remove(ctx, era); err != nil {
			return err
		}
	}

	return nil
}
