package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// AddEraPoints credits activity points to a validator for the running era.
// Points are the external input the consensus layer feeds per authored
// block; they decide the validator's share of the era payout.
func (k Keeper) AddEraPoints(ctx context.Context, validator string, points uint64) error {
	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	record, err := k.ErasRewardPoints.Get(ctx, active.Index)
	if err != nil {
		if !errors.Is(err, collections.ErrNotFound) {
			return err
		}

		record = types.NewEraRewardPoints()
	}

	if record.Individual == nil {
		record.Individual = make(map[string]uint64)
	}

	record.Individual[validator] += points
	record.Total += points

	return k.ErasRewardPoints.Set(ctx, active.Index, record)
}

// PayoutStakers pays the era reward earned by one validator and its
// rewarded nominators. The claim is marked before any transfer, so a retry
// of a half-failed payout can never pay twice.
func (k Keeper) PayoutStakers(ctx context.Context, era uint64, validator string) error {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	if era >= active.Index {
		return errorsmod.Wrapf(types.ErrEraOutOfRange, "era %d is not finished", era)
	}

	if era+params.HistoryDepth < active.Index {
		return errorsmod.Wrapf(types.ErrEraOutOfRange, "era %d is older than the retained history", era)
	}

	key := collections.Join(era, validator)
	if claimed, err := k.ClaimedRewards.Has(ctx, key); err != nil {
		return err
	} else if claimed {
		return errorsmod.Wrapf(types.ErrAlreadyClaimed, "era %d validator %s", era, validator)
	}

	pool, err := k.ErasValidatorReward.Get(ctx, era)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return errorsmod.Wrapf(types.ErrEraOutOfRange, "era %d has no payout pool", era)
		}

		return err
	}

	clipped, err := k.ErasStakersClipped.Get(ctx, key)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return errorsmod.Wrapf(types.ErrEraOutOfRange, "validator %s has no exposure in era %d", validator, era)
		}

		return err
	}

	prefs, err := k.ErasValidatorPrefs.Get(ctx, key)
	if err != nil {
		return err
	}

	validatorShare, err := k.validatorEraShare(ctx, era, validator, pool)
	if err != nil {
		return err
	}

	// claim first; everything after this point is at-most-once
	if err := k.ClaimedRewards.Set(ctx, key); err != nil {
		return err
	}

	if validatorShare.IsZero() || clipped.Total.IsZero() {
		return k.Hooks().AfterEraPaid(ctx, era, validator, math.ZeroInt())
	}

	commission := prefs.Commission.MulInt(validatorShare).TruncateInt()
	leftover := validatorShare.Sub(commission)

	totalDec := math.LegacyNewDecFromInt(clipped.Total)
	paid := math.ZeroInt()

	if commission.IsPositive() {
		if err := k.payReward(ctx, validator, commission); err != nil {
			return err
		}

		paid = paid.Add(commission)
	}

	ownPart := math.LegacyNewDecFromInt(leftover).MulInt(clipped.Own).QuoTruncate(totalDec).TruncateInt()
	if ownPart.IsPositive() {
		if err := k.payReward(ctx, validator, ownPart); err != nil {
			return err
		}

		paid = paid.Add(ownPart)
	}

	for _, other := range clipped.Others {
		part := math.LegacyNewDecFromInt(leftover).MulInt(other.Value).QuoTruncate(totalDec).TruncateInt()
		if !part.IsPositive() {
			continue
		}

		if err := k.payReward(ctx, other.Who, part); err != nil {
			return err
		}

		paid = paid.Add(part)
	}

	k.Logger(ctx).Info("era rewards paid",
		"event", types.EventTypeEraPaid,
		"era", era,
		"validator", validator,
		"amount", paid,
	)

	return k.Hooks().AfterEraPaid(ctx, era, validator, paid)
}

// validatorEraShare computes one validator's cut of the era pool from its
// fraction of the era's activity points.
func (k Keeper) validatorEraShare(ctx context.Context, era uint64, validator string, pool math.Int) (math.Int, error) {
	points, err := k.ErasRewardPoints.Get(ctx, era)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return math.ZeroInt(), nil
		}

		return math.Int{}, err
	}

	if points.Total == 0 {
		return math.ZeroInt(), nil
	}

	individual := points.Individual[validator]
	if individual == 0 {
		return math.ZeroInt(), nil
	}

	share := math.LegacyNewDec(int64(individual)).QuoTruncate(math.LegacyNewDec(int64(points.Total)))
	return share.MulInt(pool).TruncateInt(), nil
}

// payReward mints amount to the stash's configured destination. A stash
// whose ledger is gone is paid to the stash account directly.
func (k Keeper) payReward(ctx context.Context, stash string, amount math.Int) error {
	ledger, err := k.Ledgers.Get(ctx, stash)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return k.bankKeeper.MintReward(ctx, stash, amount)
		}

		return err
	}

	switch ledger.Payee {
	case types.RewardDestinationController:
		return k.bankKeeper.MintReward(ctx, ledger.Controller, amount)

	case types.RewardDestinationStash:
		return k.bankKeeper.MintReward(ctx, stash, amount)

	case types.RewardDestinationStaked:
		if err := k.bankKeeper.MintReward(ctx, stash, amount); err != nil {
			return err
		}

		if err := k.bankKeeper.LockStake(ctx, stash, amount); err != nil {
			return err
		}

		ledger.Active = ledger.Active.Add(amount)
		ledger.Total = ledger.Total.Add(amount)
		return k.setLedger(ctx, ledger)

	default:
		return k.bankKeeper.MintReward(ctx, stash, amount)
	}
}
