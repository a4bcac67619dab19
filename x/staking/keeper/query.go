package keeper

import (
	"context"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// GetLedger returns the staking ledger of a stash.
func (k Keeper) GetLedger(ctx context.Context, stash string) (types.StakingLedger, error) {
	return k.Ledgers.Get(ctx, stash)
}

// GetValidatorPrefs returns the standing preferences of a validator stash.
func (k Keeper) GetValidatorPrefs(ctx context.Context, stash string) (types.ValidatorPrefs, error) {
	return k.Validators.Get(ctx, stash)
}

// IsValidator reports whether the stash currently declares validator intent.
func (k Keeper) IsValidator(ctx context.Context, stash string) (bool, error) {
	return k.Validators.Has(ctx, stash)
}

// GetNominations returns the standing nominations of a nominator stash.
func (k Keeper) GetNominations(ctx context.Context, stash string) (types.Nominations, error) {
	return k.Nominators.Get(ctx, stash)
}

// GetExposure returns the full (untruncated) exposure of a validator in an
// era.
func (k Keeper) GetExposure(ctx context.Context, era uint64, validator string) (types.Exposure, error) {
	return k.ErasStakers.Get(ctx, collections.Join(era, validator))
}

// GetClippedExposure returns the reward-eligible exposure of a validator in
// an era.
func (k Keeper) GetClippedExposure(ctx context.Context, era uint64, validator string) (types.Exposure, error) {
	return k.ErasStakersClipped.Get(ctx, collections.Join(era, validator))
}

// GetEraValidators returns the validator set committed for an era.
func (k Keeper) GetEraValidators(ctx context.Context, era uint64) ([]string, error) {
	return k.ErasValidators.Get(ctx, era)
}

// GetEraTotalStake returns the combined stake behind an era's validator set.
func (k Keeper) GetEraTotalStake(ctx context.Context, era uint64) (math.Int, error) {
	return k.ErasTotalStake.Get(ctx, era)
}

// GetActiveEra returns the running era.
func (k Keeper) GetActiveEra(ctx context.Context) (types.ActiveEraInfo, error) {
	return k.ActiveEra.Get(ctx)
}

// GetCurrentEra returns the era being planned.
func (k Keeper) GetCurrentEra(ctx context.Context) (uint64, error) {
	return k.CurrentEra.Get(ctx)
}

// GetSlashingSpan returns the current slashing span of a validator.
func (k Keeper) GetSlashingSpan(ctx context.Context, validator string) (types.SlashingSpan, error) {
	return k.SlashingSpans.Get(ctx, validator)
}

// IsClaimed reports whether the payout for (era, validator) was taken.
func (k Keeper) IsClaimed(ctx context.Context, era uint64, validator string) (bool, error) {
	return k.ClaimedRewards.Has(ctx, collections.Join(era, validator))
}

// GetUnappliedSlashes returns the pending slashes scheduled for an era.
func (k Keeper) GetUnappliedSlashes(ctx context.Context, applyEra uint64) ([]types.UnappliedSlash, error) {
	pending := []types.UnappliedSlash{}
	rng := collections.NewPrefixedPairRange[uint64, uint64](applyEra)
	err := k.UnappliedSlashes.Walk(ctx, rng, func(_ collections.Pair[uint64, uint64], unapplied types.UnappliedSlash) (bool, error) {
		pending = append(pending, unapplied)
		return false, nil
	})

	return pending, err
}

// GetRotationStatus returns the persisted outcome of the last rotation
// attempt.
func (k Keeper) GetRotationStatus(ctx context.Context) (uint32, error) {
	return k.RotationStatus.Get(ctx)
}
