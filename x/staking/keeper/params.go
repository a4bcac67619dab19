package keeper

import (
	"context"

	"github.com/noria-labs/noria/x/staking/types"
)

// GetParams returns the current staking parameters.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	return k.Params.Get(ctx)
}

// SetParams validates and stores the staking parameters.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	return k.Params.Set(ctx, params)
}

// BondingDuration returns the unlocking wait in eras.
func (k Keeper) BondingDuration(ctx context.Context) (uint64, error) {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return 0, err
	}

	return params.BondingDuration, nil
}

// HistoryDepth returns the number of closed eras kept in the store.
func (k Keeper) HistoryDepth(ctx context.Context) (uint64, error) {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return 0, err
	}

	return params.HistoryDepth, nil
}
