package keeper

import (
	"context"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// InitGenesis opens the module at era zero: founding validators are bonded,
// declared, and committed as the first validator set with self-stake-only
// exposures.
func (k Keeper) InitGenesis(ctx context.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}

	if err := k.Params.Set(ctx, gs.Params); err != nil {
		return err
	}

	if err := k.CurrentEra.Set(ctx, 0); err != nil {
		return err
	}

	if err := k.ActiveEra.Set(ctx, types.ActiveEraInfo{Index: 0, Start: gs.StartTime}); err != nil {
		return err
	}

	if err := k.ErasStartSessionIndex.Set(ctx, 0, 0); err != nil {
		return err
	}

	if err := k.RotationStatus.Set(ctx, RotationStatusIdle); err != nil {
		return err
	}

	winners := make([]string, 0, len(gs.Validators))
	totalStake := math.ZeroInt()
	for _, v := range gs.Validators {
		if err := k.Bond(ctx, v.Stash, v.Controller, v.Bond, types.RewardDestinationStaked); err != nil {
			return err
		}

		if err := k.Validate(ctx, v.Controller, v.Prefs); err != nil {
			return err
		}

		exposure := types.NewExposure(v.Bond, nil)
		key := collections.Join(uint64(0), v.Stash)
		if err := k.ErasStakers.Set(ctx, key, exposure); err != nil {
			return err
		}

		if err := k.ErasStakersClipped.Set(ctx, key, exposure); err != nil {
			return err
		}

		if err := k.ErasValidatorPrefs.Set(ctx, key, v.Prefs); err != nil {
			return err
		}

		winners = append(winners, v.Stash)
		totalStake = totalStake.Add(v.Bond)
	}

	if len(winners) > 0 {
		if err := k.ErasValidators.Set(ctx, 0, winners); err != nil {
			return err
		}

		if err := k.ErasTotalStake.Set(ctx, 0, totalStake); err != nil {
			return err
		}
	}

	return nil
}

// ExportGenesis dumps the parameters and the live validator ledgers. Era
// history is runtime state and is not exported.
func (k Keeper) ExportGenesis(ctx context.Context) (types.GenesisState, error) {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return types.GenesisState{}, err
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return types.GenesisState{}, err
	}

	validators := []types.GenesisValidator{}
	err = k.Validators.Walk(ctx, nil, func(stash string, prefs types.ValidatorPrefs) (bool, error) {
		ledger, err := k.Ledgers.Get(ctx, stash)
		if err != nil {
			return true, err
		}

		validators = append(validators, types.GenesisValidator{
			Stash:      stash,
			Controller: ledger.Controller,
			Bond:       ledger.Active,
			Prefs:      prefs,
		})
		return false, nil
	})
	if err != nil {
		return types.GenesisState{}, err
	}

	return types.GenesisState{
		Params:     params,
		StartTime:  active.Start,
		Validators: validators,
	}, nil
}
