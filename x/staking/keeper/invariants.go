package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"

	"github.com/noria-labs/noria/x/staking/types"
)

// AllInvariants runs every module invariant.
func (k Keeper) AllInvariants(ctx context.Context) error {
	if err := k.LedgerInvariant(ctx); err != nil {
		return err
	}

	return k.ExposureInvariant(ctx)
}

// LedgerInvariant checks fund conservation and index consistency for every
// staking ledger: active plus unlocking equals total, nothing negative, and
// the controller index points back at the stash.
func (k Keeper) LedgerInvariant(ctx context.Context) error {
	return k.Ledgers.Walk(ctx, nil, func(stash string, ledger types.StakingLedger) (bool, error) {
		if err := ledger.Validate(); err != nil {
			return true, err
		}

		if ledger.Stash != stash {
			return true, fmt.Errorf("ledger stored under %s claims stash %s", stash, ledger.Stash)
		}

		paired, err := k.Controllers.Get(ctx, ledger.Controller)
		if err != nil {
			return true, fmt.Errorf("controller %s of stash %s has no pairing: %w", ledger.Controller, stash, err)
		}

		if paired != stash {
			return true, fmt.Errorf("controller %s paired with %s, expected %s", ledger.Controller, paired, stash)
		}

		return false, nil
	})
}

// ExposureInvariant checks the sum invariant of every committed exposure
// still in history, and that the clipped copy never exceeds the full one.
func (k Keeper) ExposureInvariant(ctx context.Context) error {
	return k.ErasStakers.Walk(ctx, nil, func(key collections.Pair[uint64, string], exposure types.Exposure) (bool, error) {
		if err := exposure.Validate(); err != nil {
			return true, fmt.Errorf("era %d validator %s: %w", key.K1(), key.K2(), err)
		}

		clipped, err := k.ErasStakersClipped.Get(ctx, key)
		if err != nil {
			return true, fmt.Errorf("era %d validator %s has no clipped exposure: %w", key.K1(), key.K2(), err)
		}

		if len(clipped.Others) > len(exposure.Others) {
			return true, fmt.Errorf("era %d validator %s: clipped exposure larger than full", key.K1(), key.K2())
		}

		if !clipped.Total.Equal(exposure.Total) || !clipped.Own.Equal(exposure.Own) {
			return true, fmt.Errorf("era %d validator %s: clipped exposure changed own/total", key.K1(), key.K2())
		}

		return false, nil
	})
}
