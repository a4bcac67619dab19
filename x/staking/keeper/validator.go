package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"

	"github.com/noria-labs/noria/x/staking/types"
)

// Validate declares the controller's stash as a validator candidate with the
// given preferences. Any standing nomination of the stash is dropped: an
// identity validates or nominates, never both.
func (k Keeper) Validate(ctx context.Context, controller string, prefs types.ValidatorPrefs) error {
	stash, _, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	if err := prefs.Validate(params.MinCommissionRate); err != nil {
		return errorsmod.Wrap(types.ErrCommissionInvalid, err.Error())
	}

	if err := k.Nominators.Remove(ctx, stash); err != nil {
		return err
	}

	return k.Validators.Set(ctx, stash, prefs)
}

// Nominate declares the controller's stash as a nominator of the given
// targets. Targets must be registered validators; a blocked validator
// rejects everyone but itself.
func (k Keeper) Nominate(ctx context.Context, controller string, targets []string) error {
	stash, _, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		return types.ErrNoTargets
	}

	if uint32(len(targets)) > params.MaxNominations {
		return errorsmod.Wrapf(types.ErrTooManyTargets, "got %d, maximum %d", len(targets), params.MaxNominations)
	}

	deduped := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true

		prefs, err := k.Validators.Get(ctx, target)
		if err != nil {
			if errors.Is(err, collections.ErrNotFound) {
				return errorsmod.Wrapf(types.ErrNotValidator, "target %s", target)
			}

			return err
		}

		if prefs.Blocked && target != stash {
			return errorsmod.Wrapf(types.ErrTargetBlocked, "target %s", target)
		}

		deduped = append(deduped, target)
	}

	currentEra, err := k.CurrentEra.Get(ctx)
	if err != nil {
		return err
	}

	if err := k.Validators.Remove(ctx, stash); err != nil {
		return err
	}

	return k.Nominators.Set(ctx, stash, types.Nominations{
		Targets:     deduped,
		SubmittedIn: currentEra,
	})
}

// Chill withdraws the stash from validating and nominating. Bonded funds
// stay untouched.
func (k Keeper) Chill(ctx context.Context, controller string) error {
	stash, _, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	return k.chillStash(ctx, stash)
}

// chillStash drops both intentions of a stash directly. Offenders removed
// from candidacy by the slash engine go through chillOffender instead, which
// also suppresses the nominations targeting them.
func (k Keeper) chillStash(ctx context.Context, stash string) error {
	if err := k.Validators.Remove(ctx, stash); err != nil {
		return err
	}

	return k.Nominators.Remove(ctx, stash)
}
