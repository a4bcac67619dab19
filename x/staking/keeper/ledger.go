package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// Bond locks value from the stash account and opens its staking ledger with
// the whole amount active. The controller is registered as the management
// identity and payee as the reward destination.
func (k Keeper) Bond(ctx context.Context, stash, controller string, value math.Int, payee types.RewardDestination) error {
	if err := payee.Validate(); err != nil {
		return err
	}

	if found, err := k.Ledgers.Has(ctx, stash); err != nil {
		return err
	} else if found {
		return errorsmod.Wrapf(types.ErrAlreadyBonded, "stash %s", stash)
	}

	if found, err := k.Controllers.Has(ctx, controller); err != nil {
		return err
	} else if found {
		return errorsmod.Wrapf(types.ErrAlreadyPaired, "controller %s", controller)
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	if value.LT(params.MinBond) {
		return errorsmod.Wrapf(types.ErrInsufficientBond, "got %s, minimum %s", value, params.MinBond)
	}

	if err := k.bankKeeper.LockStake(ctx, stash, value); err != nil {
		return err
	}

	ledger := types.NewStakingLedger(stash, controller, value, payee)
	if err := k.setLedger(ctx, ledger); err != nil {
		return err
	}

	if err := k.Controllers.Set(ctx, controller, stash); err != nil {
		return err
	}

	k.Logger(ctx).Info("funds bonded",
		"event", types.EventTypeBonded,
		"stash", stash,
		"controller", controller,
		"amount", value,
	)

	return k.Hooks().AfterBonded(ctx, stash, value)
}

// BondExtra locks additional value from an already-bonded stash, increasing
// both active and total.
func (k Keeper) BondExtra(ctx context.Context, stash string, value math.Int) error {
	ledger, err := k.Ledgers.Get(ctx, stash)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return errorsmod.Wrapf(types.ErrNotBonded, "stash %s", stash)
		}

		return err
	}

	if !value.IsPositive() {
		return nil
	}

	if err := k.bankKeeper.LockStake(ctx, stash, value); err != nil {
		return err
	}

	ledger.Active = ledger.Active.Add(value)
	ledger.Total = ledger.Total.Add(value)
	if err := k.setLedger(ctx, ledger); err != nil {
		return err
	}

	k.Logger(ctx).Info("funds bonded",
		"event", types.EventTypeBonded,
		"stash", stash,
		"amount", value,
	)

	return k.Hooks().AfterBonded(ctx, stash, value)
}

// Unbond moves up to value from active stake into a new unlock chunk that
// matures BondingDuration eras from the running era. The requested value is
// clamped to the available active stake; a chunk already scheduled for the
// same era is merged rather than appended.
func (k Keeper) Unbond(ctx context.Context, controller string, value math.Int) error {
	stash, ledger, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	if value.GT(ledger.Active) {
		value = ledger.Active
	}

	if !value.IsPositive() {
		return nil
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}
	unlockEra := active.Index + params.BondingDuration

	merged := false
	for i := range ledger.Unlocking {
		if ledger.Unlocking[i].Era == unlockEra {
			ledger.Unlocking[i].Value = ledger.Unlocking[i].Value.Add(value)
			merged = true
			break
		}
	}

	if !merged {
		if uint32(len(ledger.Unlocking)) >= params.MaxUnlockingChunks {
			return errorsmod.Wrapf(types.ErrNoMoreChunks, "stash %s", stash)
		}

		ledger.Unlocking = append(ledger.Unlocking, types.UnlockChunk{Value: value, Era: unlockEra})
	}

	ledger.Active = ledger.Active.Sub(value)
	if err := k.setLedger(ctx, ledger); err != nil {
		return err
	}

	k.Logger(ctx).Info("funds unbonded",
		"event", types.EventTypeUnbonded,
		"stash", stash,
		"amount", value,
		"unlock_era", unlockEra,
	)

	return k.Hooks().AfterUnbonded(ctx, stash, value)
}

// WithdrawUnbonded releases every unlock chunk whose era has been reached,
// shrinking total accordingly. An emptied ledger is removed together with
// its controller pairing, nominations and validator intention.
func (k Keeper) WithdrawUnbonded(ctx context.Context, controller string) error {
	stash, ledger, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	withdrawn := math.ZeroInt()
	remaining := ledger.Unlocking[:0]
	for _, chunk := range ledger.Unlocking {
		if chunk.Era <= active.Index {
			withdrawn = withdrawn.Add(chunk.Value)
		} else {
			remaining = append(remaining, chunk)
		}
	}

	if withdrawn.IsZero() {
		return nil
	}

	ledger.Unlocking = remaining
	ledger.Total = ledger.Total.Sub(withdrawn)

	if err := k.bankKeeper.UnlockStake(ctx, stash, withdrawn); err != nil {
		return err
	}

	if ledger.IsEmpty() {
		if err := k.killStash(ctx, ledger); err != nil {
			return err
		}
	} else if err := k.setLedger(ctx, ledger); err != nil {
		return err
	}

	k.Logger(ctx).Info("unbonded funds withdrawn",
		"event", types.EventTypeWithdrawn,
		"stash", stash,
		"amount", withdrawn,
	)

	return k.Hooks().AfterWithdrawn(ctx, stash, withdrawn)
}

// SetPayee updates the reward destination of the controller's ledger.
func (k Keeper) SetPayee(ctx context.Context, controller string, payee types.RewardDestination) error {
	if err := payee.Validate(); err != nil {
		return err
	}

	_, ledger, err := k.ledgerByController(ctx, controller)
	if err != nil {
		return err
	}

	ledger.Payee = payee
	return k.setLedger(ctx, ledger)
}

// ledgerByController resolves the stash and ledger managed by a controller.
func (k Keeper) ledgerByController(ctx context.Context, controller string) (string, types.StakingLedger, error) {
	stash, err := k.Controllers.Get(ctx, controller)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return "", types.StakingLedger{}, errorsmod.Wrapf(types.ErrNotController, "account %s", controller)
		}

		return "", types.StakingLedger{}, err
	}

	ledger, err := k.Ledgers.Get(ctx, stash)
	if err != nil {
		return "", types.StakingLedger{}, err
	}

	return stash, ledger, nil
}

// setLedger writes a ledger after checking the conservation invariant.
func (k Keeper) setLedger(ctx context.Context, ledger types.StakingLedger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}

	return k.Ledgers.Set(ctx, ledger.Stash, ledger)
}

// killStash removes every trace of an emptied stash.
func (k Keeper) killStash(ctx context.Context, ledger types.StakingLedger) error {
	if err := k.Ledgers.Remove(ctx, ledger.Stash); err != nil {
		return err
	}

	if err := k.Controllers.Remove(ctx, ledger.Controller); err != nil {
		return err
	}

	if err := k.Validators.Remove(ctx, ledger.Stash); err != nil {
		return err
	}

	return k.Nominators.Remove(ctx, ledger.Stash)
}
