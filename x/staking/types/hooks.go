package types

import (
	"context"

	"cosmossdk.io/math"
)

// StakingHooks is the set of outbound notifications emitted by the module.
// External collaborators (session handling, indexers) register through it.
type StakingHooks interface {
	AfterBonded(ctx context.Context, stash string, amount math.Int) error
	AfterUnbonded(ctx context.Context, stash string, amount math.Int) error
	AfterWithdrawn(ctx context.Context, stash string, amount math.Int) error
	AfterEraPaid(ctx context.Context, era uint64, validator string, payout math.Int) error
	AfterSlashed(ctx context.Context, validator string, amount math.Int) error
	AfterValidatorChilled(ctx context.Context, validator string) error
	AfterOldSlashingReportDiscarded(ctx context.Context, era uint64) error
}

// combine multiple staking hooks, all hook functions are run in array sequence
var _ StakingHooks = &MultiStakingHooks{}

type MultiStakingHooks []StakingHooks

func NewMultiStakingHooks(hooks ...StakingHooks) MultiStakingHooks {
	return hooks
}

func (h MultiStakingHooks) AfterBonded(ctx context.Context, stash string, amount math.Int) error {
	for i := range h {
		if err := h[i].AfterBonded(ctx, stash, amount); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterUnbonded(ctx context.Context, stash string, amount math.Int) error {
	for i := range h {
		if err := h[i].AfterUnbonded(ctx, stash, amount); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterWithdrawn(ctx context.Context, stash string, amount math.Int) error {
	for i := range h {
		if err := h[i].AfterWithdrawn(ctx, stash, amount); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterEraPaid(ctx context.Context, era uint64, validator string, payout math.Int) error {
	for i := range h {
		if err := h[i].AfterEraPaid(ctx, era, validator, payout); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterSlashed(ctx context.Context, validator string, amount math.Int) error {
	for i := range h {
		if err := h[i].AfterSlashed(ctx, validator, amount); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterValidatorChilled(ctx context.Context, validator string) error {
	for i := range h {
		if err := h[i].AfterValidatorChilled(ctx, validator); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiStakingHooks) AfterOldSlashingReportDiscarded(ctx context.Context, era uint64) error {
	for i := range h {
		if err := h[i].AfterOldSlashingReportDiscarded(ctx, era); err != nil {
			return err
		}
	}
	return nil
}
