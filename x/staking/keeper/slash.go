package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// OnOffence processes a misbehavior report against a set of validators for
// a given era. Offences against eras that fell out of the retained history
// are discarded. Within one slashing span only the maximum reported
// fraction has effect: a report below the span maximum is recorded and
// otherwise ignored, a report above it applies only the increment, so the
// cumulative damage of a span equals its maximum fraction.
//
// CONTRACT: fraction is in [0, 1].
func (k Keeper) OnOffence(ctx context.Context, offenders []string, fraction math.LegacyDec, era uint64) error {
	if fraction.IsNil() || fraction.IsNegative() || fraction.GT(math.LegacyOneDec()) {
		panic(fmt.Errorf("attempted to slash with an out-of-range fraction: %s", fraction))
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return err
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	if era+params.HistoryDepth < active.Index {
		k.Logger(ctx).Info("offence report for a pruned era discarded",
			"event", types.EventTypeOldSlashingReportDiscarded,
			"era", era,
		)

		return k.Hooks().AfterOldSlashingReportDiscarded(ctx, era)
	}

	for _, offender := range offenders {
		if err := k.slashValidator(ctx, params, active, offender, fraction, era); err != nil {
			return err
		}
	}

	return nil
}

// slashValidator handles one offender: span bookkeeping, chilling, and
// either immediate application or staging of the penalty.
func (k Keeper) slashValidator(ctx context.Context, params types.Params, active types.ActiveEraInfo, offender string, fraction math.LegacyDec, era uint64) error {
	logger := k.Logger(ctx)

	exposure, err := k.ErasStakers.Get(ctx, collections.Join(era, offender))
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			// not in the validator set of the offence era; nothing at stake
			logger.Error("ignored offence report against validator without exposure",
				"validator", offender,
				"era", era,
			)

			return nil
		}

		return err
	}

	span, err := k.SlashingSpans.Get(ctx, offender)
	switch {
	case errors.Is(err, collections.ErrNotFound):
		span = types.NewSlashingSpan(era)
	case err != nil:
		return err
	default:
		if era > span.LastOffenceEra+params.SpanResetEras {
			span = span.Reset(era)
		}
	}

	if era > span.LastOffenceEra {
		span.LastOffenceEra = era
	}

	// non-additive within the span: only the excess over the running
	// maximum is applied
	increment := fraction.Sub(span.MaxSlashFraction)
	if !increment.IsPositive() {
		if err := k.SlashingSpans.Set(ctx, offender, span); err != nil {
			return err
		}

		logger.Info("offence below span maximum recorded without effect",
			"validator", offender,
			"era", era,
			"fraction", fraction,
			"span_max", span.MaxSlashFraction,
		)

		return nil
	}

	span.MaxSlashFraction = fraction
	if err := k.SlashingSpans.Set(ctx, offender, span); err != nil {
		return err
	}

	// an offender stops validating and its nominators are suppressed until
	// they renominate
	if err := k.chillOffender(ctx, offender); err != nil {
		return err
	}

	own := increment.MulInt(exposure.Own).TruncateInt()
	others := make([]types.IndividualExposure, 0, len(exposure.Others))
	for _, other := range exposure.Others {
		amount := increment.MulInt(other.Value).TruncateInt()
		if amount.IsPositive() {
			others = append(others, types.IndividualExposure{Who: other.Who, Value: amount})
		}
	}

	if params.SlashDeferDuration == 0 {
		return k.applySlashAmounts(ctx, offender, own, others)
	}

	id, err := k.NextSlashID.Next(ctx)
	if err != nil {
		return err
	}

	unapplied := types.UnappliedSlash{
		ID:        id,
		Validator: offender,
		Era:       era,
		ApplyEra:  era + params.SlashDeferDuration,
		Fraction:  increment,
		Own:       own,
		Others:    others,
	}

	if err := k.UnappliedSlashes.Set(ctx, collections.Join(unapplied.ApplyEra, id), unapplied); err != nil {
		return err
	}

	logger.Info("slash deferred",
		"event", types.EventTypeSlashDeferred,
		"validator", offender,
		"era", era,
		"apply_era", unapplied.ApplyEra,
		"slash_id", id,
		"fraction", fraction,
	)

	return nil
}

// CancelDeferredSlash removes a pending slash before its application era.
// Only the governance authority may cancel; once the application era has
// been reached cancellation is impossible.
func (k Keeper) CancelDeferredSlash(ctx context.Context, authority string, applyEra, id uint64) error {
	if authority != k.authority {
		return errorsmod.Wrapf(types.ErrUnauthorized, "got %s", authority)
	}

	active, err := k.ActiveEra.Get(ctx)
	if err != nil {
		return err
	}

	if applyEra <= active.Index {
		return errorsmod.Wrapf(types.ErrAlreadyApplied, "apply era %d, active era %d", applyEra, active.Index)
	}

	key := collections.Join(applyEra, id)
	unapplied, err := k.UnappliedSlashes.Get(ctx, key)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return errorsmod.Wrapf(types.ErrUnappliedSlashMissing, "era %d id %d", applyEra, id)
		}

		return err
	}

	if err := k.UnappliedSlashes.Remove(ctx, key); err != nil {
		return err
	}

	k.Logger(ctx).Info("deferred slash cancelled",
		"event", types.EventTypeSlashCancelled,
		"validator", unapplied.Validator,
		"slash_id", id,
		"apply_era", applyEra,
	)

	return nil
}

// applyScheduledSlashes lands every pending slash whose application era has
// arrived. Called during era activation.
func (k Keeper) applyScheduledSlashes(ctx context.Context, era uint64) error {
	due := []collections.Pair[uint64, uint64]{}
	rng := new(collections.Range[collections.Pair[uint64, uint64]]).
		EndInclusive(collections.Join(era, ^uint64(0)))
	err := k.UnappliedSlashes.Walk(ctx, rng, func(key collections.Pair[uint64, uint64], _ types.UnappliedSlash) (bool, error) {
		due = append(due, key)
		return false, nil
	})
	if err != nil {
		return err
	}

	for _, key := range due {
		unapplied, err := k.UnappliedSlashes.Get(ctx, key)
		if err != nil {
			return err
		}

		if err := k.UnappliedSlashes.Remove(ctx, key); err != nil {
			return err
		}

		if err := k.applySlashAmounts(ctx, unapplied.Validator, unapplied.Own, unapplied.Others); err != nil {
			return err
		}
	}

	return nil
}

// applySlashAmounts debits the offender and every exposed contributor,
// clipping each debit to what the ledger still holds.
func (k Keeper) applySlashAmounts(ctx context.Context, validator string, own math.Int, others []types.IndividualExposure) error {
	slashed, err := k.slashLedger(ctx, validator, own)
	if err != nil {
		return err
	}

	total := slashed
	for _, other := range others {
		slashed, err := k.slashLedger(ctx, other.Who, other.Value)
		if err != nil {
			return err
		}

		total = total.Add(slashed)
	}

	k.Logger(ctx).Info("slash applied",
		"event", types.EventTypeSlashed,
		"validator", validator,
		"amount", total,
	)

	return k.Hooks().AfterSlashed(ctx, validator, total)
}

// slashLedger removes up to amount from a ledger, active stake first and
// then unlock chunks oldest first, and burns the removed funds. The debit
// is clipped to the ledger's holdings: a slash computed against stale
// exposure can never drive a ledger negative. Returns the amount actually
// slashed.
func (k Keeper) slashLedger(ctx context.Context, stash string, amount math.Int) (math.Int, error) {
	if !amount.IsPositive() {
		return math.ZeroInt(), nil
	}

	ledger, err := k.Ledgers.Get(ctx, stash)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			// ledger was emptied since the exposure was taken; forfeit
			return math.ZeroInt(), nil
		}

		return math.Int{}, err
	}

	remaining := amount

	fromActive := math.MinInt(remaining, ledger.Active)
	ledger.Active = ledger.Active.Sub(fromActive)
	remaining = remaining.Sub(fromActive)

	if remaining.IsPositive() {
		chunks := ledger.Unlocking[:0]
		for _, chunk := range ledger.Unlocking {
			if remaining.IsPositive() {
				taken := math.MinInt(remaining, chunk.Value)
				chunk.Value = chunk.Value.Sub(taken)
				remaining = remaining.Sub(taken)
			}

			if chunk.Value.IsPositive() {
				chunks = append(chunks, chunk)
			}
		}
		ledger.Unlocking = chunks
	}

	actual := amount.Sub(remaining)
	if actual.IsZero() {
		return math.ZeroInt(), nil
	}

	ledger.Total = ledger.Total.Sub(actual)

	if err := k.bankKeeper.BurnLocked(ctx, stash, actual); err != nil {
		return math.Int{}, err
	}

	if ledger.IsEmpty() {
		if err := k.killStash(ctx, ledger); err != nil {
			return math.Int{}, err
		}
	} else if err := k.setLedger(ctx, ledger); err != nil {
		return math.Int{}, err
	}

	return actual, nil
}

// chillOffender removes the offender's validator intention and suppresses
// the nominations that still target it.
func (k Keeper) chillOffender(ctx context.Context, offender string) error {
	found, err := k.Validators.Has(ctx, offender)
	if err != nil {
		return err
	}

	if found {
		if err := k.Validators.Remove(ctx, offender); err != nil {
			return err
		}

		k.Logger(ctx).Info("offending validator chilled",
			"event", types.EventTypeValidatorChilled,
			"validator", offender,
		)

		if err := k.Hooks().AfterValidatorChilled(ctx, offender); err != nil {
			return err
		}
	}

	type update struct {
		stash       string
		nominations types.Nominations
	}

	updates := []update{}
	err = k.Nominators.Walk(ctx, nil, func(stash string, nominations types.Nominations) (bool, error) {
		if nominations.Suppressed {
			return false, nil
		}

		for _, target := range nominations.Targets {
			if target == offender {
				nominations.Suppressed = true
				updates = append(updates, update{stash: stash, nominations: nominations})
				break
			}
		}

		return false, nil
	})
	if err != nil {
		return err
	}

	for _, u := range updates {
		if err := k.Nominators.Set(ctx, u.stash, u.nominations); err != nil {
			return err
		}
	}

	return nil
}
