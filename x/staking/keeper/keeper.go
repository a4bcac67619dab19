package keeper

import (
	"context"

	"cosmossdk.io/collections"
	corestoretypes "cosmossdk.io/core/store"
	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/noria-labs/noria/x/staking/types"
)

// RotationStatus is the persisted outcome of the last rotation attempt.
const (
	RotationStatusIdle uint32 = iota
	RotationStatusPlanning
	RotationStatusCommitted
	RotationStatusFallbackCommitted
)

// Keeper is the staking state container. Every era, ledger and slash record
// is addressable through it; all writes go through its methods.
type Keeper struct {
	storeService corestoretypes.KVStoreService
	logger       log.Logger

	bankKeeper       types.BankKeeper
	electionProvider types.ElectionProvider
	rewardCurve      types.RewardCurve
	hooks            types.StakingHooks

	// authority may cancel deferred slashes; typically the governance module
	// account.
	authority string

	Schema collections.Schema

	Params collections.Item[types.Params]

	Ledgers     collections.Map[string, types.StakingLedger] // stash -> ledger
	Controllers collections.Map[string, string]              // controller -> stash

	Validators collections.Map[string, types.ValidatorPrefs] // stash -> prefs
	Nominators collections.Map[string, types.Nominations]    // stash -> nominations

	CurrentEra            collections.Item[uint64]
	ActiveEra             collections.Item[types.ActiveEraInfo]
	ErasStartSessionIndex collections.Map[uint64, uint64]
	LastPlannedSession    collections.Item[uint64]
	RotationStatus        collections.Item[uint32]

	ErasStakers         collections.Map[collections.Pair[uint64, string], types.Exposure]
	ErasStakersClipped  collections.Map[collections.Pair[uint64, string], types.Exposure]
	ErasValidatorPrefs  collections.Map[collections.Pair[uint64, string], types.ValidatorPrefs]
	ErasValidators      collections.Map[uint64, []string]
	ErasTotalStake      collections.Map[uint64, math.Int]
	ErasRewardPoints    collections.Map[uint64, types.EraRewardPoints]
	ErasValidatorReward collections.Map[uint64, math.Int]
	ClaimedRewards      collections.KeySet[collections.Pair[uint64, string]]

	SlashingSpans    collections.Map[string, types.SlashingSpan]
	UnappliedSlashes collections.Map[collections.Pair[uint64, uint64], types.UnappliedSlash] // (apply era, id)
	NextSlashID      collections.Sequence
}

// NewKeeper creates a new staking Keeper instance
func NewKeeper(
	storeService corestoretypes.KVStoreService,
	bk types.BankKeeper,
	ep types.ElectionProvider,
	rc types.RewardCurve,
	authority string,
	logger log.Logger,
) *Keeper {
	if bk == nil {
		panic("bank keeper must be set")
	}

	if ep == nil {
		panic("election provider must be set")
	}

	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		storeService:     storeService,
		logger:           logger,
		bankKeeper:       bk,
		electionProvider: ep,
		rewardCurve:      rc,
		authority:        authority,

		Params: collections.NewItem(sb, types.ParamsKey, "params", types.JSONValue[types.Params]()),

		Ledgers:     collections.NewMap(sb, types.LedgersPrefix, "ledgers", collections.StringKey, types.JSONValue[types.StakingLedger]()),
		Controllers: collections.NewMap(sb, types.ControllersPrefix, "controllers", collections.StringKey, collections.StringValue),

		Validators: collections.NewMap(sb, types.ValidatorsPrefix, "validators", collections.StringKey, types.JSONValue[types.ValidatorPrefs]()),
		Nominators: collections.NewMap(sb, types.NominatorsPrefix, "nominators", collections.StringKey, types.JSONValue[types.Nominations]()),

		CurrentEra:            collections.NewItem(sb, types.CurrentEraKey, "current_era", collections.Uint64Value),
		ActiveEra:             collections.NewItem(sb, types.ActiveEraKey, "active_era", types.JSONValue[types.ActiveEraInfo]()),
		ErasStartSessionIndex: collections.NewMap(sb, types.ErasStartSessionIndexPrefix, "eras_start_session_index", collections.Uint64Key, collections.Uint64Value),
		LastPlannedSession:    collections.NewItem(sb, types.LastPlannedSessionKey, "last_planned_session", collections.Uint64Value),
		RotationStatus:        collections.NewItem(sb, types.RotationStatusKey, "rotation_status", collections.Uint32Value),

		ErasStakers:         collections.NewMap(sb, types.ErasStakersPrefix, "eras_stakers", collections.PairKeyCodec(collections.Uint64Key, collections.StringKey), types.JSONValue[types.Exposure]()),
		ErasStakersClipped:  collections.NewMap(sb, types.ErasStakersClippedPrefix, "eras_stakers_clipped", collections.PairKeyCodec(collections.Uint64Key, collections.StringKey), types.JSONValue[types.Exposure]()),
		ErasValidatorPrefs:  collections.NewMap(sb, types.ErasValidatorPrefsPrefix, "eras_validator_prefs", collections.PairKeyCodec(collections.Uint64Key, collections.StringKey), types.JSONValue[types.ValidatorPrefs]()),
		ErasValidators:      collections.NewMap(sb, types.ErasValidatorsPrefix, "eras_validators", collections.Uint64Key, types.JSONValue[[]string]()),
		ErasTotalStake:      collections.NewMap(sb, types.ErasTotalStakePrefix, "eras_total_stake", collections.Uint64Key, types.JSONValue[math.Int]()),
		ErasRewardPoints:    collections.NewMap(sb, types.ErasRewardPointsPrefix, "eras_reward_points", collections.Uint64Key, types.JSONValue[types.EraRewardPoints]()),
		ErasValidatorReward: collections.NewMap(sb, types.ErasValidatorRewardPrefix, "eras_validator_reward", collections.Uint64Key, types.JSONValue[math.Int]()),
		ClaimedRewards:      collections.NewKeySet(sb, types.ClaimedRewardsPrefix, "claimed_rewards", collections.PairKeyCodec(collections.Uint64Key, collections.StringKey)),

		SlashingSpans:    collections.NewMap(sb, types.SlashingSpansPrefix, "slashing_spans", collections.StringKey, types.JSONValue[types.SlashingSpan]()),
		UnappliedSlashes: collections.NewMap(sb, types.UnappliedSlashesPrefix, "unapplied_slashes", collections.PairKeyCodec(collections.Uint64Key, collections.Uint64Key), types.JSONValue[types.UnappliedSlash]()),
		NextSlashID:      collections.NewSequence(sb, types.NextUnappliedSlashID, "next_unapplied_slash_id"),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema

	return k
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(_ context.Context) log.Logger {
	return k.logger.With("module", "x/"+types.ModuleName)
}

// Hooks gets the staking hooks
func (k *Keeper) Hooks() types.StakingHooks {
	if k.hooks == nil {
		// return a no-op implementation if no hooks are set
		return types.MultiStakingHooks{}
	}

	return k.hooks
}

// SetHooks sets the staking hooks
func (k *Keeper) SetHooks(sh types.StakingHooks) *Keeper {
	if k.hooks != nil {
		panic("cannot set staking hooks twice")
	}

	k.hooks = sh

	return k
}

// GetAuthority returns the x/staking module's authority.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// RewardCurve returns the configured reward curve, defaulting to the
// parameter-derived linear falloff curve.
func (k Keeper) RewardCurve(ctx context.Context) (types.RewardCurve, error) {
	if k.rewardCurve != nil {
		return k.rewardCurve, nil
	}

	params, err := k.Params.Get(ctx)
	if err != nil {
		return nil, err
	}

	return types.NewLinearFalloffCurve(params), nil
}
