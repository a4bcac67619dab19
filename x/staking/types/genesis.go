package types

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// GenesisValidator is one founding validator: a stash bonded at genesis with
// a declared validator intention.
type GenesisValidator struct {
	Stash      string         `json:"stash"`
	Controller string         `json:"controller"`
	Bond       math.Int       `json:"bond"`
	Prefs      ValidatorPrefs `json:"prefs"`
}

// GenesisState is the initial state of the staking module.
type GenesisState struct {
	Params     Params             `json:"params"`
	StartTime  time.Time          `json:"start_time"`
	Validators []GenesisValidator `json:"validators"`
}

// NewGenesisState creates a genesis state from parameters and founding
// validators.
func NewGenesisState(params Params, startTime time.Time, validators []GenesisValidator) GenesisState {
	return GenesisState{Params: params, StartTime: startTime, Validators: validators}
}

// DefaultGenesisState returns an empty genesis with default parameters.
func DefaultGenesisState() GenesisState {
	return GenesisState{Params: DefaultParams()}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return errorsmod.Wrap(ErrInvalidGenesis, err.Error())
	}

	seenStash := make(map[string]bool, len(gs.Validators))
	seenController := make(map[string]bool, len(gs.Validators))
	for _, v := range gs.Validators {
		if v.Stash == "" || v.Controller == "" {
			return errorsmod.Wrap(ErrInvalidGenesis, "validator with empty identity")
		}

		if seenStash[v.Stash] || seenController[v.Controller] {
			return errorsmod.Wrapf(ErrInvalidGenesis, "duplicate genesis identity for stash %s", v.Stash)
		}
		seenStash[v.Stash] = true
		seenController[v.Controller] = true

		if v.Bond.IsNil() || v.Bond.LT(gs.Params.MinBond) {
			return errorsmod.Wrapf(ErrInvalidGenesis, "genesis bond of %s below minimum", v.Stash)
		}

		if err := v.Prefs.Validate(gs.Params.MinCommissionRate); err != nil {
			return errorsmod.Wrap(ErrInvalidGenesis, err.Error())
		}
	}

	if uint32(len(gs.Validators)) > gs.Params.MaxValidators {
		return errorsmod.Wrap(ErrInvalidGenesis, "more genesis validators than max validators")
	}

	return nil
}
