package types

import (
	"cosmossdk.io/math"
	"gopkg.in/yaml.v3"

	"github.com/pkg/errors"
)

// Default parameter values
const (
	DefaultSessionsPerEra                   = uint64(6)
	DefaultBondingDuration                  = uint64(28) // eras
	DefaultSlashDeferDuration               = uint64(27) // eras
	DefaultHistoryDepth                     = uint64(84) // eras
	DefaultSpanResetEras                    = uint64(2)
	DefaultErasPerYear                      = uint64(365)
	DefaultMaxUnlockingChunks               = uint32(32)
	DefaultMaxNominations                   = uint32(16)
	DefaultMaxNominatorRewardedPerValidator = uint32(256)
	DefaultMaxValidators                    = uint32(100)
	DefaultMinValidatorCount                = uint32(1)
)

var (
	DefaultMinBond           = math.NewInt(1)
	DefaultMinCommissionRate = math.LegacyZeroDec()
	DefaultMinInflation      = math.LegacyNewDecWithPrec(25, 3) // 2.5%
	DefaultMaxInflation      = math.LegacyNewDecWithPrec(1, 1)  // 10%
	DefaultIdealStakeRatio   = math.LegacyNewDecWithPrec(5, 1)  // 50%
	DefaultFalloff           = math.LegacyNewDecWithPrec(5, 2)  // 5%
)

// Params defines the parameters for the staking module.
type Params struct {
	// SessionsPerEra is the number of session-end signals spanned by one era.
	SessionsPerEra uint64 `json:"sessions_per_era" yaml:"sessions_per_era"`
	// BondingDuration is the number of eras an unlock chunk waits before it
	// can be withdrawn.
	BondingDuration uint64 `json:"bonding_duration" yaml:"bonding_duration"`
	// SlashDeferDuration is the number of eras a slash stays cancellable
	// before application. Zero applies slashes immediately.
	SlashDeferDuration uint64 `json:"slash_defer_duration" yaml:"slash_defer_duration"`
	// HistoryDepth is the number of closed eras kept in the store.
	HistoryDepth uint64 `json:"history_depth" yaml:"history_depth"`
	// SpanResetEras is the number of offence-free eras after which a
	// validator starts a fresh slashing span.
	SpanResetEras uint64 `json:"span_reset_eras" yaml:"span_reset_eras"`
	// ErasPerYear converts the annual inflation rate into a per-era pool.
	ErasPerYear uint64 `json:"eras_per_year" yaml:"eras_per_year"`

	MaxUnlockingChunks               uint32 `json:"max_unlocking_chunks" yaml:"max_unlocking_chunks"`
	MaxNominations                   uint32 `json:"max_nominations" yaml:"max_nominations"`
	MaxNominatorRewardedPerValidator uint32 `json:"max_nominator_rewarded_per_validator" yaml:"max_nominator_rewarded_per_validator"`
	MaxValidators                    uint32 `json:"max_validators" yaml:"max_validators"`
	MinValidatorCount                uint32 `json:"min_validator_count" yaml:"min_validator_count"`

	MinBond           math.Int       `json:"min_bond" yaml:"min_bond"`
	MinCommissionRate math.LegacyDec `json:"min_commission_rate" yaml:"min_commission_rate"`

	// Reward curve bounds; consumed by the default curve implementation.
	MinInflation    math.LegacyDec `json:"min_inflation" yaml:"min_inflation"`
	MaxInflation    math.LegacyDec `json:"max_inflation" yaml:"max_inflation"`
	IdealStakeRatio math.LegacyDec `json:"ideal_stake_ratio" yaml:"ideal_stake_ratio"`
	Falloff         math.LegacyDec `json:"falloff" yaml:"falloff"`
}

// DefaultParams returns default staking parameters
func DefaultParams() Params {
	return Params{
		SessionsPerEra:                   DefaultSessionsPerEra,
		BondingDuration:                  DefaultBondingDuration,
		SlashDeferDuration:               DefaultSlashDeferDuration,
		HistoryDepth:                     DefaultHistoryDepth,
		SpanResetEras:                    DefaultSpanResetEras,
		ErasPerYear:                      DefaultErasPerYear,
		MaxUnlockingChunks:               DefaultMaxUnlockingChunks,
		MaxNominations:                   DefaultMaxNominations,
		MaxNominatorRewardedPerValidator: DefaultMaxNominatorRewardedPerValidator,
		MaxValidators:                    DefaultMaxValidators,
		MinValidatorCount:                DefaultMinValidatorCount,
		MinBond:                          DefaultMinBond,
		MinCommissionRate:                DefaultMinCommissionRate,
		MinInflation:                     DefaultMinInflation,
		MaxInflation:                     DefaultMaxInflation,
		IdealStakeRatio:                  DefaultIdealStakeRatio,
		Falloff:                          DefaultFalloff,
	}
}

// String returns a human readable string representation of the parameters.
func (p Params) String() string {
	out, _ := yaml.Marshal(p)
	return string(out)
}

// Validate performs basic validation on staking parameters
func (p Params) Validate() error {
	if p.SessionsPerEra == 0 {
		return errors.New("sessions per era must be positive")
	}

	if p.HistoryDepth == 0 {
		return errors.New("history depth must be positive")
	}

	if p.SlashDeferDuration >= p.HistoryDepth {
		return errors.New("slash defer duration must be shorter than history depth")
	}

	if p.ErasPerYear == 0 {
		return errors.New("eras per year must be positive")
	}

	if p.MaxUnlockingChunks == 0 {
		return errors.New("max unlocking chunks must be positive")
	}

	if p.MaxNominations == 0 {
		return errors.New("max nominations must be positive")
	}

	if p.MaxValidators == 0 || p.MinValidatorCount == 0 || p.MinValidatorCount > p.MaxValidators {
		return errors.New("invalid validator count bounds")
	}

	if p.MinBond.IsNil() || p.MinBond.IsNegative() {
		return errors.New("min bond must be non-negative")
	}

	if err := validateFraction("min commission rate", p.MinCommissionRate); err != nil {
		return err
	}

	if err := validateFraction("min inflation", p.MinInflation); err != nil {
		return err
	}

	if err := validateFraction("max inflation", p.MaxInflation); err != nil {
		return err
	}

	if p.MinInflation.GT(p.MaxInflation) {
		return errors.New("min inflation greater than max inflation")
	}

	if err := validateFraction("ideal stake ratio", p.IdealStakeRatio); err != nil {
		return err
	}

	if p.IdealStakeRatio.IsZero() {
		return errors.New("ideal stake ratio must be positive")
	}

	if p.Falloff.IsNil() || !p.Falloff.IsPositive() {
		return errors.New("falloff must be positive")
	}

	return nil
}

func validateFraction(name string, v math.LegacyDec) error {
	if v.IsNil() {
		return errors.Errorf("%s must be set", name)
	}

	if v.IsNegative() || v.GT(math.LegacyOneDec()) {
		return errors.Errorf("%s must be between 0 and 1: %s", name, v)
	}

	return nil
}
