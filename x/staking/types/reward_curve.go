package types

import (
	"cosmossdk.io/math"
)

var _ RewardCurve = LinearFalloffCurve{}

// LinearFalloffCurve is the default reward curve: the annual rate climbs
// linearly from the minimum to the maximum inflation as the stake ratio
// approaches the ideal, then falls back linearly to the minimum over one
// falloff width past it.
type LinearFalloffCurve struct {
	Min     math.LegacyDec
	Max     math.LegacyDec
	Ideal   math.LegacyDec
	Falloff math.LegacyDec
}

// NewLinearFalloffCurve builds the default curve from module parameters.
func NewLinearFalloffCurve(p Params) LinearFalloffCurve {
	return LinearFalloffCurve{
		Min:     p.MinInflation,
		Max:     p.MaxInflation,
		Ideal:   p.IdealStakeRatio,
		Falloff: p.Falloff,
	}
}

// AnnualRate implements RewardCurve.
func (c LinearFalloffCurve) AnnualRate(stakeRatio math.LegacyDec) math.LegacyDec {
	if stakeRatio.IsNil() || stakeRatio.IsNegative() {
		return c.Min
	}

	spread := c.Max.Sub(c.Min)
	if stakeRatio.LTE(c.Ideal) {
		return c.Min.Add(spread.MulTruncate(stakeRatio).QuoTruncate(c.Ideal))
	}

	overshoot := stakeRatio.Sub(c.Ideal)
	if overshoot.GTE(c.Falloff) {
		return c.Min
	}

	decay := math.LegacyOneDec().Sub(overshoot.QuoTruncate(c.Falloff))
	return c.Min.Add(spread.MulTruncate(decay))
}
