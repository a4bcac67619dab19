package types

import (
	"fmt"
	"sort"

	"cosmossdk.io/math"
)

// IndividualExposure is one contributor's share of the stake behind a
// validator.
type IndividualExposure struct {
	Who   string   `json:"who"`
	Value math.Int `json:"value"`
}

// Exposure is the stake backing one validator in one era. It is written once
// at era rotation and never mutated afterwards.
//
// Invariant: Total == Own + sum(Others[i].Value).
type Exposure struct {
	// Own is the validator's self stake.
	Own math.Int `json:"own"`
	// Total is the full backing stake, own plus others.
	Total math.Int `json:"total"`
	// Others lists nominator contributions, highest stake first.
	Others []IndividualExposure `json:"others,omitempty"`
}

// NewExposure builds an exposure from the validator's own stake and its
// nominator contributions, ordering others by descending value with
// ascending identity as the tie break.
func NewExposure(own math.Int, others []IndividualExposure) Exposure {
	total := own
	for _, o := range others {
		total = total.Add(o.Value)
	}

	sortExposures(others)
	return Exposure{Own: own, Total: total, Others: others}
}

// Clipped returns a copy of the exposure whose others list is truncated to
// the top maxRewarded contributors. Own and Total are carried over
// unchanged: clipping limits reward eligibility only, never slash liability.
func (e Exposure) Clipped(maxRewarded uint32) Exposure {
	others := make([]IndividualExposure, len(e.Others))
	copy(others, e.Others)
	sortExposures(others)

	if uint32(len(others)) > maxRewarded {
		others = others[:maxRewarded]
	}

	return Exposure{Own: e.Own, Total: e.Total, Others: others}
}

// Validate checks the exposure sum invariant.
func (e Exposure) Validate() error {
	sum := e.Own
	for _, o := range e.Others {
		if o.Value.IsNegative() {
			return fmt.Errorf("negative exposure for %s: %s", o.Who, o.Value)
		}

		sum = sum.Add(o.Value)
	}

	if !sum.Equal(e.Total) {
		return fmt.Errorf("exposure violates sum invariant: own %s + others != total %s", e.Own, e.Total)
	}

	return nil
}

func sortExposures(others []IndividualExposure) {
	sort.SliceStable(others, func(i, j int) bool {
		switch {
		case others[i].Value.GT(others[j].Value):
			return true
		case others[i].Value.LT(others[j].Value):
			return false
		default:
			return others[i].Who < others[j].Who
		}
	})
}
