package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// RewardDestination controls where a stash's share of an era payout lands.
type RewardDestination uint8

const (
	// RewardDestinationStaked pays into the ledger, increasing the bond.
	RewardDestinationStaked RewardDestination = iota
	// RewardDestinationStash pays to the stash account without bonding.
	RewardDestinationStash
	// RewardDestinationController pays to the controller account.
	RewardDestinationController
)

// Validate checks that the destination is a known variant.
func (d RewardDestination) Validate() error {
	switch d {
	case RewardDestinationStaked, RewardDestinationStash, RewardDestinationController:
		return nil
	}

	return fmt.Errorf("unknown reward destination: %d", d)
}

// UnlockChunk is a slice of the bond scheduled to unlock at a given era.
type UnlockChunk struct {
	Value math.Int `json:"value"`
	// Era is the first era in which the chunk can be withdrawn.
	Era uint64 `json:"era"`
}

// StakingLedger records the bonded funds of a single stash.
//
// Invariant: Active + sum(Unlocking[i].Value) == Total and Active >= 0.
// A ledger whose Total reaches zero with no pending chunks is removed.
type StakingLedger struct {
	Stash      string            `json:"stash"`
	Controller string            `json:"controller"`
	Total      math.Int          `json:"total"`
	Active     math.Int          `json:"active"`
	Unlocking  []UnlockChunk     `json:"unlocking,omitempty"`
	Payee      RewardDestination `json:"payee"`
}

// NewStakingLedger creates a ledger with the full value active.
func NewStakingLedger(stash, controller string, value math.Int, payee RewardDestination) StakingLedger {
	return StakingLedger{
		Stash:      stash,
		Controller: controller,
		Total:      value,
		Active:     value,
		Payee:      payee,
	}
}

// UnlockingValue returns the sum of all pending unlock chunks.
func (l StakingLedger) UnlockingValue() math.Int {
	sum := math.ZeroInt()
	for _, chunk := range l.Unlocking {
		sum = sum.Add(chunk.Value)
	}

	return sum
}

// IsEmpty reports whether the ledger holds nothing and should be removed.
func (l StakingLedger) IsEmpty() bool {
	return l.Total.IsZero() && len(l.Unlocking) == 0
}

// Validate checks the ledger conservation invariant.
func (l StakingLedger) Validate() error {
	if l.Active.IsNegative() {
		return fmt.Errorf("ledger of %s has negative active stake: %s", l.Stash, l.Active)
	}

	if expected := l.Active.Add(l.UnlockingValue()); !expected.Equal(l.Total) {
		return fmt.Errorf("ledger of %s violates conservation: active %s + unlocking %s != total %s",
			l.Stash, l.Active, l.UnlockingValue(), l.Total)
	}

	return nil
}

// ValidatorPrefs is the self-declared operating preference of a validator.
type ValidatorPrefs struct {
	// Commission is the fraction of the reward kept before the pro-rata
	// nominator distribution; in [0, 1].
	Commission math.LegacyDec `json:"commission"`
	// Blocked prevents new nominations from selecting this validator.
	Blocked bool `json:"blocked,omitempty"`
}

// NewValidatorPrefs creates validator preferences with the given commission.
func NewValidatorPrefs(commission math.LegacyDec, blocked bool) ValidatorPrefs {
	return ValidatorPrefs{Commission: commission, Blocked: blocked}
}

// Validate checks the commission bounds against the configured minimum.
func (p ValidatorPrefs) Validate(minCommission math.LegacyDec) error {
	if p.Commission.IsNil() || p.Commission.IsNegative() || p.Commission.GT(math.LegacyOneDec()) {
		return fmt.Errorf("commission must be between 0 and 1: %s", p.Commission)
	}

	if p.Commission.LT(minCommission) {
		return fmt.Errorf("commission %s below minimum %s", p.Commission, minCommission)
	}

	return nil
}

// Nominations is the target set declared by a nominator.
type Nominations struct {
	Targets []string `json:"targets"`
	// SubmittedIn is the era the targets were declared in.
	SubmittedIn uint64 `json:"submitted_in"`
	// Suppressed is set when a target was slashed out of the validator set;
	// suppressed nominations are skipped at snapshot time until renewed.
	Suppressed bool `json:"suppressed,omitempty"`
}

// ActiveEraInfo describes the era that is currently running.
type ActiveEraInfo struct {
	Index uint64    `json:"index"`
	Start time.Time `json:"start"`
}

// EraRewardPoints tracks activity credit accrued by validators over one era.
type EraRewardPoints struct {
	Total      uint64            `json:"total"`
	Individual map[string]uint64 `json:"individual,omitempty"`
}

// NewEraRewardPoints returns an empty points record.
func NewEraRewardPoints() EraRewardPoints {
	return EraRewardPoints{Individual: make(map[string]uint64)}
}
