package types

import (
	"cosmossdk.io/math"
)

// Candidate is a validator intention offered to the election provider.
type Candidate struct {
	// Address is the validator's stash identity.
	Address string
	// SelfStake is the candidate's own active bond.
	SelfStake math.Int
	// Prefs is the declared operating preference.
	Prefs ValidatorPrefs
}

// Voter is one nominator's stake and target set as of the snapshot.
type Voter struct {
	// Who is the nominator's stash identity.
	Who string
	// Stake is the nominator's active bond.
	Stake math.Int
	// Targets lists the candidates the stake may back, already filtered to
	// valid candidates.
	Targets []string
}

// Support is the stake contributions assigned to one winner. Voters include
// the winner's self vote; their values sum to Total, which becomes the
// winner's exposure total.
type Support struct {
	Total  math.Int
	Voters []IndividualExposure
}

// ElectionResult is the outcome of one election: the winning validator set
// and the support weights backing each winner.
type ElectionResult struct {
	Winners  []string
	Supports map[string]Support
}

// ElectionProvider selects the validator set for the next era.
//
// Implementations must be deterministic for identical inputs and return at
// most maxWinners winners. A returned error is non-fatal to the caller: era
// rotation falls back to the previous validator set.
type ElectionProvider interface {
	Elect(candidates []Candidate, voters []Voter, maxWinners uint32) (ElectionResult, error)
}

// RewardCurve maps the ratio of bonded stake to total issuance onto an
// annualized inflation rate. Implementations must stay within
// [0, max_inflation] and be monotone up to the ideal stake ratio.
type RewardCurve interface {
	AnnualRate(stakeRatio math.LegacyDec) math.LegacyDec
}
