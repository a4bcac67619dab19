package types

const (
	// ModuleName is the name of the staking module
	ModuleName = "staking"

	// StoreKey is the string store representation
	StoreKey = ModuleName
)

var (
	// Keys for store prefixes
	ParamsKey = []byte{0x01} // key for the module parameters

	LedgersPrefix     = []byte{0x11} // prefix for each key to a staking ledger, by stash
	ControllersPrefix = []byte{0x12} // prefix for the controller -> stash index

	ValidatorsPrefix = []byte{0x21} // prefix for each key to a validator intention, by stash
	NominatorsPrefix = []byte{0x22} // prefix for each key to a nomination record, by stash

	CurrentEraKey               = []byte{0x31} // key for the era currently being planned
	ActiveEraKey                = []byte{0x32} // key for the era currently running
	ErasStartSessionIndexPrefix = []byte{0x33} // prefix for the first session index of each era
	LastPlannedSessionKey       = []byte{0x34} // key for the last session-end already processed
	RotationStatusKey           = []byte{0x35} // key for the outcome of the last rotation attempt

	ErasStakersPrefix         = []byte{0x41} // prefix for the full exposure, by (era, validator)
	ErasStakersClippedPrefix  = []byte{0x42} // prefix for the reward-clipped exposure, by (era, validator)
	ErasValidatorPrefsPrefix  = []byte{0x43} // prefix for the commission snapshot, by (era, validator)
	ErasValidatorsPrefix      = []byte{0x44} // prefix for the elected validator set, by era
	ErasTotalStakePrefix      = []byte{0x45} // prefix for the total backing stake, by era
	ErasRewardPointsPrefix    = []byte{0x46} // prefix for the activity points, by era
	ErasValidatorRewardPrefix = []byte{0x47} // prefix for the closed-era payout pool, by era
	ClaimedRewardsPrefix      = []byte{0x48} // prefix for the claimed-payout set, by (era, validator)

	SlashingSpansPrefix    = []byte{0x51} // prefix for each key to a slashing span, by validator
	UnappliedSlashesPrefix = []byte{0x52} // prefix for pending slashes, by (apply era, id)
	NextUnappliedSlashID   = []byte{0x53} // key for the unapplied slash id sequence
)
