package types

import (
	errorsmod "cosmossdk.io/errors"
)

// x/staking module sentinel errors
var (
	ErrAlreadyBonded         = errorsmod.Register(ModuleName, 2, "stash already bonded")
	ErrAlreadyPaired         = errorsmod.Register(ModuleName, 3, "controller already paired with another stash")
	ErrNotBonded             = errorsmod.Register(ModuleName, 4, "stash has no staking ledger")
	ErrNotController         = errorsmod.Register(ModuleName, 5, "account is not a controller")
	ErrInsufficientBond      = errorsmod.Register(ModuleName, 6, "bond value below the existential minimum")
	ErrNoMoreChunks          = errorsmod.Register(ModuleName, 7, "unlocking queue is full; withdraw unbonded funds first")
	ErrEraOutOfRange         = errorsmod.Register(ModuleName, 8, "era is not finished or no longer retained")
	ErrAlreadyClaimed        = errorsmod.Register(ModuleName, 9, "rewards for this era and validator were already claimed")
	ErrElectionFailed        = errorsmod.Register(ModuleName, 10, "election provider failed to produce a valid set")
	ErrTargetBlocked         = errorsmod.Register(ModuleName, 11, "validator has blocked new nominations")
	ErrNotValidator          = errorsmod.Register(ModuleName, 12, "nomination target is not a validator")
	ErrNoTargets             = errorsmod.Register(ModuleName, 13, "nomination target list is empty")
	ErrTooManyTargets        = errorsmod.Register(ModuleName, 14, "nomination target list exceeds the maximum")
	ErrCommissionInvalid     = errorsmod.Register(ModuleName, 15, "commission out of bounds")
	ErrAlreadyApplied        = errorsmod.Register(ModuleName, 16, "deferred slash already reached its application era")
	ErrUnappliedSlashMissing = errorsmod.Register(ModuleName, 17, "no unapplied slash found for (era, id)")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 18, "caller is not the governance authority")
	ErrInvalidGenesis        = errorsmod.Register(ModuleName, 19, "invalid genesis state")
)
