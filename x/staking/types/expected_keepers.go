package types

import (
	"context"

	"cosmossdk.io/math"
)

// BankKeeper is the opaque balance collaborator. The staking core never
// moves tokens itself; it locks, releases, burns and mints through this
// interface only.
type BankKeeper interface {
	// LockStake marks funds of the account as bonded.
	LockStake(ctx context.Context, addr string, amount math.Int) error
	// UnlockStake releases previously locked funds back to the account.
	UnlockStake(ctx context.Context, addr string, amount math.Int) error
	// BurnLocked destroys locked funds of the account, used by slashing.
	BurnLocked(ctx context.Context, addr string, amount math.Int) error
	// MintReward credits newly issued reward tokens to the account.
	MintReward(ctx context.Context, addr string, amount math.Int) error
	// TotalIssuance reports the current token supply, consumed by the
	// reward curve.
	TotalIssuance(ctx context.Context) (math.Int, error)
}
