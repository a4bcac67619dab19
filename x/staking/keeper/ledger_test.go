package keeper_test

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/stretchr/testify/require"

	"github.com/noria-labs/noria/x/staking/types"
)

func TestBond(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), ledger.Total)
	require.Equal(t, math.NewInt(100), ledger.Active)
	require.Empty(t, ledger.Unlocking)
	require.Equal(t, "alice-ctl", ledger.Controller)
	require.Equal(t, math.NewInt(100), f.bank.lockedOf("alice"))

	// a stash bonds once
	err = f.keeper.Bond(f.ctx, "alice", "other-ctl", math.NewInt(50), types.RewardDestinationStash)
	require.ErrorIs(t, err, types.ErrAlreadyBonded)

	// a controller manages one stash
	err = f.keeper.Bond(f.ctx, "bob", "alice-ctl", math.NewInt(50), types.RewardDestinationStash)
	require.ErrorIs(t, err, types.ErrAlreadyPaired)
}

func TestBondBelowMinimum(t *testing.T) {
	params := testParams()
	params.MinBond = math.NewInt(10)
	f := newFixture(t, params)

	err := f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(9), types.RewardDestinationStash)
	require.ErrorIs(t, err, types.ErrInsufficientBond)
}

func TestBondExtra(t *testing.T) {
	f := newFixture(t, testParams())

	err := f.keeper.BondExtra(f.ctx, "alice", math.NewInt(10))
	require.ErrorIs(t, err, types.ErrNotBonded)

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))
	require.NoError(t, f.keeper.BondExtra(f.ctx, "alice", math.NewInt(40)))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(140), ledger.Total)
	require.Equal(t, math.NewInt(140), ledger.Active)
	require.NoError(t, f.keeper.AllInvariants(f.ctx))
}

func TestUnbond(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(30)))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), ledger.Total)
	require.Equal(t, math.NewInt(70), ledger.Active)
	require.Len(t, ledger.Unlocking, 1)
	require.Equal(t, math.NewInt(30), ledger.Unlocking[0].Value)
	require.Equal(t, uint64(3), ledger.Unlocking[0].Era) // active era 0 + bonding duration 3

	// same-era chunks merge
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(20)))
	ledger, err = f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, ledger.Unlocking, 1)
	require.Equal(t, math.NewInt(50), ledger.Unlocking[0].Value)

	// requested value clamps to active
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(1_000)))
	ledger, err = f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.True(t, ledger.Active.IsZero())
	require.Equal(t, math.NewInt(100), ledger.Total)
	require.NoError(t, f.keeper.AllInvariants(f.ctx))

	err = f.keeper.Unbond(f.ctx, "nobody", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrNotController)
}

func TestUnbondNoMoreChunks(t *testing.T) {
	params := testParams()
	params.MaxUnlockingChunks = 2
	f := newFixture(t, params)

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))

	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(10))) // matures era 3
	f.advanceEras(1)
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(10))) // matures era 4
	f.advanceEras(1)

	err := f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(10)) // would need a third chunk
	require.ErrorIs(t, err, types.ErrNoMoreChunks)

	// the ledger is untouched by the failed call
	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(80), ledger.Active)
	require.Len(t, ledger.Unlocking, 2)
}

func TestWithdrawUnbondedRoundTrip(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(100)))

	// not mature yet: nothing moves
	require.NoError(t, f.keeper.WithdrawUnbonded(f.ctx, "alice-ctl"))
	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), ledger.Total)

	f.advanceEras(3)

	require.NoError(t, f.keeper.WithdrawUnbonded(f.ctx, "alice-ctl"))

	// the emptied ledger is gone along with its controller pairing
	_, err = f.keeper.GetLedger(f.ctx, "alice")
	require.Error(t, err)
	err = f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrNotController)
	require.True(t, f.bank.lockedOf("alice").IsZero())
}

func TestWithdrawPartial(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(30))) // matures era 3
	f.advanceEras(1)
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(20))) // matures era 4
	f.advanceEras(2)                                                         // active era 3

	require.NoError(t, f.keeper.WithdrawUnbonded(f.ctx, "alice-ctl"))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(70), ledger.Total)
	require.Equal(t, math.NewInt(50), ledger.Active)
	require.Len(t, ledger.Unlocking, 1)
	require.NoError(t, f.keeper.AllInvariants(f.ctx))
}

func TestSetPayee(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.Bond(f.ctx, "alice", "alice-ctl", math.NewInt(100), types.RewardDestinationStash))
	require.NoError(t, f.keeper.SetPayee(f.ctx, "alice-ctl", types.RewardDestinationController))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, types.RewardDestinationController, ledger.Payee)

	err = f.keeper.SetPayee(f.ctx, "alice-ctl", types.RewardDestination(42))
	require.Error(t, err)
}
