package keeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/collections/colltest"
	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/stretchr/testify/require"

	"github.com/noria-labs/noria/x/staking/election"
	stakingkeeper "github.com/noria-labs/noria/x/staking/keeper"
	"github.com/noria-labs/noria/x/staking/types"
)

const (
	genesisValidator  = "val0"
	genesisController = "val0-ctl"
	authority         = "gov"
)

var genesisBond = math.NewInt(1_000)

// mockBank records every balance operation the keeper performs.
type mockBank struct {
	locked   map[string]math.Int
	burned   map[string]math.Int
	minted   map[string]math.Int
	issuance math.Int
}

func newMockBank() *mockBank {
	return &mockBank{
		locked:   map[string]math.Int{},
		burned:   map[string]math.Int{},
		minted:   map[string]math.Int{},
		issuance: math.NewInt(1_000_000),
	}
}

func (b *mockBank) add(m map[string]math.Int, addr string, amount math.Int) {
	if prev, ok := m[addr]; ok {
		m[addr] = prev.Add(amount)
	} else {
		m[addr] = amount
	}
}

func (b *mockBank) LockStake(_ context.Context, addr string, amount math.Int) error {
	b.add(b.locked, addr, amount)
	return nil
}

func (b *mockBank) UnlockStake(_ context.Context, addr string, amount math.Int) error {
	b.add(b.locked, addr, amount.Neg())
	return nil
}

func (b *mockBank) BurnLocked(_ context.Context, addr string, amount math.Int) error {
	b.add(b.locked, addr, amount.Neg())
	b.add(b.burned, addr, amount)
	return nil
}

func (b *mockBank) MintReward(_ context.Context, addr string, amount math.Int) error {
	b.add(b.minted, addr, amount)
	return nil
}

func (b *mockBank) TotalIssuance(_ context.Context) (math.Int, error) {
	return b.issuance, nil
}

func (b *mockBank) lockedOf(addr string) math.Int {
	if v, ok := b.locked[addr]; ok {
		return v
	}
	return math.ZeroInt()
}

func (b *mockBank) mintedOf(addr string) math.Int {
	if v, ok := b.minted[addr]; ok {
		return v
	}
	return math.ZeroInt()
}

// mockElection wraps the fallback provider and can be switched to fail.
type mockElection struct {
	inner types.ElectionProvider
	fail  bool
}

func (m *mockElection) Elect(candidates []types.Candidate, voters []types.Voter, maxWinners uint32) (types.ElectionResult, error) {
	if m.fail {
		return types.ElectionResult{}, errors.New("election unavailable")
	}

	return m.inner.Elect(candidates, voters, maxWinners)
}

// fixedCurve pays a constant annual rate regardless of the stake ratio.
type fixedCurve struct {
	rate math.LegacyDec
}

func (c fixedCurve) AnnualRate(_ math.LegacyDec) math.LegacyDec {
	return c.rate
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	keeper   *stakingkeeper.Keeper
	bank     *mockBank
	election *mockElection

	session uint64
	now     time.Time
}

// testParams keeps eras short: one session per era, three eras of bonding,
// immediate slashing unless a test opts into deferral.
func testParams() types.Params {
	params := types.DefaultParams()
	params.SessionsPerEra = 1
	params.BondingDuration = 3
	params.SlashDeferDuration = 0
	params.SpanResetEras = 2
	params.MinValidatorCount = 1
	return params
}

func newFixture(t *testing.T, params types.Params) *fixture {
	t.Helper()

	sk, ctx := colltest.MockStore()
	bank := newMockBank()
	provider := &mockElection{inner: election.New()}

	// a constant 36.5% with 365 eras per year puts 1/1000 of the issuance
	// into every era's pool, keeping payout numbers round
	curve := fixedCurve{rate: math.LegacyNewDecWithPrec(365, 3)}

	k := stakingkeeper.NewKeeper(sk, bank, provider, curve, authority, log.NewNopLogger())

	// the genesis validator declares the lowest commission the params allow,
	// so fixtures with a raised floor still pass genesis validation
	genesis := types.NewGenesisState(params, time.Unix(1_700_000_000, 0).UTC(), []types.GenesisValidator{
		{
			Stash:      genesisValidator,
			Controller: genesisController,
			Bond:       genesisBond,
			Prefs:      types.NewValidatorPrefs(params.MinCommissionRate, false),
		},
	})
	require.NoError(t, k.InitGenesis(ctx, genesis))

	return &fixture{
		t:        t,
		ctx:      ctx,
		keeper:   k,
		bank:     bank,
		election: provider,
		session:  0,
		now:      genesis.StartTime,
	}
}

// endSession delivers the next session-end signal; with one session per era
// every call rotates the era.
func (f *fixture) endSession() {
	f.t.Helper()

	require.NoError(f.t, f.keeper.OnSessionEnd(f.ctx, f.session, f.now))
	f.session++
	f.now = f.now.Add(6 * time.Hour)
}

// advanceEras rotates n eras and asserts the invariants still hold.
func (f *fixture) advanceEras(n int) {
	f.t.Helper()

	for range n {
		f.endSession()
	}

	require.NoError(f.t, f.keeper.AllInvariants(f.ctx))
}

func (f *fixture) activeEra() uint64 {
	f.t.Helper()

	active, err := f.keeper.GetActiveEra(f.ctx)
	require.NoError(f.t, err)
	return active.Index
}

// bondAndNominate bonds value for the stash and nominates the targets, using
// "<stash>-ctl" as the controller.
func (f *fixture) bondAndNominate(stash string, value math.Int, targets ...string) {
	f.t.Helper()

	controller := stash + "-ctl"
	require.NoError(f.t, f.keeper.Bond(f.ctx, stash, controller, value, types.RewardDestinationStash))
	require.NoError(f.t, f.keeper.Nominate(f.ctx, controller, targets))
}

// bondAndValidate bonds value for the stash and declares it a validator.
func (f *fixture) bondAndValidate(stash string, value math.Int, commission math.LegacyDec) {
	f.t.Helper()

	controller := stash + "-ctl"
	require.NoError(f.t, f.keeper.Bond(f.ctx, stash, controller, value, types.RewardDestinationStash))
	require.NoError(f.t, f.keeper.Validate(f.ctx, controller, types.NewValidatorPrefs(commission, false)))
}
