package keeper_test

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/stretchr/testify/require"

	stakingkeeper "github.com/noria-labs/noria/x/staking/keeper"
)

func TestRotationCommitsExposure(t *testing.T) {
	f := newFixture(t, testParams())

	f.bondAndNominate("alice", math.NewInt(100), genesisValidator)
	f.endSession()

	require.Equal(t, uint64(1), f.activeEra())

	current, err := f.keeper.GetCurrentEra(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), current)

	exposure, err := f.keeper.GetExposure(f.ctx, 1, genesisValidator)
	require.NoError(t, err)
	require.Equal(t, genesisBond, exposure.Own)
	require.Equal(t, genesisBond.Add(math.NewInt(100)), exposure.Total)
	require.Len(t, exposure.Others, 1)
	require.Equal(t, "alice", exposure.Others[0].Who)
	require.Equal(t, math.NewInt(100), exposure.Others[0].Value)

	validators, err := f.keeper.GetEraValidators(f.ctx, 1)
	require.NoError(t, err)
	require.Contains(t, validators, genesisValidator)

	status, err := f.keeper.GetRotationStatus(f.ctx)
	require.NoError(t, err)
	require.Equal(t, stakingkeeper.RotationStatusCommitted, status)

	require.NoError(t, f.keeper.AllInvariants(f.ctx))
}

func TestRotationIdempotentPerSession(t *testing.T) {
	f := newFixture(t, testParams())

	require.NoError(t, f.keeper.OnSessionEnd(f.ctx, 0, f.now))
	require.Equal(t, uint64(1), f.activeEra())

	// the same session boundary delivered twice rotates once
	require.NoError(t, f.keeper.OnSessionEnd(f.ctx, 0, f.now))
	require.Equal(t, uint64(1), f.activeEra())

	require.NoError(t, f.keeper.OnSessionEnd(f.ctx, 1, f.now))
	require.Equal(t, uint64(2), f.activeEra())
}

func TestRotationSpansSessions(t *testing.T) {
	params := testParams()
	params.SessionsPerEra = 3
	f := newFixture(t, params)

	f.endSession() // session 0
	require.Equal(t, uint64(0), f.activeEra())
	f.endSession() // session 1
	require.Equal(t, uint64(0), f.activeEra())
	f.endSession() // session 2 closes the era
	require.Equal(t, uint64(1), f.activeEra())
}

func TestElectionFallbackKeepsPreviousEra(t *testing.T) {
	f := newFixture(t, testParams())

	f.bondAndNominate("alice", math.NewInt(100), genesisValidator)
	f.endSession()

	before, err := f.keeper.GetExposure(f.ctx, 1, genesisValidator)
	require.NoError(t, err)

	f.election.fail = true
	f.endSession()

	// no new era was committed
	require.Equal(t, uint64(1), f.activeEra())
	current, err := f.keeper.GetCurrentEra(f.ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), current)

	// the committed exposure is untouched
	after, err := f.keeper.GetExposure(f.ctx, 1, genesisValidator)
	require.NoError(t, err)
	require.Equal(t, before, after)

	_, err = f.keeper.GetExposure(f.ctx, 2, genesisValidator)
	require.Error(t, err)

	status, err := f.keeper.GetRotationStatus(f.ctx)
	require.NoError(t, err)
	require.Equal(t, stakingkeeper.RotationStatusFallbackCommitted, status)

	// the chain keeps going once the provider recovers
	f.election.fail = false
	f.endSession()
	require.Equal(t, uint64(2), f.activeEra())
}

func TestRotationFailsBelowMinValidatorCount(t *testing.T) {
	params := testParams()
	params.MinValidatorCount = 2
	f := newFixture(t, params)

	// only the genesis validator is up: below the minimum
	f.endSession()
	require.Equal(t, uint64(0), f.activeEra())

	status, err := f.keeper.GetRotationStatus(f.ctx)
	require.NoError(t, err)
	require.Equal(t, stakingkeeper.RotationStatusFallbackCommitted, status)

	// a second validator fixes it
	f.bondAndValidate("val1", math.NewInt(500), math.LegacyZeroDec())
	f.endSession()
	require.Equal(t, uint64(1), f.activeEra())

	validators, err := f.keeper.GetEraValidators(f.ctx, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{genesisValidator, "val1"}, validators)
}

func TestEraHistoryPruning(t *testing.T) {
	params := testParams()
	params.HistoryDepth = 2
	params.BondingDuration = 1
	params.SlashDeferDuration = 0
	f := newFixture(t, params)

	f.advanceEras(5)

	// eras below 5-2=3 are gone
	_, err := f.keeper.GetExposure(f.ctx, 2, genesisValidator)
	require.Error(t, err)
	_, err = f.keeper.GetEraValidators(f.ctx, 2)
	require.Error(t, err)

	// retained history is intact
	for era := uint64(3); era <= 5; era++ {
		_, err := f.keeper.GetExposure(f.ctx, era, genesisValidator)
		require.NoError(t, err, "era %d", era)
	}
}
