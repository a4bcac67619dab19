package keeper_test

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/stretchr/testify/require"

	"github.com/noria-labs/noria/x/staking/types"
)

func TestImmediateSlashDebitsNominator(t *testing.T) {
	f := newFixture(t, testParams())

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.bondAndNominate("alice", math.NewInt(100), "val1")
	f.endSession()

	exposure, err := f.keeper.GetExposure(f.ctx, 1, "val1")
	require.NoError(t, err)
	require.Len(t, exposure.Others, 1)

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 1), 1))

	ledger, err := f.keeper.GetLedger(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(50), ledger.Active)
	require.Equal(t, math.NewInt(50), ledger.Total)

	ledger, err = f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(50), ledger.Active)

	// slashed funds were burned, not released
	require.Equal(t, math.NewInt(50), f.bank.burned["alice"])
	require.Equal(t, math.NewInt(50), f.bank.burned["val1"])

	// the offender is chilled and its nominations suppressed
	_, err = f.keeper.GetValidatorPrefs(f.ctx, "val1")
	require.Error(t, err)
	nominations, err := f.keeper.GetNominations(f.ctx, "alice")
	require.NoError(t, err)
	require.True(t, nominations.Suppressed)

	require.NoError(t, f.keeper.AllInvariants(f.ctx))
}

func TestSlashNonAdditiveWithinSpan(t *testing.T) {
	f := newFixture(t, testParams())

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(1, 1), 1))

	ledger, err := f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90), ledger.Active)

	// a smaller report within the same span is recorded without effect
	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 2), 1))

	ledger, err = f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90), ledger.Active)

	span, err := f.keeper.GetSlashingSpan(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.LegacyNewDecWithPrec(1, 1), span.MaxSlashFraction)

	// a larger report applies only the increment: cumulative damage equals
	// the span maximum of 25%
	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(25, 2), 1))

	ledger, err = f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(75), ledger.Active)
}

func TestSlashDebitsUntruncatedExposure(t *testing.T) {
	params := testParams()
	params.MaxNominatorRewardedPerValidator = 2
	f := newFixture(t, params)

	f.bondAndNominate("n1", math.NewInt(10), genesisValidator)
	f.bondAndNominate("n2", math.NewInt(5), genesisValidator)
	f.bondAndNominate("n3", math.NewInt(3), genesisValidator)
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{genesisValidator}, math.LegacyOneDec(), 1))

	// truncation affects rewards only: every contributor is slashed in full
	for _, stash := range []string{"n1", "n2", "n3"} {
		_, err := f.keeper.GetLedger(f.ctx, stash)
		require.Error(t, err, "ledger of %s should be emptied", stash)
	}
	require.Equal(t, math.NewInt(10), f.bank.burned["n1"])
	require.Equal(t, math.NewInt(5), f.bank.burned["n2"])
	require.Equal(t, math.NewInt(3), f.bank.burned["n3"])
}

func TestSlashClipsToAvailableBalance(t *testing.T) {
	f := newFixture(t, testParams())

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.bondAndNominate("alice", math.NewInt(100), "val1")
	f.endSession()

	// alice unbonds 80 after the exposure was taken; 20 stays active and 80
	// sits in the unlocking queue
	require.NoError(t, f.keeper.Unbond(f.ctx, "alice-ctl", math.NewInt(80)))

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyOneDec(), 1))

	// the 100 computed against the stale exposure consumes the active 20
	// and the unlocking 80; the ledger empties without going negative
	_, err := f.keeper.GetLedger(f.ctx, "alice")
	require.Error(t, err)
	require.Equal(t, math.NewInt(100), f.bank.burned["alice"])
	require.NoError(t, f.keeper.AllInvariants(f.ctx))
}

func TestSlashSpanReset(t *testing.T) {
	params := testParams()
	params.SpanResetEras = 1
	f := newFixture(t, params)

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(1, 1), 1))
	span, err := f.keeper.GetSlashingSpan(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), span.SpanIndex)

	// the chilled validator returns to the set and reoffends two eras
	// later; a fresh span opens, so the old maximum no longer shields it
	require.NoError(t, f.keeper.Validate(f.ctx, "val1-ctl", types.NewValidatorPrefs(math.LegacyZeroDec(), false)))
	f.advanceEras(2)
	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 2), 3))

	span, err = f.keeper.GetSlashingSpan(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), span.SpanIndex)
	require.Equal(t, math.LegacyNewDecWithPrec(5, 2), span.MaxSlashFraction)
}

func TestOldOffenceReportDiscarded(t *testing.T) {
	params := testParams()
	params.HistoryDepth = 2
	params.SlashDeferDuration = 0
	f := newFixture(t, params)

	f.advanceEras(4)

	// era 1 is out of history: the report is dropped without effect
	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{genesisValidator}, math.LegacyOneDec(), 1))

	ledger, err := f.keeper.GetLedger(f.ctx, genesisValidator)
	require.NoError(t, err)
	require.Equal(t, genesisBond, ledger.Active)
	_, err = f.keeper.GetSlashingSpan(f.ctx, genesisValidator)
	require.Error(t, err)
}

func TestDeferredSlashAppliesAtEra(t *testing.T) {
	params := testParams()
	params.SlashDeferDuration = 2
	f := newFixture(t, params)

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 1), 1))

	// nothing applied yet; the record waits for era 3
	ledger, err := f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), ledger.Active)

	pending, err := f.keeper.GetUnappliedSlashes(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "val1", pending[0].Validator)

	f.advanceEras(2) // activates era 3, the application era

	ledger, err = f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(50), ledger.Active)

	pending, err = f.keeper.GetUnappliedSlashes(f.ctx, 3)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestCancelDeferredSlash(t *testing.T) {
	params := testParams()
	params.SlashDeferDuration = 2
	f := newFixture(t, params)

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 1), 1))

	pending, err := f.keeper.GetUnappliedSlashes(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].ID

	// only the authority may cancel
	err = f.keeper.CancelDeferredSlash(f.ctx, "mallory", 3, id)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, f.keeper.CancelDeferredSlash(f.ctx, authority, 3, id))

	err = f.keeper.CancelDeferredSlash(f.ctx, authority, 3, id)
	require.ErrorIs(t, err, types.ErrUnappliedSlashMissing)

	// the cancelled slash never lands
	f.advanceEras(3)
	ledger, err := f.keeper.GetLedger(f.ctx, "val1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100), ledger.Active)
}

func TestCancelDeferredSlashTooLate(t *testing.T) {
	params := testParams()
	params.SlashDeferDuration = 2
	f := newFixture(t, params)

	f.bondAndValidate("val1", math.NewInt(100), math.LegacyZeroDec())
	f.endSession()

	require.NoError(t, f.keeper.OnOffence(f.ctx, []string{"val1"}, math.LegacyNewDecWithPrec(5, 1), 1))
	f.advanceEras(2) // era 3 arrived; the slash has been applied

	err := f.keeper.CancelDeferredSlash(f.ctx, authority, 3, 0)
	require.ErrorIs(t, err, types.ErrAlreadyApplied)
}
