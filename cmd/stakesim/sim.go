package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"gopkg.in/yaml.v3"

	"github.com/noria-labs/noria/x/staking/election"
	stakingkeeper "github.com/noria-labs/noria/x/staking/keeper"
	"github.com/noria-labs/noria/x/staking/types"
)

const (
	simAuthority   = "sim-authority"
	initialSupply  = 1_000_000_000
	eraDuration    = 6 * time.Hour
	maxEraPoints   = 20
	maxOffencePerc = 30 // offence fractions drawn from (0%, 30%]
)

// Config carries the simulation knobs.
type Config struct {
	Eras        int     `yaml:"eras"`
	Validators  int     `yaml:"validators"`
	Nominators  int     `yaml:"nominators"`
	Seed        int64   `yaml:"seed"`
	OffenceRate float64 `yaml:"offence_rate"`
	Verbose     bool    `yaml:"verbose"`
}

func (c Config) Validate() error {
	if c.Eras <= 0 {
		return errors.New("eras must be positive")
	}

	if c.Validators <= 0 {
		return errors.New("validators must be positive")
	}

	if c.Nominators < 0 {
		return errors.New("nominators must be non-negative")
	}

	if c.OffenceRate < 0 || c.OffenceRate > 1 {
		return errors.New("offence rate must be between 0 and 1")
	}

	return nil
}

// Report summarizes a finished run.
type Report struct {
	Eras            int      `yaml:"eras"`
	Seed            int64    `yaml:"seed"`
	FinalActiveEra  uint64   `yaml:"final_active_era"`
	FinalValidators []string `yaml:"final_validators"`
	TotalStaked     string   `yaml:"total_staked"`
	TotalIssuance   string   `yaml:"total_issuance"`
	RewardsMinted   string   `yaml:"rewards_minted"`
	StakeBurned     string   `yaml:"stake_burned"`
	Offences        int      `yaml:"offences"`
	Payouts         int      `yaml:"payouts"`
	FallbackCommits int      `yaml:"fallback_commits"`
}

func (r Report) Write(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(r)
}

// simBank is a free-floating balance book: every account can bond whatever
// the scenario asks for, and minting and burning move the total supply the
// reward curve sees.
type simBank struct {
	locked   map[string]math.Int
	issuance math.Int

	minted math.Int
	burned math.Int
}

func newSimBank() *simBank {
	return &simBank{
		locked:   map[string]math.Int{},
		issuance: math.NewInt(initialSupply),
		minted:   math.ZeroInt(),
		burned:   math.ZeroInt(),
	}
}

func (b *simBank) LockStake(_ context.Context, addr string, amount math.Int) error {
	b.locked[addr] = b.lockedOf(addr).Add(amount)
	return nil
}

func (b *simBank) UnlockStake(_ context.Context, addr string, amount math.Int) error {
	remaining := b.lockedOf(addr).Sub(amount)
	if remaining.IsNegative() {
		return fmt.Errorf("unlock of %s exceeds locked balance of %s", amount, addr)
	}

	b.locked[addr] = remaining
	return nil
}

func (b *simBank) BurnLocked(_ context.Context, addr string, amount math.Int) error {
	remaining := b.lockedOf(addr).Sub(amount)
	if remaining.IsNegative() {
		return fmt.Errorf("burn of %s exceeds locked balance of %s", amount, addr)
	}

	b.locked[addr] = remaining
	b.issuance = b.issuance.Sub(amount)
	b.burned = b.burned.Add(amount)
	return nil
}

func (b *simBank) MintReward(_ context.Context, _ string, amount math.Int) error {
	b.issuance = b.issuance.Add(amount)
	b.minted = b.minted.Add(amount)
	return nil
}

func (b *simBank) TotalIssuance(_ context.Context) (math.Int, error) {
	return b.issuance, nil
}

func (b *simBank) lockedOf(addr string) math.Int {
	if v, ok := b.locked[addr]; ok {
		return v
	}
	return math.ZeroInt()
}

type simulation struct {
	cfg    Config
	rng    *rand.Rand
	ctx    context.Context
	keeper *stakingkeeper.Keeper
	bank   *simBank
	logger log.Logger

	validators []string
	nominators []string
	bonded     map[string]bool

	session uint64
	now     time.Time

	offences  int
	payouts   int
	fallbacks int
}

// Run executes the whole scenario and returns the summary.
func Run(cfg Config, logOut io.Writer) (Report, error) {
	logger := log.NewLogger(logOut)
	if !cfg.Verbose {
		logger = log.NewNopLogger()
	}

	sim, err := newSimulation(cfg, logger)
	if err != nil {
		return Report{}, err
	}

	for era := 0; era < cfg.Eras; era++ {
		if err := sim.runEra(); err != nil {
			return Report{}, fmt.Errorf("era %d: %w", era, err)
		}
	}

	return sim.report()
}

func newSimulation(cfg Config, logger log.Logger) (*simulation, error) {
	sk := newMemStoreService()
	ctx := context.Background()
	bank := newSimBank()
	rng := rand.New(rand.NewSource(cfg.Seed))

	params := types.DefaultParams()
	params.SessionsPerEra = 1
	params.BondingDuration = 4
	params.SlashDeferDuration = 2
	params.HistoryDepth = 8
	params.MaxValidators = uint32(cfg.Validators)
	params.MaxNominatorRewardedPerValidator = 8

	k := stakingkeeper.NewKeeper(sk, bank, election.New(), nil, simAuthority, logger)

	sim := &simulation{
		cfg:        cfg,
		rng:        rng,
		ctx:        ctx,
		keeper:     k,
		bank:       bank,
		logger:     logger,
		bonded:     map[string]bool{},
		now:        time.Unix(1_700_000_000, 0).UTC(),
		validators: make([]string, 0, cfg.Validators),
		nominators: make([]string, 0, cfg.Nominators),
	}

	genesisValidators := make([]types.GenesisValidator, 0, cfg.Validators)
	for i := 0; i < cfg.Validators; i++ {
		stash := fmt.Sprintf("val-%02d", i)
		sim.validators = append(sim.validators, stash)
		sim.bonded[stash] = true

		commission := math.LegacyNewDecWithPrec(int64(rng.Intn(21)), 2)
		genesisValidators = append(genesisValidators, types.GenesisValidator{
			Stash:      stash,
			Controller: stash + "-ctl",
			Bond:       math.NewInt(1_000 + rng.Int63n(9_000)),
			Prefs:      types.NewValidatorPrefs(commission, false),
		})
	}

	for i := 0; i < cfg.Nominators; i++ {
		sim.nominators = append(sim.nominators, fmt.Sprintf("nom-%02d", i))
	}

	genesis := types.NewGenesisState(params, sim.now, genesisValidators)
	if err := sim.keeper.InitGenesis(sim.ctx, genesis); err != nil {
		return nil, err
	}

	return sim, nil
}

// runEra produces one era of traffic and rotates.
func (s *simulation) runEra() error {
	if err := s.nominatorTraffic(); err != nil {
		return err
	}

	if err := s.reviveChilled(); err != nil {
		return err
	}

	if err := s.awardPoints(); err != nil {
		return err
	}

	if err := s.maybeOffend(); err != nil {
		return err
	}

	if err := s.keeper.OnSessionEnd(s.ctx, s.session, s.now); err != nil {
		return err
	}
	s.session++
	s.now = s.now.Add(eraDuration)

	status, err := s.keeper.GetRotationStatus(s.ctx)
	if err != nil {
		return err
	}
	if status == stakingkeeper.RotationStatusFallbackCommitted {
		s.fallbacks++
	}

	if err := s.payoutClosedEra(); err != nil {
		return err
	}

	if err := s.keeper.AllInvariants(s.ctx); err != nil {
		return err
	}

	active, err := s.keeper.GetActiveEra(s.ctx)
	if err != nil {
		return err
	}

	s.logger.Info("era rotated",
		"active_era", active.Index,
		"issuance", s.bank.issuance,
		"offences", s.offences,
	)

	return nil
}

// nominatorTraffic bonds fresh nominators and mutates existing ones.
func (s *simulation) nominatorTraffic() error {
	for _, stash := range s.nominators {
		if !s.bonded[stash] {
			if s.rng.Float64() > 0.5 {
				continue
			}

			targets, err := s.pickTargets()
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				continue
			}

			value := math.NewInt(100 + s.rng.Int63n(900))
			if err := s.keeper.Bond(s.ctx, stash, stash+"-ctl", value, types.RewardDestinationStaked); err != nil {
				return err
			}

			if err := s.keeper.Nominate(s.ctx, stash+"-ctl", targets); err != nil {
				return err
			}

			s.bonded[stash] = true
			continue
		}

		switch s.rng.Intn(6) {
		case 0:
			// a ledger fully consumed by a slash dies underneath us
			err := s.keeper.BondExtra(s.ctx, stash, math.NewInt(1+s.rng.Int63n(200)))
			if errors.Is(err, types.ErrNotBonded) {
				s.bonded[stash] = false
			} else if err != nil {
				return err
			}
		case 1:
			err := s.keeper.Unbond(s.ctx, stash+"-ctl", math.NewInt(1+s.rng.Int63n(300)))
			if errors.Is(err, types.ErrNotController) {
				s.bonded[stash] = false
			} else if err != nil && !errors.Is(err, types.ErrNoMoreChunks) {
				return err
			}
		case 2:
			if err := s.withdraw(stash); err != nil {
				return err
			}
		case 3:
			targets, err := s.pickTargets()
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				continue
			}

			err = s.keeper.Nominate(s.ctx, stash+"-ctl", targets)
			if errors.Is(err, types.ErrNotController) {
				s.bonded[stash] = false
			} else if err != nil {
				return err
			}
		}
	}

	return nil
}

// pickTargets draws up to three distinct targets from the stashes currently
// registered as validators.
func (s *simulation) pickTargets() ([]string, error) {
	live := make([]string, 0, len(s.validators))
	for _, stash := range s.validators {
		found, err := s.keeper.IsValidator(s.ctx, stash)
		if err != nil {
			return nil, err
		}
		if found {
			live = append(live, stash)
		}
	}

	if len(live) == 0 {
		return nil, nil
	}

	s.rng.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
	count := 1 + s.rng.Intn(3)
	if count > len(live) {
		count = len(live)
	}

	return live[:count], nil
}

// withdraw drains matured chunks; the ledger may die entirely, at which
// point the stash becomes eligible for a fresh bond.
func (s *simulation) withdraw(stash string) error {
	err := s.keeper.WithdrawUnbonded(s.ctx, stash+"-ctl")
	if err != nil {
		if errors.Is(err, types.ErrNotController) {
			s.bonded[stash] = false
			return nil
		}

		return err
	}

	if _, err := s.keeper.GetLedger(s.ctx, stash); errors.Is(err, collections.ErrNotFound) {
		s.bonded[stash] = false
	}

	return nil
}

// reviveChilled re-declares validator intent for stashes knocked out by an
// offence so the candidate pool does not drain over a long run.
func (s *simulation) reviveChilled() error {
	for _, stash := range s.validators {
		if !s.bonded[stash] {
			continue
		}

		if _, err := s.keeper.GetLedger(s.ctx, stash); err != nil {
			s.bonded[stash] = false
			continue
		}

		found, err := s.keeper.IsValidator(s.ctx, stash)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		commission := math.LegacyNewDecWithPrec(int64(s.rng.Intn(21)), 2)
		if err := s.keeper.Validate(s.ctx, stash+"-ctl", types.NewValidatorPrefs(commission, false)); err != nil {
			return err
		}
	}

	return nil
}

func (s *simulation) awardPoints() error {
	active, err := s.keeper.GetActiveEra(s.ctx)
	if err != nil {
		return err
	}

	winners, err := s.keeper.GetEraValidators(s.ctx, active.Index)
	if err != nil {
		return err
	}

	for _, winner := range winners {
		points := uint64(s.rng.Intn(maxEraPoints + 1))
		if points == 0 {
			continue
		}

		if err := s.keeper.AddEraPoints(s.ctx, winner, points); err != nil {
			return err
		}
	}

	return nil
}

func (s *simulation) maybeOffend() error {
	if s.rng.Float64() >= s.cfg.OffenceRate {
		return nil
	}

	active, err := s.keeper.GetActiveEra(s.ctx)
	if err != nil {
		return err
	}

	winners, err := s.keeper.GetEraValidators(s.ctx, active.Index)
	if err != nil || len(winners) == 0 {
		return err
	}

	offender := winners[s.rng.Intn(len(winners))]
	fraction := math.LegacyNewDecWithPrec(int64(1+s.rng.Intn(maxOffencePerc)), 2)

	if err := s.keeper.OnOffence(s.ctx, []string{offender}, fraction, active.Index); err != nil {
		return err
	}

	s.offences++
	s.logger.Info("offence reported", "offender", offender, "fraction", fraction)
	return nil
}

// payoutClosedEra claims rewards for the most recently closed era.
func (s *simulation) payoutClosedEra() error {
	active, err := s.keeper.GetActiveEra(s.ctx)
	if err != nil {
		return err
	}

	if active.Index < 2 {
		return nil
	}
	era := active.Index - 1

	winners, err := s.keeper.GetEraValidators(s.ctx, era)
	if err != nil {
		return err
	}

	for _, winner := range winners {
		claimed, err := s.keeper.IsClaimed(s.ctx, era, winner)
		if err != nil {
			return err
		}
		if claimed {
			continue
		}

		if err := s.keeper.PayoutStakers(s.ctx, era, winner); err != nil {
			return err
		}

		s.payouts++
	}

	return nil
}

func (s *simulation) report() (Report, error) {
	active, err := s.keeper.GetActiveEra(s.ctx)
	if err != nil {
		return Report{}, err
	}

	winners, err := s.keeper.GetEraValidators(s.ctx, active.Index)
	if err != nil {
		return Report{}, err
	}

	totalStaked, err := s.keeper.GetEraTotalStake(s.ctx, active.Index)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Eras:            s.cfg.Eras,
		Seed:            s.cfg.Seed,
		FinalActiveEra:  active.Index,
		FinalValidators: winners,
		TotalStaked:     totalStaked.String(),
		TotalIssuance:   s.bank.issuance.String(),
		RewardsMinted:   s.bank.minted.String(),
		StakeBurned:     s.bank.burned.String(),
		Offences:        s.offences,
		Payouts:         s.payouts,
		FallbackCommits: s.fallbacks,
	}, nil
}
