package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfig      = "config"
	flagEras        = "eras"
	flagValidators  = "validators"
	flagNominators  = "nominators"
	flagSeed        = "seed"
	flagOffenceRate = "offence-rate"
	flagVerbose     = "verbose"
)

// NewRootCmd creates the stakesim root command. Flags may also be supplied
// through a yaml config file; explicit flags win.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "stakesim",
		Short: "Deterministic staking simulator",
		Long: `stakesim drives the staking core through a configurable number of eras
of randomized bond, nominate, unbond, offence and payout traffic over an
in-memory store, checking state invariants after every era. The same seed
always produces the same run.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			if configFile, err := cmd.Flags().GetString(flagConfig); err != nil {
				return err
			} else if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := Config{
				Eras:        v.GetInt(flagEras),
				Validators:  v.GetInt(flagValidators),
				Nominators:  v.GetInt(flagNominators),
				Seed:        v.GetInt64(flagSeed),
				OffenceRate: v.GetFloat64(flagOffenceRate),
				Verbose:     v.GetBool(flagVerbose),
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			report, err := Run(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return report.Write(cmd.OutOrStdout())
		},
	}

	rootCmd.Flags().String(flagConfig, "", "path to a yaml config file")
	rootCmd.Flags().Int(flagEras, 50, "number of eras to simulate")
	rootCmd.Flags().Int(flagValidators, 10, "number of validator stashes")
	rootCmd.Flags().Int(flagNominators, 40, "number of nominator stashes")
	rootCmd.Flags().Int64(flagSeed, 1, "rng seed")
	rootCmd.Flags().Float64(flagOffenceRate, 0.1, "per-era probability of an offence report")
	rootCmd.Flags().Bool(flagVerbose, false, "log every era transition")

	return rootCmd
}
