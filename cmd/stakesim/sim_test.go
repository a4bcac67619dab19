package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunDeterministic(t *testing.T) {
	cfg := Config{
		Eras:        12,
		Validators:  4,
		Nominators:  6,
		Seed:        7,
		OffenceRate: 0.5,
	}
	require.NoError(t, cfg.Validate())

	first, err := Run(cfg, io.Discard)
	require.NoError(t, err)
	require.EqualValues(t, 12, first.FinalActiveEra)
	require.NotEmpty(t, first.FinalValidators)

	second, err := Run(cfg, io.Discard)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestConfigValidate(t *testing.T) {
	require.Error(t, Config{Eras: 0, Validators: 1}.Validate())
	require.Error(t, Config{Eras: 1, Validators: 0}.Validate())
	require.Error(t, Config{Eras: 1, Validators: 1, Nominators: -1}.Validate())
	require.Error(t, Config{Eras: 1, Validators: 1, OffenceRate: 1.5}.Validate())
	require.NoError(t, Config{Eras: 1, Validators: 1}.Validate())
}
