package lopf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
)

func TestValidateAcceptsPlainAnglesLinear(t *testing.T) {
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous, Role: lopf.RoleMonolithic}
	require.NoError(t, opts.Validate())
}

func TestValidateRejectsIntegerBigMWithoutMatchingFormulation(t *testing.T) {
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.IntegerBigM}
	err := opts.Validate()
	require.Error(t, err)
	var cfgErr *lopf.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsBigMFormulationWithoutMatchingInvestmentType(t *testing.T) {
	opts := lopf.Options{Formulation: lopf.AnglesLinearIntegerBigM, InvestmentType: lopf.Continuous}
	err := opts.Validate()
	require.Error(t, err)
	var cfgErr *lopf.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateAcceptsMatchingBigMPair(t *testing.T) {
	opts := lopf.Options{Formulation: lopf.AnglesLinearIntegerBigM, InvestmentType: lopf.IntegerBigM, Role: lopf.RoleMonolithic}
	require.NoError(t, opts.Validate())
}

func TestValidateRejectsBilinearFormulations(t *testing.T) {
	for _, f := range []lopf.Formulation{lopf.AnglesBilinear, lopf.KirchhoffBilinear} {
		opts := lopf.Options{Formulation: f, InvestmentType: lopf.Continuous}
		err := opts.Validate()
		require.Error(t, err, "formulation %s should be rejected", f)
		var cfgErr *lopf.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	}
}

func TestValidateRejectsSingleSnapshotOutsideSlaveRole(t *testing.T) {
	opts := lopf.Options{
		Formulation:    lopf.AnglesLinear,
		InvestmentType: lopf.Continuous,
		Role:           lopf.RoleMonolithic,
		Snapshots:      lopf.SingleSnapshot(3),
	}
	err := opts.Validate()
	require.Error(t, err)
	var cfgErr *lopf.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateAcceptsSingleSnapshotForSlaveRole(t *testing.T) {
	opts := lopf.Options{
		Formulation:    lopf.AnglesLinear,
		InvestmentType: lopf.Continuous,
		Role:           lopf.RoleSlave,
		Snapshots:      lopf.SingleSnapshot(3),
	}
	require.NoError(t, opts.Validate())
}
