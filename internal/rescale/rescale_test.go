package rescale_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/rescale"
)

func TestDefaultTableIsDisabledAndAllOnes(t *testing.T) {
	tbl := rescale.Default()
	require.False(t, tbl.Enabled)
	require.Equal(t, 1.0, tbl.Factor(rescale.BoundsG))
	require.Equal(t, 1.0, tbl.Factor(rescale.Flows))
}

func TestDisabledTableIgnoresCoefficients(t *testing.T) {
	tbl := rescale.Table{Enabled: false, Coefficients: map[rescale.Family]float64{rescale.Flows: 50}}
	require.Equal(t, 1.0, tbl.Factor(rescale.Flows))
}

func TestEnabledTableAppliesRegisteredCoefficient(t *testing.T) {
	tbl := rescale.Table{Enabled: true, Coefficients: map[rescale.Family]float64{rescale.Flows: 50}}
	require.Equal(t, 50.0, tbl.Factor(rescale.Flows))
}

func TestEnabledTableDefaultsUnregisteredFamilyToOne(t *testing.T) {
	tbl := rescale.Table{Enabled: true, Coefficients: map[rescale.Family]float64{rescale.Flows: 50}}
	require.Equal(t, 1.0, tbl.Factor(rescale.BendersCut))
}

func TestEnabledTableIgnoresNonPositiveCoefficient(t *testing.T) {
	tbl := rescale.Table{Enabled: true, Coefficients: map[rescale.Family]float64{rescale.Flows: -1, rescale.BoundsLN: 0}}
	require.Equal(t, 1.0, tbl.Factor(rescale.Flows))
	require.Equal(t, 1.0, tbl.Factor(rescale.BoundsLN))
}

func TestZeroValueTableActsAsIdentity(t *testing.T) {
	var tbl rescale.Table
	require.Equal(t, 1.0, tbl.Factor(rescale.Flows))
}
