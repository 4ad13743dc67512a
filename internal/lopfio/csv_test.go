package lopfio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
	"lopf/internal/lopfio"
)

func TestWriteDispatchCSVWritesInvestmentAndSeriesRows(t *testing.T) {
	sol := &lopf.Solution{
		GPNomOpt:  map[string]float64{"gen0": 123.456789},
		LNSNomOpt: map[string]float64{"line0": 50},
		G: map[string]map[int]float64{
			"gen0": {0: 10, 1: 20},
		},
		ObjectiveValue: 999,
	}

	path := filepath.Join(t.TempDir(), "dispatch.csv")
	require.NoError(t, lopfio.WriteDispatchCSV(path, sol))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	require.Contains(t, content, "snapshot,kind,id,value")
	require.Contains(t, content, "-1,generator_p_nom_opt,gen0,123.456789")
	require.Contains(t, content, "-1,line_s_nom_opt,line0,50.000000")
	require.Contains(t, content, "0,generation,gen0,10.000000")
	require.Contains(t, content, "1,generation,gen0,20.000000")
}

func TestWriteDispatchCSVHandlesEmptySolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, lopfio.WriteDispatchCSV(path, &lopf.Solution{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "snapshot,kind,id,value\n", string(raw))
}
