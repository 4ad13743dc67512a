package lopf_test

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/solver/refsolver"
)

func TestBuildLogsNoticeAndProceedsForCommitableGenerators(t *testing.T) {
	net := &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}},
		Generators: []network.Generator{
			{ID: "peaker", Bus: "bus0", Commitable: true, PNom: 100, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus0", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	m, err := lopf.Build(net, refsolver.New(), opts)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Contains(t, logs.String(), "peaker")
	require.Contains(t, logs.String(), "commitable=true")
}
