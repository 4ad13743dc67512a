// Package lopfio writes a Solution out as a flat CSV ledger, in the
// teacher's WriteLedgerCSV idiom: one row per (snapshot, asset) value
// rather than the teacher's one-row-per-interval battery ledger, since a
// network solve has many independent per-asset series instead of a single
// battery's SOC/PNL trace.
package lopfio

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"lopf/internal/lopf"
)

// WriteDispatchCSV writes every per-snapshot operation value and every
// resolved investment decision in sol to path as a long-format CSV:
// snapshot, kind, id, value. Investment rows carry snapshot=-1 since they
// are not indexed by time.
func WriteDispatchCSV(path string, sol *lopf.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"snapshot", "kind", "id", "value"}); err != nil {
		return err
	}

	writeInvestment := func(kind string, m map[string]float64) error {
		for _, id := range sortedKeys(m) {
			if err := w.Write([]string{"-1", kind, id, fmtFloat(m[id])}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeInvestment("generator_p_nom_opt", sol.GPNomOpt); err != nil {
		return err
	}
	if err := writeInvestment("line_s_nom_opt", sol.LNSNomOpt); err != nil {
		return err
	}
	if err := writeInvestment("link_p_nom_opt", sol.LKPNomOpt); err != nil {
		return err
	}
	if err := writeInvestment("storage_unit_p_nom_opt", sol.SUPNomOpt); err != nil {
		return err
	}
	if err := writeInvestment("store_e_nom_opt", sol.STENomOpt); err != nil {
		return err
	}

	writeSeries := func(kind string, m map[string]map[int]float64) error {
		for _, id := range sortedKeys(m) {
			byT := m[id]
			ts := make([]int, 0, len(byT))
			for t := range byT {
				ts = append(ts, t)
			}
			sort.Ints(ts)
			for _, t := range ts {
				row := []string{strconv.Itoa(t), kind, id, fmtFloat(byT[t])}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := writeSeries("generation", sol.G); err != nil {
		return err
	}
	if err := writeSeries("line_flow", sol.LN); err != nil {
		return err
	}
	if err := writeSeries("link_flow", sol.LK); err != nil {
		return err
	}
	if err := writeSeries("soc", sol.SOC); err != nil {
		return err
	}
	if err := writeSeries("price", sol.Prices); err != nil {
		return err
	}

	return w.Error()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
