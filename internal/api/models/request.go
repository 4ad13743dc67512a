package models

import "lopf/internal/network"

// SolveRequest is the request body for POST /api/v1/solve. A network is
// supplied either inline (Network) or by path (NetworkFile) on the solving
// host; inline is preferred for stateless clients.
type SolveRequest struct {
	NetworkFile string      `json:"network_file,omitempty"`
	Network     *NetworkDoc `json:"network,omitempty"`
	Config      SolveConfig `json:"config" binding:"required"`
}

// SolveConfig mirrors internal/config.Config's on-disk shape so the same
// YAML a CLI user writes can be pasted straight into a JSON request body.
type SolveConfig struct {
	Formulation    string `json:"formulation"`
	InvestmentType string `json:"investment_type"`

	Rescaling    bool               `json:"rescaling"`
	Coefficients map[string]float64 `json:"rescaling_coefficients,omitempty"`

	Blockmodel    bool   `json:"blockmodel"`
	Decomposition string `json:"decomposition,omitempty"` // "" or "benders"

	Iterative IterativeConfig `json:"iterative,omitempty"`
	Benders   BendersConfig   `json:"benders,omitempty"`
}

// IterativeConfig mirrors config.IterativeConfig.
type IterativeConfig struct {
	Iterations                 int       `json:"iterations,omitempty"`
	PostDiscretization         bool      `json:"post_discretization,omitempty"`
	SeqDiscretization          bool      `json:"seq_discretization,omitempty"`
	SeqDiscretizationThreshold float64   `json:"seq_discretization_threshold,omitempty"`
	DiscretizationThresholds   []float64 `json:"discretization_thresholds,omitempty"`
}

// BendersConfig mirrors config.BendersConfig.
type BendersConfig struct {
	SplitSubproblems bool    `json:"split_subproblems,omitempty"`
	IndividualCuts   bool    `json:"individualcuts,omitempty"`
	Tolerance        float64 `json:"tolerance,omitempty"`
	MIPGap           float64 `json:"mip_gap,omitempty"`
	BigM             float64 `json:"bigM,omitempty"`
	UpdateX          bool    `json:"update_x,omitempty"`
}

// NetworkDoc is the inline wire shape of a network.Network, mirroring
// internal/netio's YAML doc type for the JSON transport: a thin field-level
// wrapper, not a redefinition of the asset types themselves.
type NetworkDoc struct {
	SBase float64 `json:"s_base"`

	Buses             []network.Bus              `json:"buses"`
	Lines             []network.Line             `json:"lines"`
	Links             []network.Link             `json:"links"`
	Generators        []network.Generator        `json:"generators"`
	StorageUnits      []network.StorageUnit      `json:"storage_units"`
	Stores            []network.Store            `json:"stores"`
	Loads             []network.Load             `json:"loads"`
	Carriers          []network.Carrier          `json:"carriers"`
	GlobalConstraints []network.GlobalConstraint `json:"global_constraints"`
	Snapshots         []network.Snapshot         `json:"snapshots"`
}

// ToNetwork builds a network.Network from the wire doc.
func (d *NetworkDoc) ToNetwork() *network.Network {
	return &network.Network{
		SBase:             d.SBase,
		Buses:             d.Buses,
		Lines:             d.Lines,
		Links:             d.Links,
		Generators:        d.Generators,
		StorageUnits:      d.StorageUnits,
		Stores:            d.Stores,
		Loads:             d.Loads,
		Carriers:          d.Carriers,
		GlobalConstraints: d.GlobalConstraints,
		Snapshots:         d.Snapshots,
	}
}
