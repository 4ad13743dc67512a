// Package netio is a thin YAML reader that produces an internal/network.Network
// from an on-disk file. It is deliberately outside the LOPF core (spec §1
// Non-goals: parsing the on-disk network dataset is an external
// collaborator's concern) and exists only so cmd/ and tests have something
// concrete to load.
package netio

import (
	"fmt"
	"os"

	"lopf/internal/network"

	"gopkg.in/yaml.v3"
)

// doc mirrors network.Network's shape for YAML unmarshaling; a separate
// type keeps the wire format decoupled from the in-memory model's own
// field layout.
type doc struct {
	SBase float64 `yaml:"s_base"`

	Buses             []network.Bus               `yaml:"buses"`
	Lines             []network.Line              `yaml:"lines"`
	Links             []network.Link              `yaml:"links"`
	Generators        []network.Generator         `yaml:"generators"`
	StorageUnits      []network.StorageUnit       `yaml:"storage_units"`
	Stores            []network.Store             `yaml:"stores"`
	Loads             []network.Load              `yaml:"loads"`
	Carriers          []network.Carrier           `yaml:"carriers"`
	GlobalConstraints []network.GlobalConstraint  `yaml:"global_constraints"`
	Snapshots         []network.Snapshot          `yaml:"snapshots"`
}

// Load reads a network YAML file and validates the result before returning
// it, so callers never hold a structurally invalid Network.
func Load(path string) (*network.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netio: %w", err)
	}
	var d doc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("netio: parsing %s: %w", path, err)
	}

	net := &network.Network{
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
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("netio: %s: %w", path, err)
	}
	return net, nil
}

// Save writes net back out as YAML, mainly for cmd/demo to emit the network
// it builds in code.
func Save(path string, net *network.Network) error {
	d := doc{
		SBase:             net.SBase,
		Buses:             net.Buses,
		Lines:             net.Lines,
		Links:             net.Links,
		Generators:        net.Generators,
		StorageUnits:      net.StorageUnits,
		Stores:            net.Stores,
		Loads:             net.Loads,
		Carriers:          net.Carriers,
		GlobalConstraints: net.GlobalConstraints,
		Snapshots:         net.Snapshots,
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("netio: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
