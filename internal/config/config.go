// Package config loads the on-disk run configuration: formulation,
// investment type, rescaling, decomposition and the iterative/Benders
// option groups (spec §6 Configuration).
package config

import (
	"errors"
	"fmt"
	"os"

	"lopf/internal/lopf"
	"lopf/internal/lopf/benders"
	"lopf/internal/lopf/iterative"
	"lopf/internal/rescale"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Formulation    string `yaml:"formulation"`
	InvestmentType string `yaml:"investment_type"`

	Rescaling    bool                `yaml:"rescaling"`
	Coefficients map[string]float64  `yaml:"rescaling_coefficients"`

	Blockmodel    bool   `yaml:"blockmodel"`
	Decomposition string `yaml:"decomposition"` // "" or "benders"

	Iterative IterativeConfig `yaml:"iterative"`
	Benders   BendersConfig   `yaml:"benders"`
}

// IterativeConfig mirrors spec §6's "Iterative" option group.
type IterativeConfig struct {
	Iterations                 int       `yaml:"iterations"`
	PostDiscretization         bool      `yaml:"post_discretization"`
	SeqDiscretization          bool      `yaml:"seq_discretization"`
	SeqDiscretizationThreshold float64   `yaml:"seq_discretization_threshold"`
	DiscretizationThresholds   []float64 `yaml:"discretization_thresholds"`
}

// BendersConfig mirrors spec §6's "Benders" option group.
type BendersConfig struct {
	SplitSubproblems bool    `yaml:"split_subproblems"`
	IndividualCuts   bool    `yaml:"individualcuts"`
	Tolerance        float64 `yaml:"tolerance"`
	MIPGap           float64 `yaml:"mip_gap"`
	BigM             float64 `yaml:"bigM"`
	UpdateX          bool    `yaml:"update_x"`
}

// Load reads, defaults and validates a YAML config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads a config without defaulting or validating it. Useful
// for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Formulation == "" {
		c.Formulation = string(lopf.AnglesLinear)
	}
	if c.InvestmentType == "" {
		c.InvestmentType = string(lopf.Continuous)
	}
	if c.Iterative.Iterations == 0 {
		c.Iterative.Iterations = iterative.DefaultOptions().Iterations
	}
	if c.Iterative.SeqDiscretizationThreshold == 0 {
		c.Iterative.SeqDiscretizationThreshold = iterative.DefaultOptions().SeqDiscretizationThreshold
	}
	if len(c.Iterative.DiscretizationThresholds) == 0 {
		c.Iterative.DiscretizationThresholds = iterative.DefaultOptions().DiscretizationThresholds
	}
	if c.Benders.Tolerance == 0 {
		c.Benders.Tolerance = benders.DefaultOptions().Tolerance
	}
	if c.Benders.MIPGap == 0 {
		c.Benders.MIPGap = benders.DefaultOptions().MIPGap
	}
	if c.Benders.BigM == 0 {
		c.Benders.BigM = benders.DefaultOptions().BigM
	}
}

// Validate checks the config is internally consistent before it reaches
// the builder, which re-checks the same combinations as part of
// lopf.Options.validate; failing fast here gives a config-file-shaped error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Decomposition != "" && c.Decomposition != "benders" {
		return fmt.Errorf("decomposition %q is not recognized (want \"\" or \"benders\")", c.Decomposition)
	}
	opts, err := c.LOPFOptions()
	if err != nil {
		return err
	}
	_ = opts
	return nil
}

// LOPFOptions translates the config into the builder's role-agnostic
// Options (Role and Snapshots are filled in by whichever runner drives the
// build).
func (c *Config) LOPFOptions() (lopf.Options, error) {
	opts := lopf.Options{
		Formulation:    lopf.Formulation(c.Formulation),
		InvestmentType: lopf.InvestmentType(c.InvestmentType),
		Role:           lopf.RoleMonolithic,
		Snapshots:      lopf.AllSnapshots(),
		Rescaling:      c.rescalingTable(),
		BigM:           c.Benders.BigM,
	}
	if err := opts.Validate(); err != nil {
		return lopf.Options{}, err
	}
	return opts, nil
}

func (c *Config) rescalingTable() rescale.Table {
	t := rescale.Default()
	t.Enabled = c.Rescaling
	for k, v := range c.Coefficients {
		t.Coefficients[rescale.Family(k)] = v
	}
	return t
}
