package lopf

import "fmt"

// ConfigurationError covers incompatible option combinations caught before
// any solver call (spec §7): these abort immediately rather than attempting
// to build a nonsensical model.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("lopf: configuration error: %s", e.Reason)
}

// UnsupportedFeatureError covers a feature the caller asked for that this
// path genuinely cannot honor (e.g. extendable lines absent from a
// fixed-only path). Distinct from ConfigurationError because it is raised
// while walking the network, not from option validation alone.
type UnsupportedFeatureError struct {
	Reason string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("lopf: unsupported: %s", e.Reason)
}

func configErr(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
