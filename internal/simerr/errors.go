// Package simerr collects the error taxonomy shared by every layer of the
// cache simulator: configuration problems, malformed traces, unusable input
// files, and internal precondition violations. Callers distinguish them with
// errors.As rather than string-matching on Error().
package simerr

import "fmt"

// ConfigError reports an invalid or contradictory configuration value,
// whether it originated on the command line or from a programmatic caller.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s: %s", e.Field, e.Value, e.Reason)
}

// TraceFormatError reports a malformed line in a trace file.
type TraceFormatError struct {
	Line   int
	Source string
	Reason string
}

func (e *TraceFormatError) Error() string {
	return fmt.Sprintf("trace format error at line %d (%q): %s", e.Line, e.Source, e.Reason)
}

// ResourceError reports a problem with an external resource, e.g. the trace
// file being missing, empty, a directory, or not a regular file.
type ResourceError struct {
	Path   string
	Reason string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("cannot use %q: %s", e.Path, e.Reason)
}

// SimulationFault marks a precondition violation inside the simulation core
// (popping an empty replacement policy, an out-of-bounds cacheline offset,
// and so on). These never occur on valid configurations and valid traces;
// when one fires it indicates a bug in the simulator itself, not bad input.
//
// SimulationFault is raised via panic(SimulationFault{...}) and is only ever
// recovered at the process boundary (cmd/cachesim) or in tests that assert a
// precondition is enforced (require.Panics) — it must never be silently
// swallowed inside the simulation core.
type SimulationFault struct {
	Component string
	Reason    string
}

func (e SimulationFault) Error() string {
	return fmt.Sprintf("simulation fault in %s: %s", e.Component, e.Reason)
}
