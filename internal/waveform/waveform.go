// Package waveform implements the optional post-mortem signal recorder
// described in SPEC_FULL §4.11. The C++ reference emits a VCD file via
// SystemC's sc_trace machinery; since the wire format itself is explicitly
// not part of the contract, this implementation emits one JSON object per
// recorded Sample instead of reimplementing VCD.
package waveform

import (
	"encoding/json"
	"io"
)

// Sample is one recorded signal value at a given cycle and clock edge.
type Sample struct {
	Cycle     uint64 `json:"cycle"`
	Edge      string `json:"edge"` // "rising" or "falling"
	Component string `json:"component"`
	Signal    string `json:"signal"`
	Value     uint64 `json:"value"`
}

// Sink records Samples as newline-delimited JSON. A Sink built around
// io.Discard is a true no-op: callers never need to branch on whether
// tracing is enabled.
type Sink struct {
	enc *json.Encoder
}

// New wraps w as a waveform Sink. Pass io.Discard to disable recording.
func New(w io.Writer) *Sink {
	return &Sink{enc: json.NewEncoder(w)}
}

// Record appends one sample. Encoding errors are deliberately swallowed: a
// waveform sink is diagnostic tooling, never load-bearing for the
// simulation result, so a write failure here must not abort a run.
func (s *Sink) Record(sample Sample) {
	_ = s.enc.Encode(sample)
}
