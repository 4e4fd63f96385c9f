// Command cachesim runs a cycle-accurate cache simulation against a trace
// file and reports cycles/hits/misses/gate-count, grounded on the C++
// reference's main.c and Simulation.cpp entrypoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/cli"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/engine"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/trace"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/waveform"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) (exitCode int) {
	log, atom, err := buildLogger()
	if err != nil {
		fmt.Fprintln(errOut, "failed to initialize logger:", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	defer func() {
		if r := recover(); r != nil {
			if fault, ok := r.(simerr.SimulationFault); ok {
				log.Errorw("simulation fault", "component", fault.Component, "reason", fault.Reason)
				exitCode = 1
				return
			}
			panic(r)
		}
	}()

	// flags are parsed once at the default level, then the logger is
	// re-leveled before any simulation work begins.
	parsed, _, err := cli.Parse(args, out, errOut, log)
	if err != nil {
		return 1
	}
	if parsed.Usage {
		return parsed.ExitCode
	}
	if level, ok := parseZapLevel(parsed.LogLevel); ok {
		atom.SetLevel(level)
	}

	reqs, err := trace.Load(parsed.Config.TracePath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	wave, closeWave := openWaveform(parsed.Config, errOut)
	if closeWave != nil {
		defer closeWave()
	}

	driver, err := engine.New(parsed.Config, wave, log)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	result := driver.Run(context.Background(), reqs)
	printResult(out, result, parsed.Config.Extended)
	return 0
}

func buildLogger() (*zap.SugaredLogger, *zap.AtomicLevel, error) {
	config := zap.NewDevelopmentConfig()
	config.Development = false
	logger, err := config.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger.Sugar(), &config.Level, nil
}

func parseZapLevel(s string) (zapcore.Level, bool) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}

func openWaveform(cfg engine.Config, errOut *os.File) (*waveform.Sink, func()) {
	if cfg.WaveformPath == "" {
		return waveform.New(io.Discard), nil
	}
	f, err := os.Create(cfg.WaveformPath)
	if err != nil {
		fmt.Fprintln(errOut, "could not open waveform file, continuing without tracing:", err)
		return waveform.New(io.Discard), nil
	}
	return waveform.New(f), func() { f.Close() }
}

type jsonResult struct {
	Cycles             uint64 `json:"cycles"`
	Hits               uint64 `json:"hits"`
	Misses             uint64 `json:"misses"`
	PrimitiveGateCount uint64 `json:"primitive_gate_count"`

	InstrHits             *uint64 `json:"instr_hits,omitempty"`
	InstrMisses           *uint64 `json:"instr_misses,omitempty"`
	InstrGateCount        *uint64 `json:"instr_gate_count,omitempty"`
	WriteBufferRAMRequest *uint64 `json:"write_buffer_ram_requests,omitempty"`
}

func printResult(out *os.File, res engine.Result, extended bool) {
	cyclesStr := fmt.Sprint(res.Cycles)
	if res.Cycles == math.MaxUint64 {
		cyclesStr = "DID_NOT_FINISH"
	}
	fmt.Fprintf(out, "cycles=%s hits=%d misses=%d primitive_gate_count=%d\n", cyclesStr, res.Hits, res.Misses, res.PrimitiveGateCount)
	if !extended {
		return
	}
	jr := jsonResult{
		Cycles:                res.Cycles,
		Hits:                  res.Hits,
		Misses:                res.Misses,
		PrimitiveGateCount:    res.PrimitiveGateCount,
		InstrHits:             &res.InstrHits,
		InstrMisses:           &res.InstrMisses,
		InstrGateCount:        &res.InstrGateCount,
		WriteBufferRAMRequest: &res.WriteBufferRAMRequest,
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
