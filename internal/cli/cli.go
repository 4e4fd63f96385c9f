// Package cli owns flag definitions, defaulting, and SimulationConfig
// assembly, in the style of the example corpus's pflag-based command
// entrypoints: explicit io.Writer sinks, a *zap.SugaredLogger for
// diagnostics, no package-level globals. It never touches cache internals
// directly — simulation is delegated to internal/engine and trace parsing
// to internal/trace.
package cli

import (
	"fmt"
	"io"
	"math"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/address"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/engine"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/policy"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/simerr"
)

const (
	defaultCycleCap     = 100000
	lcyclesCap          = math.MaxUint32
	defaultCachelineSz  = 64
	defaultNumLines     = 256
	defaultCacheLatency = 2
	defaultMemLatency   = 100
)

// Options is the raw, unvalidated result of flag parsing.
type Options struct {
	TracePath string

	Cycles  uint64
	LCycles bool

	DirectMapped     bool
	FullyAssociative bool

	CachelineSize uint32
	Cachelines    uint32
	CacheLatency  uint32
	MemoryLatency uint32

	LRU    bool
	FIFO   bool
	Random bool

	UseCache string

	WaveformPath string
	Extended     bool
	StrictRaw    bool
	Seed         int64
	SeedSet      bool
	LogLevel     string

	Help bool
}

// ParseResult carries either a usable configuration or an exit code for the
// caller (cmd/cachesim) to return immediately.
type ParseResult struct {
	Config   engine.Config
	LogLevel string
	ExitCode int
	Usage    bool
}

// Parse parses args (os.Args[1:]) into a resolved engine.Config, writing
// usage/errors to errOut. The trace path is accepted as either the first or
// last positional argument, matching the C++ reference's
// parse_arguments/check_file in ArgParsing.c.
func Parse(args []string, out, errOut io.Writer, log *zap.SugaredLogger) (ParseResult, []string, error) {
	fs := flag.NewFlagSet("cachesim", flag.ContinueOnError)
	fs.SetOutput(errOut)

	opts := &Options{}
	fs.Uint64VarP(&opts.Cycles, "cycles", "c", defaultCycleCap, "cycle cap")
	fs.BoolVar(&opts.LCycles, "lcycles", false, "extend the cycle cap to 2^32-1")
	fs.BoolVar(&opts.DirectMapped, "directmapped", false, "select direct mapping")
	fs.BoolVar(&opts.FullyAssociative, "fullassociative", true, "select fully associative mapping")
	fs.Uint32Var(&opts.CachelineSize, "cacheline-size", defaultCachelineSz, "cacheline size in bytes, multiple of 16")
	fs.Uint32Var(&opts.Cachelines, "cachelines", defaultNumLines, "number of cachelines; 0 disables the cache")
	fs.Uint32Var(&opts.CacheLatency, "cache-latency", defaultCacheLatency, "cache latency in cycles")
	fs.Uint32Var(&opts.MemoryLatency, "memory-latency", defaultMemLatency, "memory latency in cycles")
	fs.BoolVar(&opts.LRU, "lru", false, "select LRU replacement")
	fs.BoolVar(&opts.FIFO, "fifo", false, "select FIFO replacement")
	fs.BoolVar(&opts.Random, "random", false, "select random replacement")
	fs.StringVar(&opts.UseCache, "use-cache", "Y", "bypass the cache when 'n'")
	fs.StringVar(&opts.WaveformPath, "tf", "", "emit a waveform trace to this path")
	fs.BoolVar(&opts.Extended, "extended", false, "use the extended reporting path")
	fs.BoolVar(&opts.StrictRaw, "strict-raw", false, "every read waits for an empty write buffer")
	var seed int64
	fs.Int64Var(&seed, "seed", 0, "seed for the Random replacement policy's PRNG")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "zap log level: debug, info, warn, error")
	fs.BoolVarP(&opts.Help, "help", "h", false, "print usage")

	if err := fs.Parse(args); err != nil {
		return ParseResult{ExitCode: 2, Usage: true}, nil, nil
	}
	if opts.Help {
		printUsage(out, fs)
		return ParseResult{ExitCode: 0, Usage: true}, nil, nil
	}
	opts.SeedSet = fs.Changed("seed")
	opts.Seed = seed
	// --fullassociative defaults to true; it only conflicts with
	// --directmapped when it was given explicitly.
	opts.FullyAssociative = opts.FullyAssociative && fs.Changed("fullassociative")

	positional := fs.Args()
	tracePath, err := resolveTracePath(positional)
	if err != nil {
		fmt.Fprintln(errOut, err)
		printUsage(errOut, fs)
		return ParseResult{ExitCode: 1, Usage: true}, nil, err
	}
	opts.TracePath = tracePath

	cfg, err := opts.resolve(log)
	if err != nil {
		fmt.Fprintln(errOut, err)
		printUsage(errOut, fs)
		return ParseResult{ExitCode: 1, Usage: true}, nil, err
	}

	return ParseResult{Config: cfg, LogLevel: opts.LogLevel}, positional, nil
}

func resolveTracePath(positional []string) (string, error) {
	if len(positional) == 0 {
		return "", &simerr.ConfigError{Field: "trace_path", Value: "", Reason: "a trace file path is required"}
	}
	return positional[len(positional)-1], nil
}

func (o *Options) resolve(log *zap.SugaredLogger) (engine.Config, error) {
	mapping := address.FullyAssociative
	if o.DirectMapped && o.FullyAssociative {
		if log != nil {
			log.Warnw("both --directmapped and --fullassociative given, keeping the default", "default", "fullassociative")
		}
	} else if o.DirectMapped {
		mapping = address.Direct
	}

	policyCount := boolCount(o.LRU, o.FIFO, o.Random)
	policyKind := policy.LRU
	policyExplicit := policyCount == 1
	if policyCount > 1 {
		if log != nil {
			log.Warnw("multiple replacement policy flags given, keeping the default", "default", "lru")
		}
	} else {
		switch {
		case o.FIFO:
			policyKind = policy.FIFO
		case o.Random:
			policyKind = policy.Random
		}
	}

	if o.CachelineSize == 0 || o.CachelineSize%16 != 0 {
		return engine.Config{}, &simerr.ConfigError{Field: "cacheline-size", Value: fmt.Sprint(o.CachelineSize), Reason: "must be a positive multiple of 16"}
	}
	if o.CacheLatency == 0 {
		return engine.Config{}, &simerr.ConfigError{Field: "cache-latency", Value: "0", Reason: "must be at least 1"}
	}
	if o.MemoryLatency == 0 {
		return engine.Config{}, &simerr.ConfigError{Field: "memory-latency", Value: "0", Reason: "must be at least 1"}
	}

	cycleCap := o.Cycles
	if o.LCycles {
		cycleCap = lcyclesCap
	}
	if cycleCap == 0 {
		return engine.Config{}, &simerr.ConfigError{Field: "cycles", Value: "0", Reason: "must be at least 1"}
	}

	useCache := o.UseCache != "n" && o.UseCache != "N"

	seed := o.Seed
	if !o.SeedSet {
		seed = defaultSeed()
	}

	return engine.Config{
		NumCachelines:         o.Cachelines,
		CachelineSize:         o.CachelineSize,
		CacheLatency:          o.CacheLatency,
		MemoryLatency:         o.MemoryLatency,
		Mapping:               mapping,
		PolicyKind:            policyKind,
		PolicyExplicit:        policyExplicit,
		Seed:                  seed,
		UseCache:              useCache,
		CycleCap:              cycleCap,
		Extended:              o.Extended,
		StrictReadAfterWrites: o.StrictRaw,
		TracePath:             o.TracePath,
		WaveformPath:          o.WaveformPath,
	}, nil
}

// defaultSeed derives a seed from wall-clock time when --seed is not given,
// matching the "time-derived" default in SPEC_FULL §6.
func defaultSeed() int64 {
	return time.Now().UnixNano()
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: cachesim [flags] <trace-file>")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
