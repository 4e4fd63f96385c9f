package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dominikw1/Cache-Simulator-sub000/internal/address"
	"github.com/dominikw1/Cache-Simulator-sub000/internal/policy"
)

func TestParseDefaultsToFullyAssociativeLRU(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, address.FullyAssociative, res.Config.Mapping)
	assert.Equal(t, policy.LRU, res.Config.PolicyKind)
	assert.True(t, res.Config.UseCache)
	assert.EqualValues(t, defaultCycleCap, res.Config.CycleCap)
}

func TestTracePathAcceptedAsFirstOrLastPositional(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"--cachelines", "4", "trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "trace.csv", res.Config.TracePath)
	assert.EqualValues(t, 4, res.Config.NumCachelines)

	res, _, err = Parse([]string{"trace.csv", "--cachelines", "4"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "trace.csv", res.Config.TracePath)
	assert.EqualValues(t, 4, res.Config.NumCachelines)
}

func TestDirectMappedFlagSelectsDirectMapping(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"--directmapped", "trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, address.Direct, res.Config.Mapping)
}

func TestConflictingMappingFlagsKeepsDefaultAndWarns(t *testing.T) {
	var out, errOut bytes.Buffer
	core, logs := observer.New(zap.WarnLevel)
	res, _, err := Parse([]string{"--directmapped", "--fullassociative", "trace.csv"}, &out, &errOut, zap.New(core).Sugar())
	require.NoError(t, err)
	assert.Equal(t, address.FullyAssociative, res.Config.Mapping)
	assert.Equal(t, 1, logs.FilterMessage("both --directmapped and --fullassociative given, keeping the default").Len())
}

func TestInvalidCachelineSizeReturnsConfigError(t *testing.T) {
	var out, errOut bytes.Buffer
	_, _, err := Parse([]string{"--cacheline-size", "17", "trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestMissingTracePathReturnsConfigError(t *testing.T) {
	var out, errOut bytes.Buffer
	_, _, err := Parse([]string{}, &out, &errOut, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestUseCacheNDisablesCache(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"--use-cache=n", "trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.False(t, res.Config.UseCache)
}

func TestLcyclesExtendsCap(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"--lcycles", "trace.csv"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.EqualValues(t, lcyclesCap, res.Config.CycleCap)
}

func TestHelpFlagShortCircuitsWithZeroExit(t *testing.T) {
	var out, errOut bytes.Buffer
	res, _, err := Parse([]string{"-h"}, &out, &errOut, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.True(t, res.Usage)
	assert.Equal(t, 0, res.ExitCode)
}
