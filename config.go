// Package corezero is the top-level entry point for the search core: it
// wires a Tree, an Evaluator, a Position Cache and the mcts package's
// Manager into a Session a caller drives move by move.
package corezero

import (
	"time"

	"github.com/kestrelchess/corezero/mcts"
)

// Config holds every tunable of a Session (spec §6). It follows the same
// Config/DefaultConfig/IsValid shape used throughout this codebase's
// lower layers.
type Config struct {
	// FlowDirectOverlapped selects dual-lane overlapped selection
	// (§6 "flow_direct_overlapped"). When false, search runs one lane.
	FlowDirectOverlapped bool

	// BatchSize is the selector's target batch size, or the starting
	// size when SmartSizeBatches is enabled.
	BatchSize int

	// SmartSizeBatches lets the Batch Params Manager resize batches to
	// the running average of the batch sizes sent to the evaluator (§6
	// "smart_size_batches"); see BatchParamsManager.Size.
	SmartSizeBatches bool

	// UseDynamicVLoss names a virtual-loss magnitude that scales with
	// tree size instead of the fixed 1-per-visit scheme this core
	// implements (§6 "use_dynamic_vloss"). No dynamic scheme is
	// implemented, and IsValid rejects a Config with this set to true.
	UseDynamicVLoss bool

	// CacheMode selects the Position Cache's read/write behavior.
	CacheMode mcts.CacheMode
	// CacheCapacity is the approximate number of entries to retain.
	CacheCapacity int

	// SecondaryNetworkID, when non-empty, means a second Evaluator is
	// configured as an advisory second opinion (§6
	// "secondary_network_id"). It is informational only here; the
	// caller supplies the actual secondary Evaluator to New.
	SecondaryNetworkID string

	// RootPreloadDepth is the number of serial lane-0 batches the Search
	// Manager runs before normal search begins (§6 "root_preload_depth");
	// see Flow.Preload. It is a batch count, not a ply depth: it does not
	// force every root child to be expanded.
	RootPreloadDepth int

	// FutilityPruningStopSearchEnabled lets the Search Manager end a
	// move's search early once the leader's visit lead exceeds the square
	// root of the node store's free capacity; see Manager.isFutile.
	FutilityPruningStopSearchEnabled bool

	// ReusePositionEvaluationsFromOtherTree authorizes peer-tree cache
	// reads when BindPeer is called (§6, §4.10). It does not perform
	// the binding itself; it only gates whether Session.BindPeer is
	// allowed to proceed.
	ReusePositionEvaluationsFromOtherTree bool

	// ThresholdFractionNodesReusable is the minimum fraction of the
	// previous search's root visits that must survive a re-root for
	// SearchContinue to keep the retained subtree, rather than starting
	// fresh (§4.9). Default 0.05, per the design note's worked example.
	ThresholdFractionNodesReusable float64

	CPuct            float32
	FPUValue         float32
	DirichletAlpha   float64
	DirichletEpsilon float64

	ProgressInterval time.Duration

	FirstMoveTemperature float32

	NodeCapacity  int
	ChildCapacity int
}

// DefaultConfig returns a Config with conservative, documented defaults.
func DefaultConfig() Config {
	return Config{
		FlowDirectOverlapped:                  true,
		BatchSize:                              32,
		SmartSizeBatches:                       false,
		CacheMode:                              mcts.CacheReadWrite,
		CacheCapacity:                          1 << 20,
		RootPreloadDepth:                       0,
		FutilityPruningStopSearchEnabled:       true,
		ReusePositionEvaluationsFromOtherTree:  false,
		ThresholdFractionNodesReusable:         0.05,
		CPuct:                                  2.5,
		FPUValue:                               -1,
		DirichletAlpha:                         0.3,
		DirichletEpsilon:                       0.25,
		ProgressInterval:                       100 * time.Millisecond,
		NodeCapacity:                           1 << 22,
		ChildCapacity:                          1 << 24,
	}
}

// IsValid reports whether c can be used to start a session.
func (c Config) IsValid() bool {
	if c.UseDynamicVLoss {
		return false
	}
	if c.BatchSize <= 0 || c.NodeCapacity <= 1 || c.ChildCapacity <= 1 {
		return false
	}
	if c.ThresholdFractionNodesReusable < 0 || c.ThresholdFractionNodesReusable > 1 {
		return false
	}
	if c.DirichletEpsilon < 0 || c.DirichletEpsilon > 1 {
		return false
	}
	return true
}

func (c Config) selectorConfig() mcts.SelectorConfig {
	return mcts.SelectorConfig{
		CPuct:            c.CPuct,
		FPUValue:         c.FPUValue,
		DirichletAlpha:   c.DirichletAlpha,
		DirichletEpsilon: c.DirichletEpsilon,
		RootPreloadDepth: c.RootPreloadDepth,
	}
}

func (c Config) flowConfig() mcts.FlowConfig {
	return mcts.FlowConfig{
		Overlapped:       c.FlowDirectOverlapped,
		BatchSize:        c.BatchSize,
		SmartSizeBatches: c.SmartSizeBatches,
	}
}

func (c Config) managerConfig() mcts.ManagerConfig {
	return mcts.ManagerConfig{
		Flow:                   c.flowConfig(),
		Sel:                    c.selectorConfig(),
		Limit:                  mcts.DefaultLimitManager{BaseFraction: 0.05, ThinkHarderMax: 2.5},
		ProgressInterval:       c.ProgressInterval,
		FutilityPruningEnabled: c.FutilityPruningStopSearchEnabled,
		FirstMoveTemperature:   c.FirstMoveTemperature,
	}
}
