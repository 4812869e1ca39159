// Package gc implements the NMPGC orchestrator: the top-level simulator
// that owns every processor, the network, and the run's statistics, and
// drives the global cycle loop to quiescence (spec §4.10).
package gc

import (
	"fmt"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
)

// TopologyKind selects one of the three fabric layouts of spec §4.6.
type TopologyKind int

const (
	Line TopologyKind = iota
	Ring
	FullyConnected
)

// String implements fmt.Stringer.
func (k TopologyKind) String() string {
	switch k {
	case Line:
		return "Line"
	case Ring:
		return "Ring"
	case FullyConnected:
		return "FullyConnected"
	default:
		return "Unknown"
	}
}

// Algorithm selects the simulation algorithm run over the snapshot.
// IdealTraceUtilization is named by spec.md §6's CLI surface as an
// external collaborator's alternate mode; this repository implements
// only NMPGC, the distributed marking core.
type Algorithm int

const (
	NMPGC Algorithm = iota
	IdealTraceUtilization
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case NMPGC:
		return "NMPGC"
	case IdealTraceUtilization:
		return "IdealTraceUtilization"
	default:
		return "Unknown"
	}
}

// RootDistribution resolves spec.md §9's open question about how the
// root set is seeded across processors, deterministically per run.
type RootDistribution int

const (
	// SingleSeed hands the entire root set, in snapshot order, to
	// processor 0.
	SingleSeed RootDistribution = iota
	// HomeRank hands each root to the processor owning the rank
	// AddressMapping assigns it to.
	HomeRank
)

// String implements fmt.Stringer.
func (r RootDistribution) String() string {
	switch r {
	case SingleSeed:
		return "SingleSeed"
	case HomeRank:
		return "HomeRank"
	default:
		return "Unknown"
	}
}

// ObjectModelKind selects the heap.ObjectModel implementation.
type ObjectModelKind int

const (
	OpenJDK ObjectModelKind = iota
	Bidirectional
)

// String implements fmt.Stringer.
func (o ObjectModelKind) String() string {
	switch o {
	case OpenJDK:
		return "OpenJDK"
	case Bidirectional:
		return "Bidirectional"
	default:
		return "Unknown"
	}
}

// DefaultSafetyBound is the maximum number of global ticks the
// orchestrator will run before treating the simulation as
// non-terminating, a fatal invariant violation per spec.md §7.
const DefaultSafetyBound = 100_000_000

// Config is the fully resolved, validated configuration for one
// simulation run, assembled by the CLI layer from flags and `.env`
// defaults (see cmd/hwgc-soft).
type Config struct {
	SnapshotPaths []string

	Processors       int
	ObjectModel      ObjectModelKind
	Algorithm        Algorithm
	Topology         TopologyKind
	PageSize         ptw.PageSize
	RootDistribution RootDistribution

	UseDRAMSim3        bool
	DRAMSim3ConfigPath string

	StatsDBPath string
	SafetyBound int
}

// DefaultConfig returns a Config with spec.md §6's documented defaults:
// FourMB pages, Line topology, the naive DRAM model, single-seed roots.
func DefaultConfig() Config {
	return Config{
		Processors:       1,
		ObjectModel:      OpenJDK,
		Algorithm:        NMPGC,
		Topology:         Line,
		PageSize:         ptw.FourMB,
		RootDistribution: SingleSeed,
		SafetyBound:      DefaultSafetyBound,
	}
}

// Validate checks c for the startup-fatal configuration errors of
// spec.md §7: an empty snapshot list, a processor count outside
// [1, RanksPerSystem], or an unrecognized algorithm (only NMPGC is
// implemented by this repository's core).
func (c Config) Validate() error {
	if len(c.SnapshotPaths) == 0 {
		return fmt.Errorf("gc: at least one snapshot path is required")
	}
	if c.Processors < 1 || c.Processors > int(addr.RanksPerSystem) {
		return fmt.Errorf("gc: processor count %d must be in [1, %d]", c.Processors, addr.RanksPerSystem)
	}
	if c.Algorithm != NMPGC {
		return fmt.Errorf("gc: algorithm %v is an external collaborator, not implemented by this core", c.Algorithm)
	}
	if c.SafetyBound <= 0 {
		return fmt.Errorf("gc: safety bound must be positive")
	}
	return nil
}
