package dram

import "github.com/zixian-cai/hwgc-soft/addr"

// ExternalBackend is the boundary to a cycle-accurate external DRAM
// simulator (e.g. DRAMSim3). It is fundamentally stateful: the only way
// to learn a transaction's latency is to actually step it to completion.
// This simulator never implements ExternalBackend itself — it is an
// external collaborator, wired in only through this interface.
type ExternalBackend interface {
	// WillAccept reports whether the backend's command queue has room for
	// a transaction to pa right now.
	WillAccept(pa addr.Physical, isWrite bool) bool
	// Add enqueues the transaction. Only valid after WillAccept returns
	// true for the same (pa, isWrite).
	Add(pa addr.Physical, isWrite bool)
	// Tick advances the backend by one of its own clock cycles.
	Tick()
	// Done reports whether the previously added transaction to pa has
	// completed.
	Done(pa addr.Physical, isWrite bool) bool
	// Geometry reports the backend's configured DDR4 geometry, for the
	// startup consistency check against addr's layout.
	Geometry() Geometry
}

// Safety bounds on the number of backend clock ticks spent waiting for a
// transaction to be accepted or to complete. Exceeding either indicates
// the external backend is wedged, which is a fatal invariant violation
// per spec §7 — never expected in this simulator's single-in-flight-per-
// rank access model.
const (
	AcceptanceSafetyBound  = 1_000_000
	CompletionSafetyBound = 10_000_000
)

type pendingKey struct {
	pa      addr.Physical
	isWrite bool
}

// DRAMSim3Adaptor is the speculative-latency adaptor described in spec
// §4.5/§9: it bridges RankModel's query-style "how long?" interface onto
// an ExternalBackend that can only answer by actually running the
// transaction. Query runs the transaction once and memoizes its observed
// latency; Execute retrieves (and purges) the memoized value without
// stepping the backend again. Transaction composes the two, so ordinary
// RankModel callers never need to know the adaptor exists.
type DRAMSim3Adaptor struct {
	backend ExternalBackend
	pending map[pendingKey]int
}

// NewDRAMSim3Adaptor wraps backend. The caller is responsible for having
// already validated backend.Geometry() against dram.Ours() at startup.
func NewDRAMSim3Adaptor(backend ExternalBackend) *DRAMSim3Adaptor {
	return &DRAMSim3Adaptor{
		backend: backend,
		pending: make(map[pendingKey]int),
	}
}

// Query runs pa's transaction through the backend to completion and
// memoizes the observed latency, if it has not already been memoized.
func (a *DRAMSim3Adaptor) Query(pa addr.Physical, isWrite bool) int {
	key := pendingKey{pa, isWrite}
	if lat, ok := a.pending[key]; ok {
		return lat
	}

	ticks := 0
	for {
		if a.backend.WillAccept(pa, isWrite) {
			a.backend.Add(pa, isWrite)
			break
		}
		a.backend.Tick()
		ticks++
		if ticks > AcceptanceSafetyBound {
			panic("dram: external backend never accepted transaction")
		}
	}

	for {
		a.backend.Tick()
		ticks++
		if a.backend.Done(pa, isWrite) {
			break
		}
		if ticks > CompletionSafetyBound {
			panic("dram: external backend never completed transaction")
		}
	}

	a.pending[key] = ticks
	return ticks
}

// Execute returns the latency memoized by Query for (pa, isWrite) and
// purges it, running Query first if it has not been called yet. A caller
// that invokes Execute twice for the same pair without an intervening
// Query will re-run the transaction through the backend — by spec, this
// is never expected to happen in this simulator's single-in-flight-per-
// rank access model, and is treated as a bug rather than guarded against.
func (a *DRAMSim3Adaptor) Execute(pa addr.Physical, isWrite bool) int {
	lat := a.Query(pa, isWrite)
	delete(a.pending, pendingKey{pa, isWrite})
	return lat
}

// Transaction implements RankModel by composing Query and Execute.
func (a *DRAMSim3Adaptor) Transaction(pa addr.Physical, isWrite bool) int {
	return a.Execute(pa, isWrite)
}
