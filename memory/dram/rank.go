// Package dram models the per-rank DRAM latency oracle: either a naive
// row-buffer model, or a thin speculative-latency adaptor over an
// external cycle-accurate DRAM simulator.
package dram

import "github.com/zixian-cai/hwgc-soft/addr"

// RankModel is the interface a cache's backing rank must satisfy.
// transaction is a pure latency query from the cache's point of view,
// even though the DRAMSim3 adaptor beneath it is fundamentally stateful.
type RankModel interface {
	// Transaction executes a read or write to pa and returns the latency
	// in cycles observed by the requester.
	Transaction(pa addr.Physical, isWrite bool) int
}

// Row-buffer timing constants, in cycles, for the naive model. Derived
// from a DDR4-3200 -062Y speed bin: tRCD=tRP=tCAS=22 cycles, plus 4 cycles
// for the double-data-rate burst-of-8 transfer.
const (
	// RowHitLatency is charged when the accessed row is already open in
	// the target bank (tCAS + burst).
	RowHitLatency = 22 + 4
	// RowMissLatency is charged when the target bank's row buffer is
	// closed (tRCD + tCAS + burst; no precharge needed).
	RowMissLatency = 22 + 22 + 4
	// RowConflictLatency is charged when a different row is open in the
	// target bank and must be precharged first (tRP + tRCD + tCAS + burst).
	RowConflictLatency = 22 + 22 + 22 + 4
)
