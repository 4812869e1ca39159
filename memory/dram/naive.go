package dram

import "github.com/zixian-cai/hwgc-soft/addr"

// bankKey identifies one (bank-group, bank) pair within a rank.
type bankKey struct {
	group, bank uint8
}

// Naive is a fixed-latency row-buffer model: one (bank-group, bank) state
// machine per bank, tracking only the currently open row. Writes are
// posted: they update bank state but always report a 1-cycle latency, per
// spec §4.5.
type Naive struct {
	open map[bankKey]uint16
	hasOpen map[bankKey]bool
}

// NewNaive creates a fresh Naive rank model with every bank closed.
func NewNaive() *Naive {
	return &Naive{
		open:    make(map[bankKey]uint16),
		hasOpen: make(map[bankKey]bool),
	}
}

// Transaction implements RankModel.
func (n *Naive) Transaction(pa addr.Physical, isWrite bool) int {
	f := addr.Decode(pa)
	key := bankKey{group: f.BankGroup, bank: f.Bank}

	var latency int
	switch {
	case !n.hasOpen[key]:
		latency = RowMissLatency
	case n.open[key] == f.Row:
		latency = RowHitLatency
	default:
		latency = RowConflictLatency
	}

	n.open[key] = f.Row
	n.hasOpen[key] = true

	if isWrite {
		return 1
	}
	return latency
}
