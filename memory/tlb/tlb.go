// Package tlb implements a set-associative LRU translation lookaside
// buffer, embedded by memory/cache to resolve the physical tag on a TLB
// miss via memory/ptw.
//
// The design is adapted from the teacher's mem/vm/tlb package: that
// component drives lookups and evictions through request/response ports
// on a message-passing bus; this one is called directly by the cache on
// every access, matching the synchronous, single-threaded cycle model
// this simulator uses throughout.
package tlb

import (
	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
)

// Dimensions returns (entries, ways) for a DTLB entry sourced from a real
// CPU, per page size.
func dimensions(pageSize ptw.PageSize) (entries, ways int) {
	switch pageSize {
	case ptw.FourKB:
		return 64, 4
	case ptw.TwoMB, ptw.FourMB:
		return 32, 4
	case ptw.OneGB:
		// Fully associative: one set, ways == entries.
		return 8, 8
	default:
		panic("tlb: unknown page size")
	}
}

// Stats holds split read/write hit/miss counters.
type Stats struct {
	ReadHits, ReadMisses   int
	WriteHits, WriteMisses int
}

// TotalHits and TotalMisses are convenience totals used by the run's
// TLB-hit-rate statistic (see gc.computeStats).
func (s Stats) TotalHits() int   { return s.ReadHits + s.WriteHits }
func (s Stats) TotalMisses() int { return s.ReadMisses + s.WriteMisses }

// entry is one way of one set: a virtual-page-number -> physical-page-
// number mapping plus an LRU recency counter.
type entry struct {
	valid bool
	vpn   uint64
	ppn   uint64
	seq   uint64
}

// set is one associative set of ways, evicted LRU.
type set struct {
	ways []entry
	seq  uint64
}

func newSet(ways int) *set {
	return &set{ways: make([]entry, ways)}
}

func (s *set) lookup(vpn uint64) (ppn uint64, found bool) {
	for i := range s.ways {
		if s.ways[i].valid && s.ways[i].vpn == vpn {
			s.seq++
			s.ways[i].seq = s.seq
			return s.ways[i].ppn, true
		}
	}
	return 0, false
}

func (s *set) insert(vpn, ppn uint64) {
	// Prefer an invalid way; otherwise evict the LRU way.
	victim := 0
	for i := range s.ways {
		if !s.ways[i].valid {
			victim = i
			break
		}
		if s.ways[i].seq < s.ways[victim].seq {
			victim = i
		}
	}

	s.seq++
	s.ways[victim] = entry{valid: true, vpn: vpn, ppn: ppn, seq: s.seq}
}

// TLB is a set-associative LRU translation lookaside buffer for a single
// page size.
type TLB struct {
	pageSize ptw.PageSize
	walker   ptw.Walker
	sets     []*set

	Stats Stats
}

// New creates a TLB dimensioned for pageSize per the real-CPU DTLB table.
func New(pageSize ptw.PageSize) *TLB {
	entries, ways := dimensions(pageSize)
	numSets := entries / ways

	t := &TLB{
		pageSize: pageSize,
		sets:     make([]*set, numSets),
	}
	for i := range t.sets {
		t.sets[i] = newSet(ways)
	}

	return t
}

// PageSize returns the page size this TLB is dimensioned for.
func (t *TLB) PageSize() ptw.PageSize {
	return t.pageSize
}

// setIndex computes the set index from the page-aligned vpn (the virtual
// address with its page-offset bits cleared): shift down to the page
// index, then mod by the number of sets.
func (t *TLB) setIndex(vpn uint64) int {
	return int((vpn >> t.pageSize.Shift()) % uint64(len(t.sets)))
}

// Lookup attempts a translation, updating recency on hit.
func (t *TLB) Lookup(va addr.Virtual, isWrite bool) (pa addr.Physical, hit bool) {
	vpn := t.pageSize.VPN(va)
	s := t.sets[t.setIndex(vpn)]

	ppn, found := s.lookup(vpn)
	if found {
		if isWrite {
			t.Stats.WriteHits++
		} else {
			t.Stats.ReadHits++
		}
		offset := uint64(va) & t.pageSize.Mask()
		return addr.Physical(ppn | offset), true
	}

	if isWrite {
		t.Stats.WriteMisses++
	} else {
		t.Stats.ReadMisses++
	}
	return 0, false
}

// Insert installs a newly walked translation, possibly evicting the LRU
// entry of its set.
func (t *TLB) Insert(va addr.Virtual, pa addr.Physical) {
	vpn := t.pageSize.VPN(va)
	ppn := uint64(pa) &^ t.pageSize.Mask()
	t.sets[t.setIndex(vpn)].insert(vpn, ppn)
}

// Translate resolves va to a physical address, walking the page table on
// a miss and installing the result. It returns the physical address, the
// cycles spent (0 on a TLB hit, the PTW latency on a miss) and whether the
// TLB hit.
func (t *TLB) Translate(va addr.Virtual, isWrite bool) (pa addr.Physical, latency int, hit bool) {
	if pa, hit := t.Lookup(va, isWrite); hit {
		return pa, 0, true
	}

	pa, latency = t.walker.Translate(va, t.pageSize)
	t.Insert(va, pa)
	return pa, latency, false
}
