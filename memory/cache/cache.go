// Package cache implements the VIPT (virtually indexed, physically
// tagged) data cache described in spec §4.4: set-associative and
// fully-associative variants, each embedding its own TLB and backed by a
// DDR4 rank model. Adapted from the teacher's mem/cache/writethrough
// package, which drives an equivalent write-through/write-allocate
// protocol over message-passing ports; this version is called directly
// by a single-threaded processor, one access per cycle-step.
package cache

import (
	"fmt"
	"math/bits"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/dram"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
	"github.com/zixian-cai/hwgc-soft/memory/tlb"
)

// HitLatency is the fixed cost of a cache hit (and, by the write-through
// posted-write rule, of a write regardless of hit/miss), in cycles.
const HitLatency = 4

// LogLineSize and LineSize describe the cache's line granularity: a
// 64-byte line, matching one DDR4 burst-of-8 transfer.
const (
	LogLineSize = 6
	LineSize    = 1 << LogLineSize
)

// Stats holds split read/write hit/miss counters for a cache instance.
type Stats struct {
	ReadHits, ReadMisses   int
	WriteHits, WriteMisses int
}

// Cache is the interface shared by the set-associative and
// fully-associative variants.
type Cache interface {
	// Read loads the word at va, returning the access latency in cycles.
	Read(va addr.Virtual) int
	// Write stores the word at va, returning the access latency in
	// cycles. Write-through, write-allocate: every write reaches the
	// rank model, and a write miss installs the line.
	Write(va addr.Virtual) int
	Stats() Stats
	TLB() *tlb.TLB
}

// lruSet is one associative set of cache lines, keyed by physical line
// number, evicted LRU.
type lruSet struct {
	lines []uint64
	valid []bool
	seq   []uint64
	clock uint64
}

func newLRUSet(ways int) *lruSet {
	return &lruSet{
		lines: make([]uint64, ways),
		valid: make([]bool, ways),
		seq:   make([]uint64, ways),
	}
}

func (s *lruSet) probe(line uint64) bool {
	for i := range s.lines {
		if s.valid[i] && s.lines[i] == line {
			s.clock++
			s.seq[i] = s.clock
			return true
		}
	}
	return false
}

// install allocates line, evicting the LRU way if every way is occupied.
// It does not check whether line is already present; callers call it
// only after a miss.
func (s *lruSet) install(line uint64) {
	victim := 0
	for i := range s.lines {
		if !s.valid[i] {
			victim = i
			break
		}
		if s.seq[i] < s.seq[victim] {
			victim = i
		}
	}
	s.clock++
	s.lines[victim] = line
	s.valid[victim] = true
	s.seq[victim] = s.clock
}

func lineOf(pa addr.Physical) uint64 {
	return uint64(pa) >> LogLineSize
}

// setAssociative is the shared implementation behind both exported
// constructors; a fully-associative cache is simply one with a single
// set.
type setAssociative struct {
	sets []*lruSet
	rank dram.RankModel
	tlb  *tlb.TLB

	stats Stats
}

// NewSetAssociative builds a VIPT cache with numSets sets of numWays ways
// each, backed by rank and embedding a TLB dimensioned for pageSize.
//
// It panics if numSets is not a power of two, or if the VIPT invariant is
// violated: the cache's set-index bits (the LogLineSize..LogLineSize+
// log2(numSets) range of the address) must lie entirely within the page
// offset, so that the set index can be computed from the virtual address
// concurrently with TLB translation.
func NewSetAssociative(numSets, numWays int, rank dram.RankModel, pageSize ptw.PageSize) Cache {
	if numSets <= 0 || numWays <= 0 {
		panic("cache: numSets and numWays must be positive")
	}
	if numSets&(numSets-1) != 0 {
		panic("cache: numSets must be a power of two")
	}

	setIndexBits := bits.TrailingZeros(uint(numSets))
	if uint(LogLineSize+setIndexBits) > pageSize.Shift() {
		panic(fmt.Sprintf(
			"cache: VIPT invariant violated: set-index bits [%d..%d) exceed page offset %d for %v",
			LogLineSize, LogLineSize+setIndexBits, pageSize.Shift(), pageSize))
	}

	c := &setAssociative{
		sets: make([]*lruSet, numSets),
		rank: rank,
		tlb:  tlb.New(pageSize),
	}
	for i := range c.sets {
		c.sets[i] = newLRUSet(numWays)
	}
	return c
}

// NewFullyAssociative builds a fully-associative VIPT cache holding
// capacityBytes worth of lines (one set, capacityBytes/LineSize ways).
func NewFullyAssociative(capacityBytes int, rank dram.RankModel, pageSize ptw.PageSize) Cache {
	if capacityBytes <= 0 || capacityBytes%LineSize != 0 {
		panic("cache: capacity must be a positive multiple of the line size")
	}
	return NewSetAssociative(1, capacityBytes/LineSize, rank, pageSize)
}

func (c *setAssociative) setIndex(va addr.Virtual) int {
	line := uint64(va) >> LogLineSize
	return int(line % uint64(len(c.sets)))
}

// Read implements Cache.
func (c *setAssociative) Read(va addr.Virtual) int {
	setIdx := c.setIndex(va) // VIPT: independent of TLB translation.
	pa, tlbLatency, tlbHit := c.tlb.Translate(va, false)
	line := lineOf(pa)
	set := c.sets[setIdx]

	if set.probe(line) {
		c.stats.ReadHits++
		if tlbHit {
			return HitLatency
		}
		return tlbLatency + HitLatency
	}

	set.install(line)
	c.stats.ReadMisses++
	dramLatency := c.rank.Transaction(pa, false)
	if tlbHit {
		return HitLatency + dramLatency
	}
	return tlbLatency + HitLatency + dramLatency
}

// Write implements Cache. Write-through: the rank model always observes
// the write so its bank state stays consistent for later reads. Because
// the write is posted, its cost is hidden from the caller; the returned
// latency is the TLB/cache hit-check cost only.
func (c *setAssociative) Write(va addr.Virtual) int {
	setIdx := c.setIndex(va)
	pa, tlbLatency, tlbHit := c.tlb.Translate(va, true)
	line := lineOf(pa)
	set := c.sets[setIdx]

	if set.probe(line) {
		c.stats.WriteHits++
	} else {
		set.install(line)
		c.stats.WriteMisses++
	}

	c.rank.Transaction(pa, true)

	if tlbHit {
		return HitLatency
	}
	return tlbLatency + HitLatency
}

// Stats implements Cache.
func (c *setAssociative) Stats() Stats { return c.stats }

// TLB implements Cache.
func (c *setAssociative) TLB() *tlb.TLB { return c.tlb }
