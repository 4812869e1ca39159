package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/memory/cache"
	"github.com/zixian-cai/hwgc-soft/memory/dram"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
)

var _ = Describe("SetAssociative", func() {
	var (
		rank *dram.Naive
		c    cache.Cache
	)

	BeforeEach(func() {
		rank = dram.NewNaive()
		c = cache.NewSetAssociative(64, 4, rank, ptw.FourKB)
	})

	It("charges more than HitLatency on the very first (cold) access", func() {
		lat := c.Read(addr.Virtual(0x1000))
		Expect(lat).To(BeNumerically(">", cache.HitLatency))
	})

	It("charges only HitLatency once both the TLB and the line are warm", func() {
		va := addr.Virtual(0x2000)
		c.Read(va)
		lat := c.Read(va)
		Expect(lat).To(Equal(cache.HitLatency))
	})

	It("reflects hits and misses in Stats", func() {
		va := addr.Virtual(0x3000)
		c.Read(va)
		c.Read(va)
		Expect(c.Stats().ReadMisses).To(Equal(1))
		Expect(c.Stats().ReadHits).To(Equal(1))
	})

	It("does not add DRAM latency to a write's observed latency, even on a write miss", func() {
		va := addr.Virtual(0x4000)
		lat := c.Write(va)
		// TLB miss + HitLatency only: no DRAM term, since writes are posted.
		Expect(lat).To(BeNumerically(">", 0))
		Expect(lat).To(BeNumerically("<", cache.HitLatency+dram.RowMissLatency))
	})

	It("misses on a written line once other reads have evicted it from its set", func() {
		va := addr.Virtual(0x5000)
		c.Write(va)
		// Evict the line by reading 64 other addresses mapping to the same
		// set, then re-read va: it must miss the cache.
		for i := uint64(1); i <= 64; i++ {
			other := addr.Virtual(uint64(va) + i*64*64)
			c.Read(other)
		}
		before := c.Stats().ReadMisses
		c.Read(va)
		Expect(c.Stats().ReadMisses).To(Equal(before + 1))
	})

	It("panics when the VIPT invariant is violated", func() {
		// 4KB pages (12-bit offset) cannot support 1024 sets at a 64-byte
		// line size: 6 + 10 = 16 > 12.
		Expect(func() {
			cache.NewSetAssociative(1024, 4, rank, ptw.FourKB)
		}).To(Panic())
	})
})

var _ = Describe("FullyAssociative", func() {
	It("holds exactly capacity/LineSize lines before evicting", func() {
		rank := dram.NewNaive()
		c := cache.NewFullyAssociative(4*cache.LineSize, rank, ptw.OneGB)

		base := addr.Virtual(0x40000000)
		for i := uint64(0); i < 4; i++ {
			c.Read(base + addr.Virtual(i*cache.LineSize))
		}
		Expect(c.Stats().ReadMisses).To(Equal(4))

		// Re-reading the first of the four should still hit: nothing has
		// been evicted yet.
		lat := c.Read(base)
		Expect(lat).To(Equal(cache.HitLatency))
	})
})
