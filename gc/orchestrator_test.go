package gc_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/gc"
	"github.com/zixian-cai/hwgc-soft/heap"
	"github.com/zixian-cai/hwgc-soft/memory/cache"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
	"github.com/zixian-cai/hwgc-soft/memory/tlb"
)

// fixedLatencyCache is a fixed-latency stand-in for memory/cache.Cache,
// used so these tests exercise the orchestrator's routing and
// termination logic without depending on the real cache/TLB/DRAM timing
// covered by their own package tests.
type fixedLatencyCache struct {
	latency int
	stats   cache.Stats
	t       *tlb.TLB
}

func newFixedLatencyCache(latency int) *fixedLatencyCache {
	return &fixedLatencyCache{latency: latency, t: tlb.New(ptw.FourKB)}
}

func (f *fixedLatencyCache) Read(addr.Virtual) int {
	f.stats.ReadHits++
	return f.latency
}

func (f *fixedLatencyCache) Write(addr.Virtual) int {
	f.stats.WriteHits++
	return f.latency
}

func (f *fixedLatencyCache) Stats() cache.Stats { return f.stats }
func (f *fixedLatencyCache) TLB() *tlb.TLB      { return f.t }

func fixedLatencyCacheFactory(latency int) gc.CacheFactory {
	return func(addr.RankID) cache.Cache { return newFixedLatencyCache(latency) }
}

// rankAddress builds a virtual address whose physical decoding (identity
// mapped) places it on rank, at a distinct offset so multiple objects on
// the same rank don't collide.
func rankAddress(rank addr.RankID, offset uint16) addr.Virtual {
	fields := addr.Decode(addr.Physical(0))
	fields.Channel = uint8(rank) >> (addr.DimmBits + addr.RankBits)
	fields.Dimm = (uint8(rank) >> addr.RankBits) & uint8((1<<addr.DimmBits)-1)
	fields.Rank = uint8(rank) & uint8((1<<addr.RankBits)-1)
	fields.Row = offset
	pa := addr.Encode(fields)
	return addr.Virtual(pa)
}

var _ = Describe("Orchestrator", func() {
	var model heap.ObjectModel

	BeforeEach(func() {
		model = heap.OpenJDK{}
	})

	It("marks a 3-object linear chain entirely local to one rank", func() {
		a := rankAddress(0, 1)
		b := rankAddress(0, 2)
		c := rankAddress(0, 3)

		snap := heap.New([]heap.Object{
			{Address: a, References: []addr.Virtual{b}},
			{Address: b, References: []addr.Virtual{c}},
			{Address: c, References: nil},
		}, []addr.Virtual{a})

		cfg := gc.DefaultConfig()
		cfg.SnapshotPaths = []string{"fixture.snapshot"}
		cfg.Processors = 1

		orc, err := gc.New(cfg, snap, fixedLatencyCacheFactory(1), model)
		Expect(err).ToNot(HaveOccurred())

		stats := orc.Run()
		Expect(stats.MarkedObjects).To(Equal(3))
		Expect(stats.TotalTicks).To(BeNumerically(">", 0))
		for _, l := range stats.Links {
			Expect(l.MessagesForwarded).To(Equal(0))
		}
	})

	It("routes a reference on a far rank across the network and delivers it", func() {
		root := rankAddress(0, 1)
		foreign := rankAddress(7, 1)

		snap := heap.New([]heap.Object{
			{Address: root, References: []addr.Virtual{foreign}},
			{Address: foreign, References: nil},
		}, []addr.Virtual{root})

		cfg := gc.DefaultConfig()
		cfg.SnapshotPaths = []string{"fixture.snapshot"}
		cfg.Processors = 8

		orc, err := gc.New(cfg, snap, fixedLatencyCacheFactory(1), model)
		Expect(err).ToNot(HaveOccurred())

		stats := orc.Run()
		Expect(stats.MarkedObjects).To(Equal(2))

		var totalForwarded int
		for _, l := range stats.Links {
			totalForwarded += l.MessagesForwarded
		}
		Expect(totalForwarded).To(BeNumerically(">", 0))
	})

	It("produces byte-identical statistics across two runs of the same configuration", func() {
		root := rankAddress(0, 1)
		mid := rankAddress(2, 1)
		leaf := rankAddress(5, 1)

		build := func() *heap.Snapshot {
			return heap.New([]heap.Object{
				{Address: root, References: []addr.Virtual{mid}},
				{Address: mid, References: []addr.Virtual{leaf}},
				{Address: leaf, References: nil},
			}, []addr.Virtual{root})
		}

		cfg := gc.DefaultConfig()
		cfg.SnapshotPaths = []string{"fixture.snapshot"}
		cfg.Processors = 8
		cfg.Topology = gc.Ring

		orc1, err := gc.New(cfg, build(), fixedLatencyCacheFactory(1), model)
		Expect(err).ToNot(HaveOccurred())
		stats1 := orc1.Run()

		orc2, err := gc.New(cfg, build(), fixedLatencyCacheFactory(1), model)
		Expect(err).ToNot(HaveOccurred())
		stats2 := orc2.Run()

		Expect(stats1.TotalTicks).To(Equal(stats2.TotalTicks))
		Expect(stats1.MarkedObjects).To(Equal(stats2.MarkedObjects))
		Expect(stats1.Links).To(Equal(stats2.Links))
	})

	It("rejects a root homed on a rank with no configured processor", func() {
		foreign := rankAddress(5, 1)
		snap := heap.New([]heap.Object{{Address: foreign}}, []addr.Virtual{foreign})

		cfg := gc.DefaultConfig()
		cfg.SnapshotPaths = []string{"fixture.snapshot"}
		cfg.Processors = 2
		cfg.RootDistribution = gc.HomeRank

		_, err := gc.New(cfg, snap, fixedLatencyCacheFactory(1), model)
		Expect(err).To(HaveOccurred())
	})
})
