package network_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/network"
	"github.com/zixian-cai/hwgc-soft/network/topology"
)

type testPayload struct {
	recipient addr.RankID
}

const perHop = topology.DefaultPerHopLatency

var _ = Describe("Network", func() {
	var (
		line topology.Line
		net  *network.Network
	)

	BeforeEach(func() {
		line = topology.NewLine()
		net = network.New(line.PerHopLatency(), line.Links())
	})

	It("delivers a single-hop message after exactly per-hop-latency ticks", func() {
		route := line.Route(0, 2)
		Expect(route).To(HaveLen(1))

		net.Inject(testPayload{recipient: 2}, route)
		Expect(net.InFlight()).To(Equal(1))

		for tick := 0; tick < perHop; tick++ {
			delivered := net.Tick()
			if tick < perHop-1 {
				Expect(delivered).To(BeEmpty())
			} else {
				Expect(delivered).To(HaveLen(1))
				Expect(delivered[0].(testPayload).recipient).To(Equal(addr.RankID(2)))
			}
		}
		Expect(net.InFlight()).To(Equal(0))
	})

	It("delivers a multi-hop message after route-length times per-hop-latency ticks", func() {
		route := line.Route(0, 3)
		Expect(route).To(HaveLen(3))

		net.Inject(testPayload{recipient: 3}, route)

		deliveredCount := 0
		for i := 0; i < 3*perHop; i++ {
			deliveredCount += len(net.Tick())
		}
		Expect(deliveredCount).To(Equal(1))
		Expect(net.InFlight()).To(Equal(0))
	})

	It("records one forwarded message per traversed link and zero on the reverse direction", func() {
		route := line.Route(0, 3)
		net.Inject(testPayload{recipient: 3}, route)

		for i := 0; i < 3*perHop; i++ {
			net.Tick()
		}

		Expect(net.LinkStats(topology.Link{From: 0, To: 2}).TotalForwarded).To(Equal(1))
		Expect(net.LinkStats(topology.Link{From: 2, To: 1}).TotalForwarded).To(Equal(1))
		Expect(net.LinkStats(topology.Link{From: 1, To: 3}).TotalForwarded).To(Equal(1))
		Expect(net.LinkStats(topology.Link{From: 2, To: 0}).TotalForwarded).To(Equal(0))
	})

	It("tracks peak flits per tick for messages sharing a link", func() {
		route := line.Route(0, 2)
		for i := 0; i < 3; i++ {
			net.Inject(testPayload{recipient: 2}, route)
		}

		for i := 0; i < perHop; i++ {
			net.Tick()
		}

		link := net.LinkStats(topology.Link{From: 0, To: 2})
		Expect(link.TotalForwarded).To(Equal(3))
		Expect(link.PeakFlitsPerTick).To(Equal(3))
	})

	It("is a no-op on an empty network", func() {
		Expect(net.InFlight()).To(Equal(0))
		Expect(net.Tick()).To(BeEmpty())
		Expect(net.InFlight()).To(Equal(0))
	})

	It("counts two crossing messages once each on the links they actually traverse", func() {
		routeA := line.Route(0, 3)
		routeB := line.Route(3, 0)
		net.Inject(testPayload{recipient: 3}, routeA)
		net.Inject(testPayload{recipient: 0}, routeB)

		var delivered []any
		for i := 0; i < 3*perHop; i++ {
			delivered = append(delivered, net.Tick()...)
		}
		Expect(delivered).To(HaveLen(2))
		Expect(net.InFlight()).To(Equal(0))

		Expect(net.LinkStats(topology.Link{From: 2, To: 1}).TotalForwarded).To(Equal(1))
		Expect(net.LinkStats(topology.Link{From: 1, To: 2}).TotalForwarded).To(Equal(1))
	})

	It("pipelines two messages injected a tick apart on the same link, peaking at 2", func() {
		route := line.Route(0, 2)
		net.Inject(testPayload{recipient: 2}, route)
		net.Tick()
		net.Inject(testPayload{recipient: 2}, route)

		for net.InFlight() > 0 {
			net.Tick()
		}

		link := net.LinkStats(topology.Link{From: 0, To: 2})
		Expect(link.TotalForwarded).To(Equal(2))
		Expect(link.PeakFlitsPerTick).To(Equal(2))
	})

	It("never overlaps two messages injected after the first fully clears the link", func() {
		route := line.Route(0, 2)
		net.Inject(testPayload{recipient: 2}, route)
		for i := 0; i < perHop; i++ {
			net.Tick()
		}
		Expect(net.InFlight()).To(Equal(0))

		net.Inject(testPayload{recipient: 2}, route)
		for net.InFlight() > 0 {
			net.Tick()
		}

		link := net.LinkStats(topology.Link{From: 0, To: 2})
		Expect(link.TotalForwarded).To(Equal(2))
		Expect(link.PeakFlitsPerTick).To(Equal(1))
	})
})
