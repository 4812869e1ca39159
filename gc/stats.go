package gc

import (
	"sort"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/network/topology"
)

// MessageSizeBytes and ClockGHz fix the units the bandwidth statistics
// are reported in. Neither is pinned by a wire format this core decodes
// (the snapshot's protobuf schema is an external collaborator), so both
// are chosen as round, documented constants: a message carries one
// 64-bit reference plus a small header, and the simulator's single
// global cycle is treated as one clock at 1 GHz.
const (
	MessageSizeBytes = 32
	ClockGHz         = 1.0
)

// FlitSizeBytes is the per-hop-cycle transfer granularity implied by
// spreading one message's bytes evenly across its per-hop latency.
var FlitSizeBytes = float64(MessageSizeBytes) / float64(topology.DefaultPerHopLatency)

// Stats is the key-value statistics table spec §6 requires: total ticks,
// utilization, cache/TLB hit rates, marked objects, and a per-link
// bandwidth table sorted by physical connection order.
type Stats struct {
	TotalTicks    int
	Utilization   float64
	ReadHitRate   float64
	WriteHitRate  float64
	TLBHitRate    float64
	MarkedObjects int

	Host HostInfo

	Links []LinkRow
}

// LinkRow is one directed link's forwarding and bandwidth counters.
type LinkRow struct {
	From, To          uint8
	MessagesForwarded int
	PeakFlitsPerTick  int
	PeakGBps          float64
	AvgGBps           float64
}

func ratio(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// computeStats aggregates every processor's cache/TLB counters and the
// network's per-link counters into the final statistics table, per
// spec §6's key-value layout.
func (o *Orchestrator) computeStats() Stats {
	var readHits, readTotal, writeHits, writeTotal int
	var tlbHits, tlbTotal int
	var markedObjects, busyTicks int

	for _, p := range o.processors {
		cs := p.Cache().Stats()
		readHits += cs.ReadHits
		readTotal += cs.ReadHits + cs.ReadMisses
		writeHits += cs.WriteHits
		writeTotal += cs.WriteHits + cs.WriteMisses

		ts := p.Cache().TLB().Stats
		tlbHits += ts.TotalHits()
		tlbTotal += ts.TotalHits() + ts.TotalMisses()

		markedObjects += p.ObjectsMarked
		busyTicks += p.BusyTicks
	}

	// Utilization is busy_ticks / (ticks * processors): a processor is
	// busy on every cycle it has work to do, including Stall-decrement
	// cycles, not just the cycles where it completes a Mark/Scan/message
	// item. See nmp.Processor.BusyTicks.
	utilizationDenominator := o.tick * len(o.processors)
	var utilization float64
	if utilizationDenominator > 0 {
		utilization = float64(busyTicks) / float64(utilizationDenominator)
	}

	links := o.topo.Links()
	rows := make([]LinkRow, 0, len(links))
	perHop := o.topo.PerHopLatency()
	for _, l := range links {
		ls := o.net.LinkStats(l)
		totalFlits := ls.TotalForwarded * perHop
		var avgGBps float64
		if o.tick > 0 {
			avgGBps = (float64(totalFlits) / float64(o.tick)) * FlitSizeBytes * ClockGHz
		}
		rows = append(rows, LinkRow{
			From:              uint8(l.From),
			To:                uint8(l.To),
			MessagesForwarded: ls.TotalForwarded,
			PeakFlitsPerTick:  ls.PeakFlitsPerTick,
			PeakGBps:          float64(ls.PeakFlitsPerTick) * FlitSizeBytes * ClockGHz,
			AvgGBps:           avgGBps,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		pi, pj := topology.PositionOf(addr.DimmID(rows[i].From)), topology.PositionOf(addr.DimmID(rows[j].From))
		if pi != pj {
			return pi < pj
		}
		return topology.PositionOf(addr.DimmID(rows[i].To)) < topology.PositionOf(addr.DimmID(rows[j].To))
	})

	return Stats{
		TotalTicks:    o.tick,
		Utilization:   utilization,
		ReadHitRate:   ratio(readHits, readTotal),
		WriteHitRate:  ratio(writeHits, writeTotal),
		TLBHitRate:    ratio(tlbHits, tlbTotal),
		MarkedObjects: markedObjects,
		Host:          CurrentHostInfo(),
		Links:         rows,
	}
}
