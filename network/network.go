// Package network implements the cycle-accurate, multi-hop message
// forwarding fabric of spec §4.7: messages are injected onto the first
// link of a precomputed route and pipeline hop-by-hop, perHopLatency
// ticks per link, with per-directed-link flit and forwarded-message
// counters.
// There is no link contention or throttling; counters measure demand.
//
// Grounded on the teacher's noc/networking mesh/routing-table packages
// for the notion of a directed-link keyed statistics table, adapted here
// from a message-passing port fabric to direct, synchronous calls from
// the orchestrator's single global tick.
package network

import "github.com/zixian-cai/hwgc-soft/network/topology"

// LinkStats holds the forwarded-message and flit-demand counters for one
// directed link.
type LinkStats struct {
	TotalForwarded   int
	PeakFlitsPerTick int

	currentTickFlits int
}

// message is one in-flight payload pipelining through its route.
type message struct {
	payload            any
	route              []topology.Link
	cursor             int
	hopCyclesRemaining int
}

func (m *message) currentLink() topology.Link { return m.route[m.cursor] }

// Network is the interconnect fabric: an in-flight message list plus
// per-directed-link counters, advanced one global cycle at a time.
type Network struct {
	perHopLatency int
	messages      []*message
	linkStats     map[topology.Link]*LinkStats
}

// New builds a Network using perHopLatency cycles per hop, with a
// pre-populated counter for every link the topology can route over (so
// zero-traffic links still appear in the final statistics table).
func New(perHopLatency int, links []topology.Link) *Network {
	n := &Network{
		perHopLatency: perHopLatency,
		linkStats:     make(map[topology.Link]*LinkStats, len(links)),
	}
	for _, l := range links {
		n.linkStats[l] = &LinkStats{}
	}
	return n
}

// Inject places payload on the first link of route, which must be
// non-empty (same-DIMM messages bypass the network entirely; see the
// orchestrator). inject always succeeds: the network has unbounded
// capacity.
func (n *Network) Inject(payload any, route []topology.Link) {
	if len(route) == 0 {
		panic("network: inject requires a non-empty route")
	}
	n.messages = append(n.messages, &message{
		payload:            payload,
		route:              route,
		hopCyclesRemaining: n.perHopLatency,
	})
}

// InFlight reports the number of messages currently in transit, used by
// the orchestrator's quiescence check.
func (n *Network) InFlight() int { return len(n.messages) }

// Tick advances every in-flight message by one cycle and returns the
// payloads of messages delivered this tick, in the order they were
// injected (insertion-order stable, per spec §5).
func (n *Network) Tick() []any {
	for _, m := range n.messages {
		m.hopCyclesRemaining--
		n.linkStats[m.currentLink()].currentTickFlits++
	}

	var delivered []any
	remaining := n.messages[:0]
	for _, m := range n.messages {
		if m.hopCyclesRemaining > 0 {
			remaining = append(remaining, m)
			continue
		}

		link := m.currentLink()
		n.linkStats[link].TotalForwarded++

		m.cursor++
		if m.cursor >= len(m.route) {
			delivered = append(delivered, m.payload)
			continue
		}

		m.hopCyclesRemaining = n.perHopLatency
		remaining = append(remaining, m)
	}
	n.messages = remaining

	for _, s := range n.linkStats {
		if s.currentTickFlits > s.PeakFlitsPerTick {
			s.PeakFlitsPerTick = s.currentTickFlits
		}
		s.currentTickFlits = 0
	}

	return delivered
}

// LinkStats returns a copy of the current counters for link, or the
// zero value if link is not part of this network's topology.
func (n *Network) LinkStats(link topology.Link) LinkStats {
	if s, ok := n.linkStats[link]; ok {
		return *s
	}
	return LinkStats{}
}

// Links returns every link this network tracks counters for.
func (n *Network) Links() []topology.Link {
	links := make([]topology.Link, 0, len(n.linkStats))
	for l := range n.linkStats {
		links = append(links, l)
	}
	return links
}
