package topology

import "github.com/zixian-cai/hwgc-soft/addr"

// Ring is Line's physical order closed into a loop by a wrap link from
// the last position back to the first. For equidistant source/
// destination pairs it breaks the tie deterministically by the parity of
// the source's position, alternating direction to balance load across
// both halves of the ring for symmetric traffic patterns.
type Ring struct{}

// NewRing builds a Ring topology.
func NewRing() Ring { return Ring{} }

func numPositions() int { return len(physicalOrder) }

// clockwiseRoute walks increasing position indices from pFrom to pTo,
// wrapping around the end of physicalOrder back to its start.
func clockwiseRoute(pFrom, pTo int) []Link {
	n := numPositions()
	links := make([]Link, 0, n)
	p := pFrom
	for p != pTo {
		next := (p + 1) % n
		links = append(links, Link{physicalOrder[p], physicalOrder[next]})
		p = next
	}
	return links
}

// counterClockwiseRoute walks decreasing position indices from pFrom to
// pTo, wrapping around the start of physicalOrder back to its end.
func counterClockwiseRoute(pFrom, pTo int) []Link {
	n := numPositions()
	links := make([]Link, 0, n)
	p := pFrom
	for p != pTo {
		prev := (p - 1 + n) % n
		links = append(links, Link{physicalOrder[p], physicalOrder[prev]})
		p = prev
	}
	return links
}

// Route implements Topology.
func (Ring) Route(from, to addr.DimmID) []Link {
	if from == to {
		return nil
	}
	n := numPositions()
	pFrom, pTo := positionOf(from), positionOf(to)

	cwDist := (pTo - pFrom + n) % n
	ccwDist := (pFrom - pTo + n) % n

	switch {
	case cwDist < ccwDist:
		return clockwiseRoute(pFrom, pTo)
	case ccwDist < cwDist:
		return counterClockwiseRoute(pFrom, pTo)
	default:
		// Equidistant: break the tie by the parity of the source
		// position, even choosing clockwise.
		if pFrom%2 == 0 {
			return clockwiseRoute(pFrom, pTo)
		}
		return counterClockwiseRoute(pFrom, pTo)
	}
}

// PerHopLatency implements Topology.
func (Ring) PerHopLatency() int { return DefaultPerHopLatency }

// DimmToRankLatency implements Topology.
func (Ring) DimmToRankLatency() int { return DefaultDimmToRankLatency }

// Links implements Topology.
func (Ring) Links() []Link {
	n := numPositions()
	links := make([]Link, 0, 2*n)
	for p := 0; p < n; p++ {
		next := (p + 1) % n
		links = append(links, Link{physicalOrder[p], physicalOrder[next]})
		links = append(links, Link{physicalOrder[next], physicalOrder[p]})
	}
	return links
}
