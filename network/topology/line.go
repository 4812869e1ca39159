package topology

import "github.com/zixian-cai/hwgc-soft/addr"

// Line routes messages along the fixed physical order with no
// wraparound: the path between two DIMMs walks the position sequence
// strictly between them.
type Line struct{}

// NewLine builds a Line topology.
func NewLine() Line { return Line{} }

// Route implements Topology.
func (Line) Route(from, to addr.DimmID) []Link {
	if from == to {
		return nil
	}
	pFrom, pTo := positionOf(from), positionOf(to)

	var links []Link
	if pFrom < pTo {
		for p := pFrom; p < pTo; p++ {
			links = append(links, Link{physicalOrder[p], physicalOrder[p+1]})
		}
	} else {
		for p := pFrom; p > pTo; p-- {
			links = append(links, Link{physicalOrder[p], physicalOrder[p-1]})
		}
	}
	return links
}

// PerHopLatency implements Topology.
func (Line) PerHopLatency() int { return DefaultPerHopLatency }

// DimmToRankLatency implements Topology.
func (Line) DimmToRankLatency() int { return DefaultDimmToRankLatency }

// Links implements Topology.
func (Line) Links() []Link {
	links := make([]Link, 0, 2*(len(physicalOrder)-1))
	for p := 0; p < len(physicalOrder)-1; p++ {
		links = append(links, Link{physicalOrder[p], physicalOrder[p+1]})
		links = append(links, Link{physicalOrder[p+1], physicalOrder[p]})
	}
	return links
}
