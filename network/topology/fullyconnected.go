package topology

import "github.com/zixian-cai/hwgc-soft/addr"

// FullyConnected routes any distinct pair of DIMMs over a single direct
// link.
type FullyConnected struct{}

// NewFullyConnected builds a FullyConnected topology.
func NewFullyConnected() FullyConnected { return FullyConnected{} }

// Route implements Topology.
func (FullyConnected) Route(from, to addr.DimmID) []Link {
	if from == to {
		return nil
	}
	return []Link{{From: from, To: to}}
}

// PerHopLatency implements Topology.
func (FullyConnected) PerHopLatency() int { return DefaultPerHopLatency }

// DimmToRankLatency implements Topology.
func (FullyConnected) DimmToRankLatency() int { return DefaultDimmToRankLatency }

// Links implements Topology.
func (FullyConnected) Links() []Link {
	var links []Link
	for _, from := range physicalOrder {
		for _, to := range physicalOrder {
			if from != to {
				links = append(links, Link{from, to})
			}
		}
	}
	return links
}
