package dram

import (
	"fmt"

	"github.com/zixian-cai/hwgc-soft/addr"
)

// Geometry is the set of DDR4 parameters an external DRAM backend must
// agree on with this simulator's address mapping (spec §6's "DDR4
// geometry contract"). ValidateGeometry reports a mismatch as an error,
// not a panic. Nothing in this repository calls it: no ExternalBackend is
// ever constructed (cmd/hwgc-soft rejects --use-dramsim3).
type Geometry struct {
	PageSizeBytes         uint64
	RanksPerChannel       int
	ChannelsPerSystem     int
	RankSizeBytes         uint64
	ChannelCapacityBytes  uint64
}

// Ours is the geometry implied by addr's bit-field layout.
func Ours() Geometry {
	return Geometry{
		PageSizeBytes:        addr.PageSizeBytes,
		RanksPerChannel:      addr.RanksPerChannel,
		ChannelsPerSystem:    addr.ChannelsPerSystem,
		RankSizeBytes:        addr.RankSizeBytes,
		ChannelCapacityBytes: addr.ChannelCapacityBytes,
	}
}

// GeometryMismatchError is returned by ValidateGeometry when an external
// backend's computed geometry disagrees with ours. Its Error() dumps both
// layouts, per spec §7.
type GeometryMismatchError struct {
	Ours, Theirs Geometry
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf(
		"dram: geometry mismatch between address mapping and external DRAM backend\n"+
			"  ours:   %+v\n"+
			"  theirs: %+v",
		e.Ours, e.Theirs,
	)
}

// ValidateGeometry checks theirs against Ours(), returning a
// *GeometryMismatchError on any disagreement.
func ValidateGeometry(theirs Geometry) error {
	ours := Ours()
	if ours != theirs {
		return &GeometryMismatchError{Ours: ours, Theirs: theirs}
	}
	return nil
}
