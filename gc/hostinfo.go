package gc

import (
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
)

// HostInfo records the host a run executed on, so a reported statistics
// table can be traced back to the machine that produced it.
type HostInfo struct {
	ID   string
	CPUs int
}

// CurrentHostInfo queries the local host for CurrentHostInfo's fields.
// Errors from gopsutil are swallowed into zero values: host introspection
// is informational and must never fail a simulation run.
func CurrentHostInfo() HostInfo {
	id, _ := host.HostID()
	counts, err := cpu.Counts(true)
	if err != nil {
		counts = 0
	}
	return HostInfo{ID: id, CPUs: counts}
}
