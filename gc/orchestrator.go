package gc

import (
	"fmt"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/heap"
	"github.com/zixian-cai/hwgc-soft/memory/cache"
	"github.com/zixian-cai/hwgc-soft/network"
	"github.com/zixian-cai/hwgc-soft/network/topology"
	"github.com/zixian-cai/hwgc-soft/nmp"
)

// CacheFactory builds the data cache for one processor's rank. The
// orchestrator calls it once per processor at construction time so the
// caller controls cache geometry and DRAM backend wiring (naive vs.
// DRAMSim3) without this package needing to know about either.
type CacheFactory func(rank addr.RankID) cache.Cache

// Orchestrator is the NMPGC driver of spec §4.10: it owns every rank's
// Processor, the interconnect Network, the selected Topology, and the
// global tick counter, and advances all three in lockstep to quiescence.
type Orchestrator struct {
	config     Config
	topo       topology.Topology
	net        *network.Network
	processors []*nmp.Processor
	snapshot   *heap.Snapshot

	tick int
}

func newTopology(kind TopologyKind) topology.Topology {
	switch kind {
	case Line:
		return topology.NewLine()
	case Ring:
		return topology.NewRing()
	case FullyConnected:
		return topology.NewFullyConnected()
	default:
		panic("gc: unknown topology kind")
	}
}

// New builds an Orchestrator from a validated Config, a loaded snapshot,
// a per-rank cache factory, and the object model every processor shares.
// Roots are seeded across processors per cfg.RootDistribution.
func New(cfg Config, snapshot *heap.Snapshot, caches CacheFactory, model heap.ObjectModel) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	topo := newTopology(cfg.Topology)
	net := network.New(topo.PerHopLatency(), topo.Links())

	processors := make([]*nmp.Processor, cfg.Processors)
	for i := range processors {
		rank := addr.RankID(i)
		processors[i] = nmp.New(rank, caches(rank), model, snapshot)
	}

	o := &Orchestrator{
		config:     cfg,
		topo:       topo,
		net:        net,
		processors: processors,
		snapshot:   snapshot,
	}
	if err := o.seedRoots(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) seedRoots() error {
	switch o.config.RootDistribution {
	case SingleSeed:
		o.processors[0].Seed(o.snapshot.Roots())
		return nil
	case HomeRank:
		for _, root := range o.snapshot.Roots() {
			rank := addr.RankOf(root.AsPhysical())
			if int(rank) >= len(o.processors) {
				return fmt.Errorf("gc: root %v is homed on rank %d, but only %d processors are configured", root, rank, len(o.processors))
			}
			o.processors[rank].Seed([]addr.Virtual{root})
		}
		return nil
	default:
		return fmt.Errorf("gc: unknown root distribution %v", o.config.RootDistribution)
	}
}

func (o *Orchestrator) quiescent() bool {
	if o.net.InFlight() != 0 {
		return false
	}
	for _, p := range o.processors {
		if !p.LocallyDone() {
			return false
		}
	}
	return true
}

func (o *Orchestrator) deliver(rank addr.RankID, msg nmp.Message) {
	if int(rank) >= len(o.processors) {
		panic(fmt.Sprintf("gc: message addressed to rank %d, which has no processor (only %d configured)", rank, len(o.processors)))
	}
	o.processors[rank].DeliverMessage(msg)
}

// Run drives the simulation to quiescence: every processor's work queue
// and inbox empty, and no message in flight on the network (spec §4.10).
// It panics if the tick counter exceeds the configured safety bound,
// per spec §7's runtime-invariant-violation handling.
func (o *Orchestrator) Run() Stats {
	for !o.quiescent() {
		o.step()
	}
	return o.computeStats()
}

// step advances the whole system by exactly one global cycle, per the
// five-part sequence of spec §4.10: tick every processor in ascending
// rank order, route any emitted message (same-DIMM bypass or network
// injection), tick the network, deliver anything that arrived, and
// advance the tick counter.
func (o *Orchestrator) step() {
	for i, p := range o.processors {
		msg := p.Tick()
		if msg == nil {
			continue
		}
		o.route(addr.RankID(i), *msg)
	}

	for _, payload := range o.net.Tick() {
		msg, ok := payload.(nmp.Message)
		if !ok {
			panic("gc: network delivered a payload that was not an nmp.Message")
		}
		o.deliver(msg.Target, msg)
	}

	o.tick++
	if o.tick > o.config.SafetyBound {
		panic(fmt.Sprintf("gc: exceeded safety bound of %d ticks without reaching quiescence", o.config.SafetyBound))
	}
}

// route sends msg from the rank it was emitted on toward its target:
// directly into the recipient's inbox if they share a DIMM (bypassing
// the network, per spec §4.7), otherwise injected onto the network along
// the topology's computed route.
func (o *Orchestrator) route(from addr.RankID, msg nmp.Message) {
	fromDimm := addr.DimmOfRank(from)
	toDimm := addr.DimmOfRank(msg.Target)

	link := o.topo.Route(fromDimm, toDimm)
	if len(link) == 0 {
		o.deliver(msg.Target, msg)
		return
	}
	o.net.Inject(msg, link)
}
