package nmp

import (
	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/heap"
	"github.com/zixian-cai/hwgc-soft/memory/cache"
	"github.com/zixian-cai/hwgc-soft/network/topology"
)

// DimmToRankLatency is the fixed cost, in cycles, of handing a message
// off between a SendMessage/ReadInbox work item and the local DIMM link
// controller. It mirrors topology.DefaultDimmToRankLatency so that a
// custom Topology implementation with a different constant can still be
// wired through without this package needing to know about it; nmp only
// ever uses the default, per spec §4.9.
const DimmToRankLatency = topology.DefaultDimmToRankLatency

// Processor is one rank-local near-memory processor: a data cache, a
// double-ended work queue, a FIFO inbox, and the read-only snapshot and
// object-model references shared by every processor.
type Processor struct {
	Rank     addr.RankID
	cache    cache.Cache
	model    heap.ObjectModel
	snapshot *heap.Snapshot

	queue []WorkItem
	inbox []Message
	marks map[addr.Virtual]bool

	InstructionsExecuted int
	ObjectsMarked        int
	BusyTicks            int
}

// New builds a Processor for rank, backed by c, using model to compute
// reference-slot addresses and reading object graphs from snapshot.
func New(rank addr.RankID, c cache.Cache, model heap.ObjectModel, snapshot *heap.Snapshot) *Processor {
	return &Processor{
		Rank:     rank,
		cache:    c,
		model:    model,
		snapshot: snapshot,
		marks:    make(map[addr.Virtual]bool),
	}
}

// Seed appends a Mark work item for every object in roots, in order, to
// the back of the work queue. Used once at startup to hand this
// processor its share of the root set.
func (p *Processor) Seed(roots []addr.Virtual) {
	for _, r := range roots {
		p.queue = append(p.queue, Mark(r))
	}
}

// DeliverMessage places msg into the inbox, preserving insertion order.
// Called by the orchestrator on same-DIMM bypass delivery or when the
// network reports msg as delivered.
func (p *Processor) DeliverMessage(msg Message) {
	p.inbox = append(p.inbox, msg)
}

// Cache returns this processor's data cache, for statistics collection.
func (p *Processor) Cache() cache.Cache { return p.cache }

// LocallyDone implements the termination-local predicate of spec §4.8:
// true when the work queue and inbox are both empty.
func (p *Processor) LocallyDone() bool {
	return len(p.queue) == 0 && len(p.inbox) == 0
}

func (p *Processor) pushFront(items ...WorkItem) {
	p.queue = append(items, p.queue...)
}

// stallThenContinue pushes continuation to the front of the queue, then
// pushes a Stall(latency-1) ahead of it if latency exceeds one cycle, so
// that continuation's first item is reached only once the full latency
// has elapsed.
func (p *Processor) stallThenContinue(latency int, continuation ...WorkItem) {
	if latency < 1 {
		panic("nmp: non-positive work-item latency")
	}
	p.pushFront(continuation...)
	if latency > 1 {
		p.pushFront(Stall(latency - 1))
	}
}

// Tick advances this processor by exactly one cycle, per spec §4.8, and
// returns any message the executed work item emitted for network
// injection (nil if none).
func (p *Processor) Tick() *Message {
	if len(p.queue) == 0 {
		if len(p.inbox) == 0 {
			return nil // quiescent this cycle
		}
		// Peek the next inbox message: ReadInbox's own execution will
		// perform the actual dequeue, but the derived Mark needs to know
		// which reference to mark ahead of that.
		next := p.inbox[0]
		p.pushFront(ReadInbox(), Mark(next.Ref))
	}

	// Every cycle that reaches here has work to do, whether that's
	// executing the front item or just decrementing an in-flight Stall;
	// only the quiescent early return above is not busy.
	p.BusyTicks++

	item := p.queue[0]
	p.queue = p.queue[1:]
	return p.execute(item)
}

func (p *Processor) execute(item WorkItem) *Message {
	switch item.Kind {
	case KindMark:
		return p.executeMark(item)
	case KindScan:
		return p.executeScan(item)
	case KindSendMessage:
		p.InstructionsExecuted++
		msg := newMessage(item.TargetRank, item.Payload)
		p.stallThenContinue(DimmToRankLatency)
		return &msg
	case KindReadInbox:
		p.InstructionsExecuted++
		if len(p.inbox) > 0 {
			p.inbox = p.inbox[1:]
		}
		p.stallThenContinue(DimmToRankLatency)
		return nil
	case KindStall:
		if item.Remaining > 0 {
			p.pushFront(Stall(item.Remaining - 1))
		}
		return nil
	case KindIdle:
		return nil
	default:
		panic("nmp: unknown work item kind")
	}
}

func (p *Processor) executeMark(item WorkItem) *Message {
	p.InstructionsExecuted++

	// Per spec.md §3: marking is idempotent on correctness, but a second
	// Mark of the same object still incurs the read-header/write-header
	// memory traffic; only the bookkeeping (ObjectsMarked, the follow-up
	// Scan) is skipped once the bit is already set.
	readLatency := p.cache.Read(item.Object)
	writeLatency := p.cache.Write(item.Object)
	alreadyMarked := p.marks[item.Object]

	if alreadyMarked {
		p.stallThenContinue(readLatency + writeLatency)
		return nil
	}

	p.marks[item.Object] = true
	p.ObjectsMarked++
	p.stallThenContinue(readLatency+writeLatency, Scan(item.Object, 0))
	return nil
}

func (p *Processor) executeScan(item WorkItem) *Message {
	obj, ok := p.snapshot.Object(item.Object)
	if !ok {
		panic("nmp: scan of an address with no object header")
	}

	p.InstructionsExecuted++

	if item.SlotIndex >= len(obj.References) {
		return nil
	}

	slotAddr := heap.SlotAddress(p.model, obj, item.SlotIndex)
	readLatency := p.cache.Read(slotAddr)
	ref := obj.References[item.SlotIndex]

	var next WorkItem
	if addr.RankOf(ref.AsPhysical()) == p.Rank {
		next = Mark(ref)
	} else {
		next = SendMessage(addr.RankOf(ref.AsPhysical()), ref)
	}

	var continuation []WorkItem
	if item.SlotIndex+1 < len(obj.References) {
		continuation = []WorkItem{next, Scan(item.Object, item.SlotIndex+1)}
	} else {
		continuation = []WorkItem{next}
	}
	p.stallThenContinue(readLatency, continuation...)
	return nil
}
