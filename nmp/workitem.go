// Package nmp implements the near-memory processor and its work-queue
// primitives of spec §4.8/§4.9: one processor per rank, advancing a
// double-ended work queue by exactly one unit of work (or one stall
// decrement) per orchestrator tick.
package nmp

import "github.com/zixian-cai/hwgc-soft/addr"

// Kind tags the variant of a WorkItem.
type Kind int

// The six primitive operations a processor's work queue can hold.
const (
	KindMark Kind = iota
	KindScan
	KindSendMessage
	KindReadInbox
	KindStall
	KindIdle
)

// String implements fmt.Stringer, mostly for test failure messages.
func (k Kind) String() string {
	switch k {
	case KindMark:
		return "Mark"
	case KindScan:
		return "Scan"
	case KindSendMessage:
		return "SendMessage"
	case KindReadInbox:
		return "ReadInbox"
	case KindStall:
		return "Stall"
	case KindIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// WorkItem is the tagged variant of spec §3/§4.9. Only the fields
// relevant to Kind are meaningful; the others are zero.
type WorkItem struct {
	Kind Kind

	// Mark, Scan: the object header address.
	Object addr.Virtual
	// Scan: the reference slot index being visited.
	SlotIndex int
	// SendMessage: the destination rank and the reference being
	// forwarded to it.
	TargetRank addr.RankID
	Payload    addr.Virtual
	// Stall: cycles remaining, decremented by one per tick it is the
	// front item.
	Remaining int
}

// Mark builds a Mark(obj) work item.
func Mark(obj addr.Virtual) WorkItem {
	return WorkItem{Kind: KindMark, Object: obj}
}

// Scan builds a Scan(obj, slotIndex) work item.
func Scan(obj addr.Virtual, slotIndex int) WorkItem {
	return WorkItem{Kind: KindScan, Object: obj, SlotIndex: slotIndex}
}

// SendMessage builds a SendMessage(target, payload) work item.
func SendMessage(target addr.RankID, payload addr.Virtual) WorkItem {
	return WorkItem{Kind: KindSendMessage, TargetRank: target, Payload: payload}
}

// ReadInbox builds a ReadInbox work item.
func ReadInbox() WorkItem {
	return WorkItem{Kind: KindReadInbox}
}

// Stall builds a Stall(n) work item.
func Stall(n int) WorkItem {
	if n < 0 {
		panic("nmp: negative stall")
	}
	return WorkItem{Kind: KindStall, Remaining: n}
}

// Idle builds an Idle work item.
func Idle() WorkItem {
	return WorkItem{Kind: KindIdle}
}
