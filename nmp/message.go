package nmp

import (
	"github.com/rs/xid"

	"github.com/zixian-cai/hwgc-soft/addr"
)

// Message is a point-to-point work-stealing message: a notification to
// Target that Ref should be marked. It carries a sortable, globally
// unique ID purely for tracing/log correlation — routing and delivery
// never consult it.
type Message struct {
	ID     xid.ID
	Target addr.RankID
	Ref    addr.Virtual
}

// newMessage builds a Message with a fresh ID.
func newMessage(target addr.RankID, ref addr.Virtual) Message {
	return Message{ID: xid.New(), Target: target, Ref: ref}
}
