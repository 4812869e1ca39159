package heap

import "github.com/zixian-cai/hwgc-soft/addr"

// ObjectModel decides how an object's header and reference slots are
// laid out in memory. It does not change the data model of §3/§4 of the
// core spec — it only changes how nmp.Scan computes a slot's address
// from (obj, slot index).
type ObjectModel interface {
	// HeaderSize is the number of bytes occupied by an object's header
	// (mark word plus any type metadata) before its reference slots.
	HeaderSize() uint64
	// ReferenceSlotOffsets returns, for obj, the byte offset of each of
	// its reference slots relative to obj.Address.
	ReferenceSlotOffsets(obj Object) []uint64
}

const referenceSlotSize = 8

// OpenJDK lays out an object as a contiguous mark-word-plus-klass-pointer
// header immediately followed by its reference slots in declaration
// order, matching a HotSpot-style compressed-oops-free object layout.
type OpenJDK struct{}

// HeaderSize implements ObjectModel: an 8-byte mark word plus an 8-byte
// klass pointer.
func (OpenJDK) HeaderSize() uint64 { return 16 }

// ReferenceSlotOffsets implements ObjectModel.
func (OpenJDK) ReferenceSlotOffsets(obj Object) []uint64 {
	offsets := make([]uint64, len(obj.References))
	for i := range offsets {
		offsets[i] = OpenJDK{}.HeaderSize() + uint64(i)*referenceSlotSize
	}
	return offsets
}

// Bidirectional reserves extra header space for a forwarding pointer
// used by concurrent-marking experiments in the original research
// harness, ahead of the same contiguous reference-slot layout OpenJDK
// uses.
type Bidirectional struct{}

// HeaderSize implements ObjectModel: mark word, klass pointer, and a
// forwarding pointer.
func (Bidirectional) HeaderSize() uint64 { return 24 }

// ReferenceSlotOffsets implements ObjectModel.
func (Bidirectional) ReferenceSlotOffsets(obj Object) []uint64 {
	offsets := make([]uint64, len(obj.References))
	for i := range offsets {
		offsets[i] = Bidirectional{}.HeaderSize() + uint64(i)*referenceSlotSize
	}
	return offsets
}

// SlotAddress is a convenience used by nmp.Scan: the virtual address of
// reference slot i of obj under model.
func SlotAddress(model ObjectModel, obj Object, i int) addr.Virtual {
	offsets := model.ReferenceSlotOffsets(obj)
	return obj.Address + addr.Virtual(offsets[i])
}
