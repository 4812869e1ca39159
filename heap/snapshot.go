// Package heap provides a read-only accessor over a decoded heap
// snapshot: per-object metadata, reference slots, and the root set. The
// snapshot is immutable and shared by every processor once loaded; no
// synchronization is needed in this single-threaded simulator.
package heap

import "github.com/zixian-cai/hwgc-soft/addr"

// Object describes one heap object as captured in the snapshot: its
// address, size, a class identifier, and the addresses of every object
// it directly references.
type Object struct {
	Address    addr.Virtual
	Size       uint32
	ClassID    uint32
	References []addr.Virtual
}

// Snapshot is the immutable, read-only view over a decoded heap, shared
// by every NMPProcessor. It is loaded once at startup and never mutated
// afterward.
type Snapshot struct {
	objects map[addr.Virtual]Object
	roots   []addr.Virtual
}

// New builds a Snapshot from its decoded objects and root set. The root
// order is preserved exactly as given, since it is load-bearing for
// determinism (spec.md §4.10 seeds processor 0's work queue "for the
// entire root set in snapshot order").
func New(objects []Object, roots []addr.Virtual) *Snapshot {
	index := make(map[addr.Virtual]Object, len(objects))
	for _, obj := range objects {
		index[obj.Address] = obj
	}
	return &Snapshot{objects: index, roots: roots}
}

// Roots returns the root set in snapshot order.
func (s *Snapshot) Roots() []addr.Virtual {
	return s.roots
}

// Object looks up the object header at addr, if any exists there.
func (s *Snapshot) Object(va addr.Virtual) (Object, bool) {
	obj, ok := s.objects[va]
	return obj, ok
}

// Len returns the number of objects in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.objects)
}

// Objects returns every object in the snapshot, in no particular order.
// Used to merge several decoded snapshot chunks into one (see
// snapshot/loader and cmd/hwgc-soft), since the simulator otherwise only
// ever needs point lookups by address.
func (s *Snapshot) Objects() []Object {
	objects := make([]Object, 0, len(s.objects))
	for _, obj := range s.objects {
		objects = append(objects, obj)
	}
	return objects
}

// Merge combines several snapshots into one: objects are unioned (a
// later snapshot's object wins on an address collision), and roots are
// concatenated in snapshot order, preserving the determinism-critical
// ordering within each input snapshot's own root set.
func Merge(snapshots ...*Snapshot) *Snapshot {
	var objects []Object
	var roots []addr.Virtual
	for _, s := range snapshots {
		objects = append(objects, s.Objects()...)
		roots = append(roots, s.Roots()...)
	}
	return New(objects, roots)
}
