package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/heap"
)

// RecordDecoder decodes a small, self-contained binary record format:
//
//	uint32le object_count
//	object_count * {
//	    uint64le address
//	    uint32le size
//	    uint32le class_id
//	    uint32le reference_count
//	    reference_count * uint64le reference
//	}
//	uint32le root_count
//	root_count * uint64le root_address
//
// This stands in for the frozen protobuf schema of spec.md §6, which is
// an external collaborator this repository never implements; it exists
// so snapshot/loader's zstd-decompression stage has a real decoder to
// drive in tests and example tooling.
type RecordDecoder struct{}

// Decode implements Decoder.
func (RecordDecoder) Decode(r io.Reader) (*heap.Snapshot, error) {
	var objectCount uint32
	if err := binary.Read(r, binary.LittleEndian, &objectCount); err != nil {
		return nil, fmt.Errorf("record: read object count: %w", err)
	}

	objects := make([]heap.Object, objectCount)
	for i := range objects {
		var address uint64
		var size, classID, refCount uint32
		if err := binary.Read(r, binary.LittleEndian, &address); err != nil {
			return nil, fmt.Errorf("record: object %d: address: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("record: object %d: size: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &classID); err != nil {
			return nil, fmt.Errorf("record: object %d: class id: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &refCount); err != nil {
			return nil, fmt.Errorf("record: object %d: reference count: %w", i, err)
		}

		refs := make([]addr.Virtual, refCount)
		for j := range refs {
			var ref uint64
			if err := binary.Read(r, binary.LittleEndian, &ref); err != nil {
				return nil, fmt.Errorf("record: object %d: reference %d: %w", i, j, err)
			}
			refs[j] = addr.Virtual(ref)
		}

		objects[i] = heap.Object{
			Address:    addr.Virtual(address),
			Size:       size,
			ClassID:    classID,
			References: refs,
		}
	}

	var rootCount uint32
	if err := binary.Read(r, binary.LittleEndian, &rootCount); err != nil {
		return nil, fmt.Errorf("record: read root count: %w", err)
	}
	roots := make([]addr.Virtual, rootCount)
	for i := range roots {
		var root uint64
		if err := binary.Read(r, binary.LittleEndian, &root); err != nil {
			return nil, fmt.Errorf("record: root %d: %w", i, err)
		}
		roots[i] = addr.Virtual(root)
	}

	return heap.New(objects, roots), nil
}

// Encode serializes a snapshot's objects and roots into the
// RecordDecoder's wire format. Used by this repository's own tests to build fixtures; the
// production snapshot format never round-trips through this encoder.
func Encode(objects []heap.Object, roots []addr.Virtual) []byte {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, uint32(len(objects)))
	for _, obj := range objects {
		binary.Write(&buf, binary.LittleEndian, uint64(obj.Address))
		binary.Write(&buf, binary.LittleEndian, obj.Size)
		binary.Write(&buf, binary.LittleEndian, obj.ClassID)
		binary.Write(&buf, binary.LittleEndian, uint32(len(obj.References)))
		for _, ref := range obj.References {
			binary.Write(&buf, binary.LittleEndian, uint64(ref))
		}
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(roots)))
	for _, root := range roots {
		binary.Write(&buf, binary.LittleEndian, uint64(root))
	}

	return buf.Bytes()
}
