// Package loader is the external-collaborator boundary between a heap
// snapshot file on disk and an in-memory heap.Snapshot. Per spec.md §1,
// snapshot decoding from protobuf is explicitly out of scope for the
// simulation core; this package only wires the zstd decompression stage
// (a real dependency the simulator does own) and exposes a narrow
// Decoder interface for whatever record format sits on the other side of
// it, so the core can be exercised end to end without depending on the
// protobuf schema itself.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/zixian-cai/hwgc-soft/heap"
)

// Decoder turns a decompressed snapshot byte stream into a heap.Snapshot.
// The production decoder for the frozen protobuf schema of spec.md §6 is
// an external collaborator; RecordDecoder below is a self-contained
// stand-in used by this repository's own tests and tooling.
type Decoder interface {
	Decode(r io.Reader) (*heap.Snapshot, error)
}

// Loader loads a zstd-compressed snapshot file and hands the
// decompressed stream to a Decoder.
type Loader struct {
	decoder Decoder
}

// New builds a Loader that decodes with decoder.
func New(decoder Decoder) *Loader {
	return &Loader{decoder: decoder}
}

// Load opens path, zstd-decompresses it, and decodes it into a
// heap.Snapshot. Failures are reported as plain errors, per spec.md §7:
// a snapshot parse failure is fatal but is never a panic — it is an
// expected category of user-facing failure.
func (l *Loader) Load(path string) (*heap.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: zstd: %w", path, err)
	}
	defer zr.Close()

	snap, err := l.decoder.Decode(zr)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return snap, nil
}
