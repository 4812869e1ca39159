package gc

import "fmt"

// SnapshotError wraps a snapshot load failure with the file name, per
// spec.md §7's requirement to report the offending file.
type SnapshotError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *SnapshotError) Error() string {
	return fmt.Sprintf("gc: failed to load snapshot %s: %v", e.Path, e.Err)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *SnapshotError) Unwrap() error { return e.Err }
