package primitives

import "fmt"

// ID identifies a live machine within a process. It is opaque by design —
// the value ADT that backs machine identity is external to the core, so
// ID only supports construction, equality, and formatting, mirroring
// PrtAreGuidsEqual's contract in the original P runtime this core is
// modeled on.
type ID struct {
	raw uint64
}

// NewID constructs an ID from a raw monotonic counter. Hosts embedding a
// richer identity scheme (UUIDs, GUIDs) can still key off raw as long as
// it is unique per-process.
func NewID(raw uint64) ID { return ID{raw: raw} }

func (id ID) Equal(other ID) bool { return id.raw == other.raw }

func (id ID) String() string { return fmt.Sprintf("machine-%d", id.raw) }

// IsZero reports whether id is the zero-value ID (never assigned to a
// live machine).
func (id ID) IsZero() bool { return id.raw == 0 }
