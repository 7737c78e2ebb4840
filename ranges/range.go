// Package ranges keeps a sparse, sorted mapping from disjoint integer ranges to
// values. It is used for styled text spans and per-index metadata such as the
// list selection.
package ranges

import "fmt"

// Range is the half-open interval [Index, Index+Length).
type Range struct {
	Index  int
	Length int
}

// End returns the first index after the range.
func (r Range) End() int {
	return r.Index + r.Length
}

// Empty reports whether the range covers no index.
func (r Range) Empty() bool {
	return r.Length <= 0
}

// Contains reports whether index lies inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Index && index < r.End()
}

// Overlaps reports whether the two ranges share at least one index.
func (r Range) Overlaps(other Range) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.Index < other.End() && other.Index < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Index, r.End())
}

// Item is a range with its attached value.
type Item[T any] struct {
	Range
	Value T
}

// ChangeKind describes what happened to a stored item during a removal.
type ChangeKind uint8

const (
	// ChangeRemoved means the item was deleted entirely.
	ChangeRemoved ChangeKind = iota
	// ChangeUpdated means the item was trimmed at its head or tail.
	ChangeUpdated
	// ChangeBroken means the item was split in two around the removed range.
	ChangeBroken
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeRemoved:
		return "removed"
	case ChangeUpdated:
		return "updated"
	case ChangeBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Change is reported for every stored item touched by [Store.Remove]. Before
// is the item as it was. After holds nothing for ChangeRemoved, the trimmed
// item for ChangeUpdated, and the left and right halves for ChangeBroken.
type Change[T any] struct {
	Kind   ChangeKind
	Before Item[T]
	After  []Item[T]
}
