package ranges

import (
	"iter"
	"slices"
	"sort"
)

// Store holds disjoint ranges sorted by their start index, each with a value.
//
// Touching ranges whose values are equal are always kept merged into one
// range. Add and EraseSpan merge at the seams they create; InsertSpan and
// Remove never create such neighbours.
//
// A Store is not safe for concurrent use.
type Store[T any] struct {
	items   []Item[T]
	equal   func(a, b T) bool
	changed func(Change[T])
}

// New returns an empty store that compares values with ==.
func New[T comparable]() *Store[T] {
	return NewFunc(func(a, b T) bool { return a == b })
}

// NewFunc returns an empty store that compares values with equal. A nil equal
// function means no two values are ever equal, so ranges are never merged.
func NewFunc[T any](equal func(a, b T) bool) *Store[T] {
	if equal == nil {
		equal = func(T, T) bool { return false }
	}
	return &Store[T]{equal: equal}
}

// SetChangedFunc sets a handler invoked once per stored item affected by
// Remove, after the store has been updated.
func (s *Store[T]) SetChangedFunc(handler func(change Change[T])) *Store[T] {
	s.changed = handler
	return s
}

// Len returns the number of stored ranges.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the stored items in ascending order.
func (s *Store[T]) Items() []Item[T] {
	return slices.Clone(s.items)
}

// Clear removes all ranges without reporting changes.
func (s *Store[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// All iterates over the stored items in ascending order.
func (s *Store[T]) All() iter.Seq[Item[T]] {
	return func(yield func(Item[T]) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Overlapping iterates over the stored items sharing at least one index with r.
func (s *Store[T]) Overlapping(r Range) iter.Seq[Item[T]] {
	return func(yield func(Item[T]) bool) {
		if r.Empty() {
			return
		}
		for i := s.firstEndingAfter(r.Index); i < len(s.items) && s.items[i].Index < r.End(); i++ {
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

// Transform replaces every stored value with the result of fn. Neighbours that
// become equal are merged afterwards.
func (s *Store[T]) Transform(fn func(item Item[T]) T) {
	for i := range s.items {
		s.items[i].Value = fn(s.items[i])
	}
	w := 0
	for i := range s.items {
		if w > 0 && s.touchingEqual(s.items[w-1], s.items[i]) {
			s.items[w-1].Length += s.items[i].Length
			continue
		}
		s.items[w] = s.items[i]
		w++
	}
	clear(s.items[w:])
	s.items = s.items[:w]
}

// Find returns the item whose range contains index.
func (s *Store[T]) Find(index int) (Item[T], bool) {
	i := s.firstEndingAfter(index)
	if i < len(s.items) && s.items[i].Index <= index {
		return s.items[i], true
	}
	return Item[T]{}, false
}

// Add stores value over r. Ranges inside r are dropped, a range containing r
// is split around it, and partial overlaps are trimmed. Empty ranges are
// ignored.
func (s *Store[T]) Add(r Range, value T) {
	if r.Empty() {
		return
	}
	s.punch(r, false)
	pos := s.firstStartingAt(r.Index)
	s.items = slices.Insert(s.items, pos, Item[T]{Range: r, Value: value})

	if pos+1 < len(s.items) && s.touchingEqual(s.items[pos], s.items[pos+1]) {
		s.items[pos].Length += s.items[pos+1].Length
		s.items = slices.Delete(s.items, pos+1, pos+2)
	}
	if pos > 0 && s.touchingEqual(s.items[pos-1], s.items[pos]) {
		s.items[pos-1].Length += s.items[pos].Length
		s.items = slices.Delete(s.items, pos, pos+1)
	}
}

// Remove clears r. Every affected item is reported to the changed handler.
func (s *Store[T]) Remove(r Range) {
	if r.Empty() {
		return
	}
	s.punch(r, true)
}

// InsertSpan opens a gap of r.Length at r.Index: ranges at or after r.Index
// move right, and a range containing r.Index in its interior is split there.
func (s *Store[T]) InsertSpan(r Range) {
	if r.Empty() {
		return
	}
	i := s.firstEndingAfter(r.Index)
	if i == len(s.items) {
		return
	}
	if item := s.items[i]; item.Index < r.Index {
		left := Item[T]{Range: Range{Index: item.Index, Length: r.Index - item.Index}, Value: item.Value}
		right := Item[T]{Range: Range{Index: r.End(), Length: item.End() - r.Index}, Value: item.Value}
		s.items[i] = left
		s.items = slices.Insert(s.items, i+1, right)
		i += 2
	}
	for ; i < len(s.items); i++ {
		s.items[i].Index += r.Length
	}
}

// EraseSpan deletes the indices in r: ranges after r move left by r.Length and
// ranges overlapping r lose the overlapping part, from one or both ends.
func (s *Store[T]) EraseSpan(r Range) {
	if r.Empty() {
		return
	}
	lo := s.firstEndingAfter(r.Index)
	if lo == len(s.items) {
		return
	}

	shift := func(x int) int {
		switch {
		case x <= r.Index:
			return x
		case x >= r.End():
			return x - r.Length
		default:
			return r.Index
		}
	}

	w := lo
	for _, item := range s.items[lo:] {
		start, end := shift(item.Index), shift(item.End())
		if end <= start {
			continue
		}
		s.items[w] = Item[T]{Range: Range{Index: start, Length: end - start}, Value: item.Value}
		w++
	}
	clear(s.items[w:])
	s.items = s.items[:w]

	// The erased span collapses to a single seam at r.Index.
	j := s.firstStartingAt(r.Index)
	if j > 0 && j < len(s.items) && s.touchingEqual(s.items[j-1], s.items[j]) {
		s.items[j-1].Length += s.items[j].Length
		s.items = slices.Delete(s.items, j, j+1)
	}
}

// punch clears r, trimming and splitting the items it overlaps.
func (s *Store[T]) punch(r Range, notify bool) {
	lo := s.firstEndingAfter(r.Index)
	hi := s.firstStartingAt(r.End())
	if lo >= hi {
		return
	}

	var (
		kept    []Item[T]
		changes []Change[T]
	)
	for _, item := range s.items[lo:hi] {
		switch {
		case item.Index < r.Index && item.End() > r.End():
			left := Item[T]{Range: Range{Index: item.Index, Length: r.Index - item.Index}, Value: item.Value}
			right := Item[T]{Range: Range{Index: r.End(), Length: item.End() - r.End()}, Value: item.Value}
			kept = append(kept, left, right)
			changes = append(changes, Change[T]{Kind: ChangeBroken, Before: item, After: []Item[T]{left, right}})
		case item.Index < r.Index:
			head := Item[T]{Range: Range{Index: item.Index, Length: r.Index - item.Index}, Value: item.Value}
			kept = append(kept, head)
			changes = append(changes, Change[T]{Kind: ChangeUpdated, Before: item, After: []Item[T]{head}})
		case item.End() > r.End():
			tail := Item[T]{Range: Range{Index: r.End(), Length: item.End() - r.End()}, Value: item.Value}
			kept = append(kept, tail)
			changes = append(changes, Change[T]{Kind: ChangeUpdated, Before: item, After: []Item[T]{tail}})
		default:
			changes = append(changes, Change[T]{Kind: ChangeRemoved, Before: item})
		}
	}
	s.items = slices.Replace(s.items, lo, hi, kept...)

	if notify && s.changed != nil {
		for _, change := range changes {
			s.changed(change)
		}
	}
}

// firstEndingAfter returns the position of the first item ending after index.
func (s *Store[T]) firstEndingAfter(index int) int {
	return sort.Search(len(s.items), func(i int) bool {
		return s.items[i].End() > index
	})
}

// firstStartingAt returns the position of the first item starting at or after
// index.
func (s *Store[T]) firstStartingAt(index int) int {
	return sort.Search(len(s.items), func(i int) bool {
		return s.items[i].Index >= index
	})
}

func (s *Store[T]) touchingEqual(a, b Item[T]) bool {
	return a.End() == b.Index && s.equal(a.Value, b.Value)
}
