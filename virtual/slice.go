package virtual

import (
	"slices"
)

type sliceObserver struct {
	id       int
	observer DataObserver
	// since is the last event whose items the observer could already read
	// when it registered.
	since int
}

// sliceEvent is a queued notification. Nested events carry the items as they
// were right after their mutation.
type sliceEvent[T any] struct {
	notify func(o DataObserver)
	nested bool
	items  []T
	seq    int
}

// Slice is an in-memory data source. Every mutation notifies the observers
// synchronously, in registration order, after the slice has changed.
//
// Mutations made by an observer while it is notified are queued and delivered
// once the current event has reached every observer, so all observers see the
// same order. While an event is delivered, reads return the items as they were
// right after that event's mutation.
//
// Mutations with indices outside the slice are ignored and reported as false.
type Slice[T any] struct {
	items     []T
	observers []sliceObserver
	nextID    int

	pending    []sliceEvent[T]
	seq        int
	delivering int
	notifying  bool
	view       []T
	viewFrozen bool
}

// NewSlice returns a data source holding items.
func NewSlice[T any](items ...T) *Slice[T] {
	return &Slice[T]{items: slices.Clone(items)}
}

// DataCount implements [DataSource].
func (s *Slice[T]) DataCount() int {
	return len(s.current())
}

// DataAt implements [DataSource].
func (s *Slice[T]) DataAt(index int) any {
	return s.current()[index]
}

// Observe implements [DataSource].
func (s *Slice[T]) Observe(observer DataObserver) (cancel func()) {
	id := s.nextID
	s.nextID++
	since := s.seq
	if s.notifying {
		since = s.delivering
	}
	s.observers = append(s.observers, sliceObserver{id: id, observer: observer, since: since})
	return func() {
		s.observers = slices.DeleteFunc(s.observers, func(o sliceObserver) bool {
			return o.id == id
		})
	}
}

// Len returns the number of items.
func (s *Slice[T]) Len() int {
	return len(s.current())
}

// At returns the item at index.
func (s *Slice[T]) At(index int) T {
	return s.current()[index]
}

// Items returns a copy of all items.
func (s *Slice[T]) Items() []T {
	return slices.Clone(s.current())
}

// Append adds items at the end.
func (s *Slice[T]) Append(items ...T) {
	s.Insert(len(s.items), items...)
}

// Insert adds items before index.
func (s *Slice[T]) Insert(index int, items ...T) bool {
	if index < 0 || index > len(s.items) {
		return false
	}
	if len(items) == 0 {
		return true
	}
	s.freeze()
	s.items = slices.Insert(s.items, index, items...)
	s.notify(func(o DataObserver) { o.DataAdded(index, len(items)) })
	return true
}

// Remove deletes count items starting at index.
func (s *Slice[T]) Remove(index, count int) bool {
	if index < 0 || count < 0 || index > len(s.items) || count > len(s.items)-index {
		return false
	}
	if count == 0 {
		return true
	}
	s.freeze()
	s.items = slices.Delete(s.items, index, index+count)
	s.notify(func(o DataObserver) { o.DataRemoved(index, count) })
	return true
}

// Set replaces the items starting at index.
func (s *Slice[T]) Set(index int, items ...T) bool {
	if index < 0 || index > len(s.items) || len(items) > len(s.items)-index {
		return false
	}
	if len(items) == 0 {
		return true
	}
	s.freeze()
	copy(s.items[index:], items)
	s.notify(func(o DataObserver) { o.DataUpdated(index, len(items)) })
	return true
}

// Move relocates the item at from so that it ends up at index to.
func (s *Slice[T]) Move(from, to int) bool {
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return false
	}
	if from == to {
		return true
	}
	s.freeze()
	item := s.items[from]
	s.items = slices.Delete(s.items, from, from+1)
	s.items = slices.Insert(s.items, to, item)
	s.notify(func(o DataObserver) { o.DataMoved(from, to) })
	return true
}

// Replace swaps the whole content, reported as a removal followed by an
// insertion.
func (s *Slice[T]) Replace(items ...T) {
	s.Remove(0, len(s.items))
	s.Insert(0, items...)
}

func (s *Slice[T]) current() []T {
	if s.viewFrozen {
		return s.view
	}
	return s.items
}

// freeze keeps the items of the event being delivered readable before a
// nested mutation changes them.
func (s *Slice[T]) freeze() {
	if s.notifying && !s.viewFrozen {
		s.view = slices.Clone(s.items)
		s.viewFrozen = true
	}
}

func (s *Slice[T]) notify(fn func(o DataObserver)) {
	s.seq++
	event := sliceEvent[T]{notify: fn, seq: s.seq}
	if s.notifying {
		event.nested, event.items = true, slices.Clone(s.items)
		s.pending = append(s.pending, event)
		return
	}

	s.notifying = true
	defer func() {
		s.notifying = false
		s.pending = nil
		s.view, s.viewFrozen = nil, false
	}()

	s.pending = append(s.pending, event)
	for len(s.pending) > 0 {
		event := s.pending[0]
		s.pending = s.pending[1:]
		s.view, s.viewFrozen = event.items, event.nested
		s.delivering = event.seq
		// Observers may cancel while being notified.
		for _, o := range slices.Clone(s.observers) {
			if o.since < event.seq && s.observing(o.id) {
				event.notify(o.observer)
			}
		}
	}
}

func (s *Slice[T]) observing(id int) bool {
	return slices.ContainsFunc(s.observers, func(o sliceObserver) bool {
		return o.id == id
	})
}
