// Package virtual keeps a scrollable viewport in step with a large, mutating
// item collection. Only the items inside the viewport are ever materialized;
// everything else is represented by cached heights.
//
// All types in this package are meant to be used from a single goroutine,
// usually the UI event loop. Updates from other goroutines must be marshaled
// onto that goroutine first, for example with Application.QueueUpdate.
package virtual

import "github.com/xqrs/vlist/heights"

// DataObserver receives mutation events from a data source. Events are
// delivered synchronously and in order; each event's indices refer to the
// collection as it is after all previous events.
type DataObserver interface {
	DataAdded(index, count int)
	DataRemoved(index, count int)
	DataUpdated(index, count int)
	DataMoved(from, to int)
}

// DataSource is an observable item collection.
type DataSource interface {
	heights.Source
	// Observe registers observer and returns a function that cancels the
	// registration.
	Observe(observer DataObserver) (cancel func())
}

// Delegate measures items. See [heights.Delegate].
type Delegate = heights.Delegate

// ItemContainer owns the visual rows of a list. The core tells it which item
// indices are visible and how existing rows shift when the data changes.
type ItemContainer interface {
	// Reset drops every materialized row.
	Reset()
	// ItemsInserted shifts rows at or after index down by count.
	ItemsInserted(index, count int)
	// ItemsRemoved drops rows in [index, index+count) and shifts later rows up.
	ItemsRemoved(index, count int)
	// ItemsUpdated invalidates rows in [index, index+count).
	ItemsUpdated(index, count int)
	// ItemMoved relocates the row at from to to.
	ItemMoved(from, to int)
	// SetVisibleRange materializes rows for [index, index+count) and recycles
	// all others.
	SetVisibleRange(index, count int)
}

// Extent describes the scrollable content for scroll bars.
type Extent struct {
	// Content is the total height of all items.
	Content float64
	// Viewport is the visible height.
	Viewport float64
	// Offset is the scroll position, between 0 and MaxOffset.
	Offset float64
	// Step is the small scroll change, one fixed item height. It is left
	// unchanged while item heights are variable.
	Step float64
}

// MaxOffset returns the largest valid scroll offset.
func (e Extent) MaxOffset() float64 {
	return max(e.Content-e.Viewport, 0)
}

// AtEnd reports whether the viewport shows the end of the content.
func (e Extent) AtEnd() bool {
	return e.Offset >= e.MaxOffset()
}
