package virtual

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events []string
}

func (r *recorder) DataAdded(index, count int)   { r.record("added", index, count) }
func (r *recorder) DataRemoved(index, count int) { r.record("removed", index, count) }
func (r *recorder) DataUpdated(index, count int) { r.record("updated", index, count) }
func (r *recorder) DataMoved(from, to int)       { r.record("moved", from, to) }

func (r *recorder) record(kind string, a, b int) {
	r.events = append(r.events, fmt.Sprintf("%s %d %d", kind, a, b))
}

func TestSlice_Mutations(t *testing.T) {
	t.Parallel()

	source := NewSlice("a", "b")
	rec := &recorder{}
	cancel := source.Observe(rec)

	assert.True(t, source.Insert(1, "x", "y"))
	assert.True(t, source.Set(0, "z"))
	assert.True(t, source.Move(3, 0))
	assert.True(t, source.Remove(1, 2))
	assert.Equal(t, []string{"b", "y"}, source.Items())

	assert.False(t, source.Remove(2, 5))
	assert.False(t, source.Insert(9, "q"))
	assert.False(t, source.Move(0, 9))
	assert.False(t, source.Set(1, "p", "q"))
	assert.True(t, source.Insert(0))
	assert.True(t, source.Move(1, 1))

	cancel()
	source.Append("c")
	assert.Equal(t, []string{"added 1 2", "updated 0 1", "moved 3 0", "removed 1 2"}, rec.events)
	assert.Equal(t, 3, source.DataCount())
	assert.Equal(t, "c", source.DataAt(2))
}

func TestSlice_Replace(t *testing.T) {
	t.Parallel()

	source := NewSlice(1, 2, 3)
	rec := &recorder{}
	source.Observe(rec)

	source.Replace(7, 8)
	assert.Equal(t, []int{7, 8}, source.Items())
	assert.Equal(t, []string{"removed 0 3", "added 0 2"}, rec.events)
}

func TestSlice_CancelDuringNotify(t *testing.T) {
	t.Parallel()

	source := NewSlice(1)
	first, second := &recorder{}, &recorder{}
	var cancelSecond func()
	source.Observe(&cancelling{recorder: first, cancel: func() { cancelSecond() }})
	cancelSecond = source.Observe(second)

	source.Append(2)
	source.Append(3)
	assert.Len(t, first.events, 2)
	assert.Empty(t, second.events, "a cancelled observer gets no further events")
}

// cancelling cancels another observer on its first event.
type cancelling struct {
	*recorder
	cancel func()
}

func (c *cancelling) DataAdded(index, count int) {
	c.recorder.DataAdded(index, count)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// reacting calls added after recording each addition.
type reacting struct {
	recorder
	added func(index, count int)
}

func (r *reacting) DataAdded(index, count int) {
	r.recorder.DataAdded(index, count)
	if r.added != nil {
		r.added(index, count)
	}
}

func TestSlice_NestedMutationsKeepOrder(t *testing.T) {
	t.Parallel()

	source := NewSlice("a", "b", "c")
	var log []string
	first := &reacting{}
	first.added = func(index, count int) {
		log = append(log, fmt.Sprintf("first added %d %d", index, count))
		if index == 3 {
			source.Insert(0, "y")
		}
	}
	second := &reacting{}
	var seen []any
	second.added = func(index, count int) {
		log = append(log, fmt.Sprintf("second added %d %d", index, count))
		seen = append(seen, source.DataAt(index))
	}
	source.Observe(first)
	source.Observe(second)

	source.Append("x")

	assert.Equal(t, []string{
		"first added 3 1",
		"second added 3 1",
		"first added 0 1",
		"second added 0 1",
	}, log)
	assert.Equal(t, first.events, second.events)
	assert.Equal(t, []any{"x", "y"}, seen, "reads match the event being delivered")
	assert.Equal(t, []string{"y", "a", "b", "c", "x"}, source.Items())
}

func TestSlice_ReadsDuringNestedRemove(t *testing.T) {
	t.Parallel()

	source := NewSlice(1, 2)
	remover := &reacting{}
	remover.added = func(index, count int) {
		source.Remove(index, count)
	}
	source.Observe(remover)
	var counts []int
	source.Observe(&reacting{added: func(index, count int) {
		counts = append(counts, source.DataCount())
		assert.Equal(t, 3, source.DataAt(index))
	}})

	source.Append(3)
	assert.Equal(t, []int{3}, counts)
	assert.Equal(t, []int{1, 2}, source.Items())
	assert.Equal(t, 2, source.Len())
}

func TestSlice_ObserveDuringNotify(t *testing.T) {
	t.Parallel()

	source := NewSlice(1)
	late := &recorder{}
	var lateCount int
	first := &reacting{}
	first.added = func(index, count int) {
		if index == 1 {
			source.Insert(0, 0)
			lateCount = source.DataCount()
			source.Observe(late)
		}
	}
	source.Observe(first)

	source.Append(2)
	assert.Equal(t, 2, lateCount, "a new observer reads the items of the event being delivered")
	assert.Equal(t, []string{"added 0 1"}, late.events)
	assert.Equal(t, []string{"added 1 1", "added 0 1"}, first.events)
}
