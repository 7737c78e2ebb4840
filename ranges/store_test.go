package ranges

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Randomized test constants.
const (
	fuzzSeed       = 20261016
	fuzzRounds     = 500
	fuzzSpace      = 60
	fuzzMaxLength  = 12
	fuzzAddsPerRun = 8
)

func item(index, length int, value string) Item[string] {
	return Item[string]{Range: Range{Index: index, Length: length}, Value: value}
}

func TestRange(t *testing.T) {
	t.Parallel()

	r := Range{Index: 5, Length: 3}
	assert.Equal(t, 8, r.End())
	assert.True(t, r.Contains(5))
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(8))
	assert.False(t, r.Contains(4))
	assert.True(t, r.Overlaps(Range{Index: 7, Length: 10}))
	assert.False(t, r.Overlaps(Range{Index: 8, Length: 10}))
	assert.False(t, r.Overlaps(Range{Index: 6, Length: 0}))
	assert.True(t, Range{Index: 1}.Empty())
	assert.Equal(t, "[5,8)", r.String())
}

func TestStore_Add(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []Item[string]
		add   Item[string]
		want  []Item[string]
	}{
		{
			name: "into empty store",
			add:  item(3, 2, "A"),
			want: []Item[string]{item(3, 2, "A")},
		},
		{
			name:  "drops contained ranges",
			setup: []Item[string]{item(2, 1, "A"), item(4, 2, "B")},
			add:   item(0, 10, "C"),
			want:  []Item[string]{item(0, 10, "C")},
		},
		{
			name:  "splits a containing range",
			setup: []Item[string]{item(0, 10, "A")},
			add:   item(3, 2, "B"),
			want:  []Item[string]{item(0, 3, "A"), item(3, 2, "B"), item(5, 5, "A")},
		},
		{
			name:  "trims partial overlaps at both ends",
			setup: []Item[string]{item(0, 5, "A"), item(8, 5, "B")},
			add:   item(3, 7, "C"),
			want:  []Item[string]{item(0, 3, "A"), item(3, 7, "C"), item(10, 3, "B")},
		},
		{
			name:  "merges touching equal neighbours",
			setup: []Item[string]{item(0, 2, "A"), item(4, 2, "A")},
			add:   item(2, 2, "A"),
			want:  []Item[string]{item(0, 6, "A")},
		},
		{
			name:  "keeps touching neighbours with other values",
			setup: []Item[string]{item(0, 2, "A")},
			add:   item(2, 2, "B"),
			want:  []Item[string]{item(0, 2, "A"), item(2, 2, "B")},
		},
		{
			name:  "overwriting the middle with the same value keeps one range",
			setup: []Item[string]{item(0, 10, "A")},
			add:   item(3, 2, "A"),
			want:  []Item[string]{item(0, 10, "A")},
		},
		{
			name:  "zero length is ignored",
			setup: []Item[string]{item(0, 10, "A")},
			add:   item(3, 0, "B"),
			want:  []Item[string]{item(0, 10, "A")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New[string]()
			for _, it := range tt.setup {
				s.Add(it.Range, it.Value)
			}
			s.Add(tt.add.Range, tt.add.Value)
			assert.Equal(t, tt.want, nonNil(s.Items()))
		})
	}
}

func TestStore_RemoveNotifications(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Add(Range{Index: 0, Length: 4}, "A")
	s.Add(Range{Index: 6, Length: 2}, "B")
	s.Add(Range{Index: 10, Length: 4}, "C")
	s.Add(Range{Index: 20, Length: 10}, "D")

	var changes []Change[string]
	s.SetChangedFunc(func(change Change[string]) {
		changes = append(changes, change)
	})

	s.Remove(Range{Index: 2, Length: 10})
	s.Remove(Range{Index: 24, Length: 2})

	assert.Equal(t, []Item[string]{
		item(0, 2, "A"),
		item(12, 2, "C"),
		item(20, 4, "D"),
		item(26, 4, "D"),
	}, s.Items())

	require.Len(t, changes, 4)
	assert.Equal(t, ChangeUpdated, changes[0].Kind)
	assert.Equal(t, item(0, 4, "A"), changes[0].Before)
	assert.Equal(t, []Item[string]{item(0, 2, "A")}, changes[0].After)
	assert.Equal(t, ChangeRemoved, changes[1].Kind)
	assert.Equal(t, item(6, 2, "B"), changes[1].Before)
	assert.Empty(t, changes[1].After)
	assert.Equal(t, ChangeUpdated, changes[2].Kind)
	assert.Equal(t, []Item[string]{item(12, 2, "C")}, changes[2].After)
	assert.Equal(t, ChangeBroken, changes[3].Kind)
	assert.Equal(t, []Item[string]{item(20, 4, "D"), item(26, 4, "D")}, changes[3].After)
}

func TestStore_RemoveSpanningTwoIntervals(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Add(Range{Index: 0, Length: 2}, "0")
	s.Add(Range{Index: 5, Length: 1}, "1")
	s.Add(Range{Index: 10, Length: 3}, "2")

	var kinds []ChangeKind
	s.SetChangedFunc(func(change Change[string]) {
		kinds = append(kinds, change.Kind)
	})

	s.Remove(Range{Index: 4, Length: 3})

	assert.Equal(t, []Item[string]{item(0, 2, "0"), item(10, 3, "2")}, s.Items())
	assert.Equal(t, []ChangeKind{ChangeRemoved}, kinds)

	s.Remove(Range{Index: 0, Length: 0})
	assert.Equal(t, 2, s.Len())
}

func TestStore_InsertSpan(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Add(Range{Index: 5, Length: 4}, "A")
	s.Add(Range{Index: 20, Length: 4}, "B")

	s.InsertSpan(Range{Index: 6, Length: 2})

	assert.Equal(t, []Item[string]{
		item(5, 1, "A"),
		item(8, 3, "A"),
		item(22, 4, "B"),
	}, s.Items())
}

func TestStore_InsertSpanAtBoundaries(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Add(Range{Index: 5, Length: 4}, "A")

	// At the start the whole range moves.
	s.InsertSpan(Range{Index: 5, Length: 1})
	assert.Equal(t, []Item[string]{item(6, 4, "A")}, s.Items())

	// At the end nothing moves.
	s.InsertSpan(Range{Index: 10, Length: 3})
	assert.Equal(t, []Item[string]{item(6, 4, "A")}, s.Items())

	s.InsertSpan(Range{Index: 0, Length: 0})
	assert.Equal(t, []Item[string]{item(6, 4, "A")}, s.Items())
}

func TestStore_EraseSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []Item[string]
		erase Range
		want  []Item[string]
	}{
		{
			name:  "shifts ranges after the span",
			setup: []Item[string]{item(0, 2, "A"), item(10, 2, "B")},
			erase: Range{Index: 4, Length: 3},
			want:  []Item[string]{item(0, 2, "A"), item(7, 2, "B")},
		},
		{
			name:  "shortens from both ends when the span is interior",
			setup: []Item[string]{item(0, 10, "A")},
			erase: Range{Index: 3, Length: 4},
			want:  []Item[string]{item(0, 6, "A")},
		},
		{
			name:  "shortens overlapping heads and tails",
			setup: []Item[string]{item(0, 5, "A"), item(8, 5, "B")},
			erase: Range{Index: 3, Length: 7},
			want:  []Item[string]{item(0, 3, "A"), item(3, 3, "B")},
		},
		{
			name:  "drops fully erased ranges",
			setup: []Item[string]{item(0, 2, "A"), item(4, 2, "B"), item(8, 2, "C")},
			erase: Range{Index: 3, Length: 4},
			want:  []Item[string]{item(0, 2, "A"), item(4, 2, "C")},
		},
		{
			name:  "merges equal neighbours meeting at the seam",
			setup: []Item[string]{item(0, 2, "A"), item(5, 2, "A")},
			erase: Range{Index: 2, Length: 3},
			want:  []Item[string]{item(0, 4, "A")},
		},
		{
			name:  "erasing past every range is a no-op",
			setup: []Item[string]{item(0, 2, "A")},
			erase: Range{Index: 2, Length: 3},
			want:  []Item[string]{item(0, 2, "A")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New[string]()
			for _, it := range tt.setup {
				s.Add(it.Range, it.Value)
			}
			s.EraseSpan(tt.erase)
			assert.Equal(t, tt.want, s.Items())
		})
	}
}

func TestStore_Find(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Add(Range{Index: 2, Length: 3}, "A")
	s.Add(Range{Index: 9, Length: 1}, "B")

	_, ok := s.Find(1)
	assert.False(t, ok)

	got, ok := s.Find(4)
	require.True(t, ok)
	assert.Equal(t, item(2, 3, "A"), got)

	_, ok = s.Find(5)
	assert.False(t, ok)

	got, ok = s.Find(9)
	require.True(t, ok)
	assert.Equal(t, "B", got.Value)

	_, ok = s.Find(10)
	assert.False(t, ok)
}

func TestStore_Iteration(t *testing.T) {
	t.Parallel()

	s := New[int]()
	s.Add(Range{Index: 0, Length: 2}, 1)
	s.Add(Range{Index: 4, Length: 2}, 2)
	s.Add(Range{Index: 8, Length: 2}, 3)

	var starts []int
	for it := range s.All() {
		starts = append(starts, it.Index)
	}
	assert.Equal(t, []int{0, 4, 8}, starts)

	var values []int
	for it := range s.Overlapping(Range{Index: 5, Length: 4}) {
		values = append(values, it.Value)
	}
	assert.Equal(t, []int{2, 3}, values)

	// Transform is the mutable iteration; equal neighbours merge afterwards.
	s.Add(Range{Index: 2, Length: 2}, 9)
	s.Transform(func(it Item[int]) int { return 7 })
	assert.Equal(t, []Item[int]{
		{Range: Range{Index: 0, Length: 6}, Value: 7},
		{Range: Range{Index: 8, Length: 2}, Value: 7},
	}, s.Items())

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestStore_NilEqualNeverMerges(t *testing.T) {
	t.Parallel()

	s := NewFunc[[]byte](nil)
	s.Add(Range{Index: 0, Length: 2}, []byte("a"))
	s.Add(Range{Index: 2, Length: 2}, []byte("a"))
	assert.Equal(t, 2, s.Len())
}

// TestStore_InsertThenEraseRestores checks that opening a gap and erasing it
// again yields the original ranges for arbitrary stores and positions.
func TestStore_InsertThenEraseRestores(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(fuzzSeed))
	values := []string{"A", "B", "C"}

	for round := 0; round < fuzzRounds; round++ {
		s := New[string]()
		for i := 0; i < fuzzAddsPerRun; i++ {
			s.Add(Range{Index: rng.Intn(fuzzSpace), Length: rng.Intn(fuzzMaxLength)}, values[rng.Intn(len(values))])
		}
		before := s.Items()

		span := Range{Index: rng.Intn(fuzzSpace + fuzzMaxLength), Length: rng.Intn(fuzzMaxLength)}
		s.InsertSpan(span)
		s.EraseSpan(span)

		require.Equal(t, before, s.Items(), "round %d span %v", round, span)
	}
}

// TestStore_AddOverwrites checks Add against a per-index model.
func TestStore_AddOverwrites(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(fuzzSeed + 1))
	values := []string{"A", "B", "C"}

	for round := 0; round < fuzzRounds; round++ {
		s := New[string]()
		model := make(map[int]string)
		for i := 0; i < fuzzAddsPerRun; i++ {
			r := Range{Index: rng.Intn(fuzzSpace), Length: rng.Intn(fuzzMaxLength)}
			v := values[rng.Intn(len(values))]
			s.Add(r, v)
			for x := r.Index; x < r.End(); x++ {
				model[x] = v
			}
		}

		for x := 0; x < fuzzSpace+fuzzMaxLength; x++ {
			got, ok := s.Find(x)
			want, covered := model[x]
			require.Equal(t, covered, ok, "round %d index %d", round, x)
			if covered {
				require.Equal(t, want, got.Value, "round %d index %d", round, x)
			}
		}

		items := s.Items()
		for i := 1; i < len(items); i++ {
			require.LessOrEqual(t, items[i-1].End(), items[i].Index)
			if items[i-1].End() == items[i].Index {
				require.NotEqual(t, items[i-1].Value, items[i].Value)
			}
		}
	}
}

func nonNil[T any](items []Item[T]) []Item[T] {
	if items == nil {
		return []Item[T]{}
	}
	return items
}
