package training

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBatches builds b batches of n items each, with ids 1..b*n in order.
func makeBatches(b, n int) []Batch {
	batches := make([]Batch, b)
	id := 1
	for i := range batches {
		batches[i].Index = i + 1
		for j := 0; j < n; j++ {
			batches[i].Items = append(batches[i].Items, Item{ID: id, Title: fmt.Sprintf("story %d", id), Content: fmt.Sprintf("text %d", id)})
			id++
		}
	}
	return batches
}

func newTestScheduler(t *testing.T, b, n int, starts map[string]int) *Scheduler {
	t.Helper()
	catalog, err := NewCatalog(makeBatches(b, n))
	require.NoError(t, err)
	regions, err := NewRegionMap(starts, catalog.BatchCount())
	require.NoError(t, err)
	sched, err := NewScheduler(catalog, regions)
	require.NoError(t, err)
	return sched
}

func ids(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name    string
		k, b    int
		want    []int
		wantErr error
	}{
		{name: "start at 1", k: 1, b: 4, want: []int{1, 2, 3, 4}},
		{name: "start in the middle", k: 3, b: 4, want: []int{3, 4, 1, 2}},
		{name: "start at last", k: 9, b: 9, want: []int{9, 1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "single batch", k: 1, b: 1, want: []int{1}},
		{name: "start 0", k: 0, b: 4, wantErr: ErrInvalidStartBatch},
		{name: "start past count", k: 5, b: 4, wantErr: ErrInvalidStartBatch},
		{name: "no batches", k: 1, b: 0, wantErr: ErrInvalidStartBatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rotate(tt.k, tt.b)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "Rotate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRotate_Formula(t *testing.T) {
	for b := 1; b <= 12; b++ {
		for k := 1; k <= b; k++ {
			got, err := Rotate(k, b)
			require.NoError(t, err)
			require.Len(t, got, b)

			seen := make(map[int]bool, b)
			for i, index := range got {
				assert.Equal(t, ((k-1+i)%b)+1, index, "Rotate(%d, %d)[%d]", k, b, i)
				seen[index] = true
			}
			assert.Len(t, seen, b, "Rotate(%d, %d) is not a permutation", k, b)
		}
	}
}

func TestScheduler_Coverage(t *testing.T) {
	sched := newTestScheduler(t, 5, 4, map[string]int{"A": 1, "B": 3, "C": 5})

	for _, region := range []string{"", "A", "B", "C", "unknown"} {
		t.Run(region, func(t *testing.T) {
			completed := NewCompletedSet()
			var served []int
			for {
				it, ok := sched.NextItem(region, completed)
				if !ok {
					break
				}
				require.False(t, completed.Has(it.ID), "item %d served twice", it.ID)
				served = append(served, it.ID)
				completed[it.ID] = struct{}{}
			}
			assert.ElementsMatch(t, ids(sched.Catalog().AllItems()), served)
			assert.Equal(t, ids(sched.ItemSequence(region)), served)
		})
	}
}

func TestScheduler_Determinism(t *testing.T) {
	sched := newTestScheduler(t, 4, 3, map[string]int{"X": 2})
	completed := NewCompletedSet(4, 5, 9)

	first, ok := sched.NextItem("X", completed)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		it, _ := sched.NextItem("X", NewCompletedSet(9, 5, 4))
		assert.Equal(t, first, it)
	}
	assert.Equal(t, 6, first.ID)
}

func TestScheduler_DefaultRegion(t *testing.T) {
	sched := newTestScheduler(t, 3, 2, map[string]int{"Penang": 3})
	completed := NewCompletedSet(1)

	want, ok := sched.NextItem("", completed)
	require.True(t, ok)
	assert.Equal(t, 2, want.ID)

	for _, region := range []string{"Atlantis", "penang", "Penang ", " Penang"} {
		got, ok := sched.NextItem(region, completed)
		assert.True(t, ok)
		assert.Equal(t, want, got, "region %q", region)
		assert.Equal(t, DefaultStartBatch, sched.Regions().StartBatch(region))
	}

	got, _ := sched.NextItem("Penang", completed)
	assert.Equal(t, 5, got.ID)
}

func TestScheduler_IdempotentSkip(t *testing.T) {
	sched := newTestScheduler(t, 3, 3, map[string]int{"R": 2})

	tests := []struct {
		name      string
		completed CompletedSet
		want      int
	}{
		{name: "nothing completed", completed: NewCompletedSet(), want: 4},
		{name: "completed outside the start batch", completed: NewCompletedSet(1, 2, 8), want: 4},
		{name: "first of batch completed", completed: NewCompletedSet(4), want: 5},
		{name: "hole in the middle", completed: NewCompletedSet(4, 6), want: 5},
		{name: "start batch done", completed: NewCompletedSet(4, 5, 6), want: 7},
		{name: "wraps around", completed: NewCompletedSet(4, 5, 6, 7, 8, 9), want: 1},
		{name: "unknown ids ignored", completed: NewCompletedSet(4, 100, -3, 0), want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sched.NextItem("R", tt.completed)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestScheduler_PenangScenario(t *testing.T) {
	sched := newTestScheduler(t, 9, 3, map[string]int{"Penang": 9, "Perlis": 1})

	a := sched.Assign("Penang", NewCompletedSet())
	require.NotNil(t, a.Item)
	assert.Equal(t, 25, a.Item.ID)
	assert.Equal(t, 9, a.Item.BatchIndex)
	assert.Equal(t, 9, a.StartBatch)
	assert.Equal(t, 1, a.CurrentOrdinal)
	assert.Equal(t, 27, a.TotalItemCount)

	a = sched.Assign("Penang", NewCompletedSet(25, 26, 27))
	require.NotNil(t, a.Item)
	assert.Equal(t, 1, a.Item.ID)
	assert.Equal(t, 4, a.CurrentOrdinal)

	assert.Equal(t, []int{9, 1, 2, 3, 4, 5, 6, 7, 8}, sched.Sequence("Penang"))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, sched.Sequence("Perlis"))
}

func TestScheduler_CompletionScenario(t *testing.T) {
	sched := newTestScheduler(t, 9, 3, map[string]int{"Penang": 9})

	all := NewCompletedSet(ids(sched.Catalog().AllItems())...)
	a := sched.Assign("Penang", all)
	assert.True(t, a.AllCompleted)
	assert.Nil(t, a.Item)
	assert.Equal(t, 27, a.TotalItemCount)
	assert.Equal(t, 0, a.CurrentOrdinal)

	_, ok := sched.NextItem("", all)
	assert.False(t, ok)

	// unknown ids never reopen the catalog
	all[1000] = struct{}{}
	_, ok = sched.NextItem("Penang", all)
	assert.False(t, ok)
}

func TestScheduler_OrdinalCountsUnknownIDs(t *testing.T) {
	sched := newTestScheduler(t, 2, 2, nil)
	a := sched.Assign("", NewCompletedSet(1, 99))
	require.NotNil(t, a.Item)
	assert.Equal(t, 2, a.Item.ID)
	assert.Equal(t, 3, a.CurrentOrdinal)
}

func TestNewScheduler(t *testing.T) {
	catalog, err := NewCatalog(makeBatches(3, 1))
	require.NoError(t, err)
	other, err := NewRegionMap(map[string]int{"A": 4}, 4)
	require.NoError(t, err)

	_, err = NewScheduler(catalog, other)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NewScheduler(nil, other)
	assert.Error(t, err)
}
