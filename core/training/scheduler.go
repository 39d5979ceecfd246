package training

import (
	"github.com/pkg/errors"
)

// Rotate returns the batch visiting order for a start batch k out of b batches:
// k, k+1, ..., b, 1, ..., k-1.
func Rotate(k, b int) ([]int, error) {
	if b < 1 || k < 1 || k > b {
		return nil, errors.Wrapf(ErrInvalidStartBatch, "start %d (have 1..%d)", k, b)
	}
	order := make([]int, b)
	for i := range order {
		order[i] = ((k - 1 + i) % b) + 1
	}
	return order, nil
}

// CompletedSet is a snapshot of the item ids a learner already finished.
// Ids unknown to the catalog are tolerated and ignored.
type CompletedSet map[int]struct{}

func NewCompletedSet(ids ...int) CompletedSet {
	set := make(CompletedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s CompletedSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Len is the number of distinct completed ids, including unknown ones.
func (s CompletedSet) Len() int {
	return len(s)
}

// Assignment is the outcome of scheduling a learner.
type Assignment struct {
	Item           *Item // nil when AllCompleted
	AllCompleted   bool
	TotalItemCount int
	CurrentOrdinal int // len(completed)+1; 0 when AllCompleted
	StartBatch     int
}

// Scheduler combines a catalog and a region map. It holds no mutable state and is safe
// for concurrent use.
type Scheduler struct {
	catalog *Catalog
	regions *RegionMap
}

// NewScheduler checks that regions were built for catalog's batch count.
func NewScheduler(catalog *Catalog, regions *RegionMap) (*Scheduler, error) {
	if catalog == nil || regions == nil {
		return nil, errors.New("training.NewScheduler: catalog and regions are required")
	}
	if regions.batchCount != catalog.BatchCount() {
		return nil, configErrorf(ErrRegionOutOfRange, "region map built for %d batches, catalog has %d", regions.batchCount, catalog.BatchCount())
	}
	return &Scheduler{catalog: catalog, regions: regions}, nil
}

func (s *Scheduler) Catalog() *Catalog   { return s.catalog }
func (s *Scheduler) Regions() *RegionMap { return s.regions }

// Sequence returns the batch visiting order for region.
func (s *Scheduler) Sequence(region string) []int {
	return s.order(region)
}

// ItemSequence returns every catalog item in the order a learner of region encounters them.
func (s *Scheduler) ItemSequence(region string) []Item {
	items := make([]Item, 0, s.catalog.TotalItemCount())
	for _, index := range s.order(region) {
		items = append(items, s.catalog.batches[index-1]...)
	}
	return items
}

// NextItem returns the first item of the region's sequence that is not in completed.
// It returns false once every catalog item has been completed.
func (s *Scheduler) NextItem(region string, completed CompletedSet) (Item, bool) {
	for _, index := range s.order(region) {
		for _, it := range s.catalog.batches[index-1] {
			if !completed.Has(it.ID) {
				return it, true
			}
		}
	}
	return Item{}, false
}

// Assign resolves the next item along with the learner's progress counters.
func (s *Scheduler) Assign(region string, completed CompletedSet) Assignment {
	a := Assignment{
		TotalItemCount: s.catalog.TotalItemCount(),
		StartBatch:     s.regions.StartBatch(region),
	}
	if it, ok := s.NextItem(region, completed); ok {
		a.Item = &it
		a.CurrentOrdinal = completed.Len() + 1
	} else {
		a.AllCompleted = true
	}
	return a
}

func (s *Scheduler) order(region string) []int {
	// StartBatch is always within range for a validated region map.
	order, _ := Rotate(s.regions.StartBatch(region), s.catalog.BatchCount())
	return order
}
