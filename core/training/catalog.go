// Package training decides which training item a learner works on next.
//
// The catalog is an immutable list of batches; each region starts at its own batch and
// walks the batches cyclically, so that early batches are not always trained first.
// Everything here is pure: learners' progress is passed in as a snapshot of completed ids.
package training

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrUnknownBatch      = errors.New("unknown batch")
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidStartBatch = errors.New("invalid start batch")

	// configuration errors
	ErrEmptyCatalog     = errors.New("catalog has no batches")
	ErrEmptyBatch       = errors.New("batch has no items")
	ErrBatchIndex       = errors.New("batch index out of sequence")
	ErrDuplicateItemID  = errors.New("duplicate item id")
	ErrRegionOutOfRange = errors.New("region start batch out of range")
	ErrEmptyRegion      = errors.New("empty region name")
)

// ConfigError reports an invalid catalog or region map. It is fatal at startup.
type ConfigError struct {
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("training config: %v: %s", e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Cause() error { return e.Err }

func configErrorf(err error, format string, args ...interface{}) error {
	return &ConfigError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

type Item struct {
	ID         int    `json:"id" yaml:"id"`
	BatchIndex int    `json:"batchIndex" yaml:"-"`
	Title      string `json:"title" yaml:"title"`
	Content    string `json:"content" yaml:"content"`
}

type Batch struct {
	Index int    `yaml:"index"`
	Items []Item `yaml:"items"`
}

// Catalog is the ordered list of batches 1..B. It is never mutated once built.
type Catalog struct {
	batches [][]Item // batches[i] holds batch i+1
	byID    map[int]Item
	total   int
}

// NewCatalog validates the batches and builds a Catalog.
// Batches must be given in index order 1..B, each non-empty, with globally unique item ids.
func NewCatalog(batches []Batch) (*Catalog, error) {
	if len(batches) == 0 {
		return nil, configErrorf(ErrEmptyCatalog, "at least 1 batch is required")
	}

	c := &Catalog{
		batches: make([][]Item, 0, len(batches)),
		byID:    make(map[int]Item),
	}
	for pos, b := range batches {
		index := pos + 1
		if b.Index != index {
			return nil, configErrorf(ErrBatchIndex, "batch #%d has index %d, want %d", pos+1, b.Index, index)
		}
		if len(b.Items) == 0 {
			return nil, configErrorf(ErrEmptyBatch, "batch %d", index)
		}

		items := make([]Item, 0, len(b.Items))
		for _, it := range b.Items {
			if prev, ok := c.byID[it.ID]; ok {
				return nil, configErrorf(ErrDuplicateItemID, "item %d in batch %d already declared in batch %d", it.ID, index, prev.BatchIndex)
			}
			it.BatchIndex = index
			c.byID[it.ID] = it
			items = append(items, it)
		}
		c.batches = append(c.batches, items)
		c.total += len(items)
	}
	return c, nil
}

// BatchCount returns B, the number of batches.
func (c *Catalog) BatchCount() int {
	return len(c.batches)
}

// TotalItemCount returns the number of items across all batches.
func (c *Catalog) TotalItemCount() int {
	return c.total
}

// AllItems returns every item, batch by batch, in declaration order.
func (c *Catalog) AllItems() []Item {
	all := make([]Item, 0, c.total)
	for _, items := range c.batches {
		all = append(all, items...)
	}
	return all
}

// ItemsInBatch returns the items of batch `index` (1-based) in declaration order.
func (c *Catalog) ItemsInBatch(index int) ([]Item, error) {
	items, err := c.batch(index)
	if err != nil {
		return nil, err
	}
	return append([]Item(nil), items...), nil
}

func (c *Catalog) batch(index int) ([]Item, error) {
	if index < 1 || index > len(c.batches) {
		return nil, errors.Wrapf(ErrUnknownBatch, "batch %d (have 1..%d)", index, len(c.batches))
	}
	return c.batches[index-1], nil
}

func (c *Catalog) ItemByID(id int) (Item, error) {
	if it, ok := c.byID[id]; ok {
		return it, nil
	}
	return Item{}, ErrItemNotFound
}
