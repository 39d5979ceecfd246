package training

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const DefaultStartBatch = 1

type RegionStart struct {
	Region     string `json:"region"`
	StartBatch int    `json:"startBatch"`
}

// RegionMap assigns each known region the batch its learners begin with.
// Lookups are exact-match: "penang" and "Penang " are not "Penang".
type RegionMap struct {
	starts     map[string]int
	batchCount int
}

// NewRegionMap validates that every region is named and every start batch lies in [1, batchCount].
func NewRegionMap(starts map[string]int, batchCount int) (*RegionMap, error) {
	m := &RegionMap{
		starts:     make(map[string]int, len(starts)),
		batchCount: batchCount,
	}
	for region, start := range starts {
		if region == "" {
			return nil, configErrorf(ErrEmptyRegion, "region starting at batch %d has no name", start)
		}
		if start < 1 || start > batchCount {
			return nil, configErrorf(ErrRegionOutOfRange, "region %q starts at batch %d (have 1..%d)", region, start, batchCount)
		}
		m.starts[region] = start
	}
	return m, nil
}

// StartBatch returns the start batch of region, or DefaultStartBatch when the region
// is empty or unmapped.
func (m *RegionMap) StartBatch(region string) int {
	if start, ok := m.starts[region]; ok {
		return start
	}
	return DefaultStartBatch
}

// IsKnown reports whether region has an explicit mapping.
func (m *RegionMap) IsKnown(region string) bool {
	_, ok := m.starts[region]
	return ok
}

// Regions lists the mapping sorted by region name.
func (m *RegionMap) Regions() []RegionStart {
	list := make([]RegionStart, 0, len(m.starts))
	for region, start := range m.starts {
		list = append(list, RegionStart{Region: region, StartBatch: start})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Region < list[j].Region })
	return list
}

// minSuggestRatio is the similarity under which no suggestion is made.
const minSuggestRatio = 0.75

// Suggest returns the known region closest to an unmapped one (e.g. "penang" -> "Penang").
// It never changes how a region resolves; callers use it for diagnostics only.
func (m *RegionMap) Suggest(region string) (string, bool) {
	if region == "" || m.IsKnown(region) {
		return "", false
	}

	needle := strings.Split(strings.ToLower(strings.TrimSpace(region)), "")
	var (
		best      string
		bestRatio float64
	)
	for _, rs := range m.Regions() {
		matcher := difflib.NewMatcher(needle, strings.Split(strings.ToLower(rs.Region), ""))
		if ratio := matcher.Ratio(); ratio > bestRatio {
			best, bestRatio = rs.Region, ratio
		}
	}
	if bestRatio < minSuggestRatio {
		return "", false
	}
	return best, true
}
