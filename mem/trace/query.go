package trace

import (
	"context"
	"math"

	"github.com/sarchlab/cachesim/datarecording"
)

// AllCores selects the accesses of every core in an AccessFilter.
const AllCores = -1

// AccessFilter selects recorded accesses. An empty Type selects every type
// and a ToCycle of 0 means no upper bound.
type AccessFilter struct {
	Core      int
	Type      string
	FromCycle uint64
	ToCycle   uint64
	Limit     int
}

func (f AccessFilter) query() datarecording.Query {
	q := datarecording.From(AccessTable)

	if f.Core != AllCores {
		q = q.Equal("Core", f.Core)
	}

	if f.Type != "" {
		q = q.Equal("Type", f.Type)
	}

	if f.FromCycle > 0 || f.ToCycle > 0 {
		to := f.ToCycle
		if to == 0 {
			to = math.MaxInt64
		}

		q = q.Between("Cycle", f.FromCycle, to)
	}

	return q.OrderBy("Cycle", false).Page(f.Limit, 0)
}

// ReadAccesses returns the recorded accesses that pass the filter in issue
// order, along with how many passed before the limit was applied.
func ReadAccesses(
	ctx context.Context,
	reader datarecording.DataReader,
	filter AccessFilter,
) ([]AccessEntry, int, error) {
	if err := reader.MapTable(AccessTable, AccessEntry{}); err != nil {
		return nil, 0, err
	}

	rows, total, err := reader.Query(ctx, filter.query())
	if err != nil {
		return nil, 0, err
	}

	entries := make([]AccessEntry, len(rows))
	for i, row := range rows {
		entries[i] = *row.(*AccessEntry)
	}

	return entries, total, nil
}
