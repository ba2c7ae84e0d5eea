package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Group summarises the value column for one key.
type Group struct {
	Key     string
	Count   int // numeric cells
	Missing int // missing value cells
	Total   float64
	Mean    float64
}

// MonthTotal is the sum of values for one calendar month.
type MonthTotal struct {
	Month time.Time
	Count int
	Total float64
}

// ByColumn groups rows by the text of column and sums the value column.
// Missing values are counted but not summed. Groups are ordered by total
// descending, then key.
func ByColumn(ds *dataset.Dataset, column string) ([]Group, error) {
	if !ds.Has(column) {
		return nil, fmt.Errorf("group by %s: %w", column, dataset.ErrColumnNotFound)
	}
	if !ds.Has(dataset.ColValue) {
		return nil, fmt.Errorf("group by %s: %w: %s", column, dataset.ErrColumnNotFound, dataset.ColValue)
	}
	vals := map[string][]float64{}
	missing := map[string]int{}
	seen := map[string]bool{}
	var order []string
	for i := 0; i < ds.Len(); i++ {
		key := ds.Value(i, column).String()
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		v := ds.Value(i, dataset.ColValue)
		if v.Kind() != dataset.KindNumber {
			missing[key]++
			continue
		}
		vals[key] = append(vals[key], v.Float())
	}
	out := make([]Group, 0, len(order))
	for _, k := range order {
		xs := vals[k]
		g := Group{Key: k, Count: len(xs), Missing: missing[k]}
		if len(xs) > 0 {
			g.Total = floats.Sum(xs)
			g.Mean = stat.Mean(xs, nil)
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Key < out[j].Key
		}
		return out[i].Total > out[j].Total
	})
	return out, nil
}

// Top returns at most n groups; n <= 0 returns all of them.
func Top(groups []Group, n int) []Group {
	if n <= 0 || n >= len(groups) {
		return groups
	}
	return groups[:n]
}

// Monthly sums values per month, ascending by month.
func Monthly(ds *dataset.Dataset) ([]MonthTotal, error) {
	months, err := ds.ColumnValues(dataset.ColMonth)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	if !ds.Has(dataset.ColValue) {
		return nil, fmt.Errorf("monthly totals: %w: %s", dataset.ErrColumnNotFound, dataset.ColValue)
	}
	byMonth := map[time.Time][]float64{}
	for i, m := range months {
		if m.Kind() != dataset.KindDate {
			return nil, fmt.Errorf("monthly totals: row %d: month is %s", i+1, m.Kind())
		}
		key := m.Time()
		v := ds.Value(i, dataset.ColValue)
		if v.Kind() != dataset.KindNumber {
			if _, ok := byMonth[key]; !ok {
				byMonth[key] = nil
			}
			continue
		}
		byMonth[key] = append(byMonth[key], v.Float())
	}
	out := make([]MonthTotal, 0, len(byMonth))
	for m, xs := range byMonth {
		out = append(out, MonthTotal{Month: m, Count: len(xs), Total: floats.Sum(xs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

// Table converts groups to a dataset with columns key, count, missing, total
// and mean, for tabular export.
func Table(key string, groups []Group) *dataset.Dataset {
	rows := make([][]dataset.Value, len(groups))
	for i, g := range groups {
		rows[i] = []dataset.Value{
			dataset.Text(g.Key),
			dataset.Number(float64(g.Count)),
			dataset.Number(float64(g.Missing)),
			dataset.Number(g.Total),
			dataset.Number(g.Mean),
		}
	}
	// Column names are fixed and distinct unless key collides with one.
	ds, err := dataset.New([]string{key, "count", "missing", "total", "mean"}, rows)
	if err != nil {
		ds, _ = dataset.New([]string{"group", "count", "missing", "total", "mean"}, rows)
	}
	return ds
}
