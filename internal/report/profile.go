package report

import (
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
)

// ColumnSummary captures the resolved type and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|date|text|missing
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Date range
	First time.Time
	Last  time.Time
	// Text top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile summarises every column of ds. A column's kind is the kind of its
// non-missing cells; cleaned datasets never mix kinds within a column.
func Profile(ds *dataset.Dataset) []ColumnSummary {
	cols := ds.Columns()
	out := make([]ColumnSummary, 0, len(cols))
	for _, name := range cols {
		vals, _ := ds.ColumnValues(name)
		out = append(out, profileColumn(name, vals))
	}
	return out
}

func profileColumn(name string, vals []dataset.Value) ColumnSummary {
	s := ColumnSummary{Name: name, Kind: dataset.KindMissing.String(), Min: math.Inf(1), Max: math.Inf(-1)}
	var (
		n    int
		mean float64
		m2   float64
		cats = map[string]int{}
	)
	for _, v := range vals {
		switch v.Kind() {
		case dataset.KindMissing:
			s.Missing++
			continue
		case dataset.KindNumber:
			x := v.Float()
			// Welford update
			n++
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			if x < s.Min {
				s.Min = x
			}
			if x > s.Max {
				s.Max = x
			}
		case dataset.KindDate:
			t := v.Time()
			if s.First.IsZero() || t.Before(s.First) {
				s.First = t
			}
			if t.After(s.Last) {
				s.Last = t
			}
		case dataset.KindText:
			if len(cats) <= 10000 {
				cats[v.Str()]++
			}
		}
		s.NonNull++
		s.Kind = v.Kind().String()
	}
	if n > 0 {
		s.Mean = mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
	} else {
		s.Min, s.Max = 0, 0
	}
	if len(cats) > 0 {
		tops := make([]CategoryCount, 0, len(cats))
		for k, c := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: c})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		s.Unique = len(tops)
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
	}
	return s
}
