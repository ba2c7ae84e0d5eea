// Package window selects the most recent N calendar months of a dataset.
//
// The cutoff is always derived from the latest date present in the data, so
// replaying historical extracts gives the same answer regardless of when the
// code runs.
package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
)

// DefaultMonths is the window length used when callers do not pick one.
const DefaultMonths = 12

// ErrEmptyInput is returned by cutoff computation on an empty date sequence.
var ErrEmptyInput = errors.New("no dates to compute a cutoff from")

// MissingValueError reports a date cell that is the missing marker. Index is
// the 0-based position in the input sequence (the row index for datasets).
type MissingValueError struct {
	Index int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("date at index %d is missing", e.Index)
}

// Selection is the outcome of SelectRecent.
type Selection struct {
	MaxDate time.Time
	Cutoff  time.Time
	Months  int
	Dataset *dataset.Dataset
}

// AddMonths shifts t by n calendar months keeping the day of month. When the
// day does not exist in the target month it is clamped to the month's last
// day, so 2019-03-31 minus one month is 2019-02-28.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	if last := daysIn(target); d > last {
		d = last
	}
	return target.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// CutoffFromTimes returns max(dates) shifted back by months.
func CutoffFromTimes(dates []time.Time, months int) (time.Time, error) {
	if len(dates) == 0 {
		return time.Time{}, ErrEmptyInput
	}
	return AddMonths(latest(dates), -months), nil
}

// ComputeCutoff is CutoffFromTimes over dataset cells. Every cell must be a
// resolved date.
func ComputeCutoff(dates []dataset.Value, months int) (time.Time, error) {
	ts, err := resolve(dates)
	if err != nil {
		return time.Time{}, err
	}
	return CutoffFromTimes(ts, months)
}

// SelectRecent keeps rows whose month is strictly after the cutoff. The input
// is not modified; row order is preserved. A dataset with no rows yields an
// empty selection with a zero cutoff.
func SelectRecent(ds *dataset.Dataset, months int) (*Selection, error) {
	vals, err := ds.ColumnValues(dataset.ColMonth)
	if err != nil {
		return nil, fmt.Errorf("select recent: %w", err)
	}
	if len(vals) == 0 {
		return &Selection{Months: months, Dataset: ds.Filter(func(int) bool { return false })}, nil
	}
	ts, err := resolve(vals)
	if err != nil {
		return nil, err
	}
	cutoff, err := CutoffFromTimes(ts, months)
	if err != nil {
		return nil, err
	}
	return &Selection{
		MaxDate: latest(ts),
		Cutoff:  cutoff,
		Months:  months,
		Dataset: ds.Filter(func(i int) bool { return ts[i].After(cutoff) }),
	}, nil
}

func resolve(vals []dataset.Value) ([]time.Time, error) {
	if len(vals) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]time.Time, len(vals))
	for i, v := range vals {
		if v.Kind() != dataset.KindDate {
			return nil, &MissingValueError{Index: i}
		}
		out[i] = v.Time()
	}
	return out, nil
}

func latest(ts []time.Time) time.Time {
	m := ts[0]
	for _, t := range ts[1:] {
		if t.After(m) {
			m = t
		}
	}
	return m
}
