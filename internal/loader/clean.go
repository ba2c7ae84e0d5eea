package loader

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"github.com/google/uuid"
)

// Source column names renamed by the cleaning pipeline.
const (
	ColLevel2 = "level_2"
	ColLevel3 = "level_3"
)

// Options controls how a source is read and cleaned.
type Options struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// ThousandsSeparator is stripped from value cells before parsing; 0 disables.
	ThousandsSeparator rune
	// KeepExtra appends non-canonical source columns after the canonical ones.
	KeepExtra bool
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{}
}

// Rejection is a value cell that could not be read as a number.
type Rejection struct {
	Row      int // 1-based data row
	Original string
}

// NumericResult carries coerced values alongside the cells that were
// turned into the missing marker.
type NumericResult struct {
	Values     []dataset.Value
	Rejections []Rejection
}

// Rejected returns the distinct original texts that failed to parse, in the
// order they were first seen.
func (r NumericResult) Rejected() []string { return distinctOriginals(r.Rejections) }

// Result is a cleaned dataset plus the diagnostics collected while cleaning.
type Result struct {
	ID         string
	Source     string
	Dataset    *dataset.Dataset
	Rejections []Rejection
}

// Rejected returns the distinct value texts that were coerced to missing.
func (r *Result) Rejected() []string { return distinctOriginals(r.Rejections) }

// LoadAndClean reads sourcePath and runs the fixed cleaning sequence:
// numeric coercion of value, month to date, then the level_2/level_3 rename.
func LoadAndClean(sourcePath string, opt Options) (*Result, error) {
	raw, err := ReadRaw(sourcePath, opt)
	if err != nil {
		return nil, err
	}
	if err := checkRequired(sourcePath, raw.Header); err != nil {
		return nil, err
	}
	ds, rej, err := Clean(raw, opt)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", filepath.Base(sourcePath), err)
	}
	return &Result{
		ID:         uuid.NewString(),
		Source:     sourcePath,
		Dataset:    ds,
		Rejections: rej,
	}, nil
}

// Clean converts a raw text table into the canonical dataset. The raw table
// must already carry the month and value columns.
func Clean(raw *Raw, opt Options) (*dataset.Dataset, []Rejection, error) {
	rows := make([][]dataset.Value, len(raw.Rows))
	for i, r := range raw.Rows {
		cells := make([]dataset.Value, len(r))
		for j, c := range r {
			cells[j] = dataset.Text(c)
		}
		rows[i] = cells
	}
	ds, err := dataset.New(raw.Header, rows)
	if err != nil {
		return nil, nil, err
	}

	texts, err := columnTexts(ds, dataset.ColValue)
	if err != nil {
		return nil, nil, err
	}
	num := CoerceNumeric(texts, opt)
	if ds, err = ds.WithColumn(dataset.ColValue, num.Values); err != nil {
		return nil, nil, err
	}

	months, err := columnTexts(ds, dataset.ColMonth)
	if err != nil {
		return nil, nil, err
	}
	dates, err := ConvertMonths(months)
	if err != nil {
		return nil, nil, err
	}
	if ds, err = ds.WithColumn(dataset.ColMonth, dates); err != nil {
		return nil, nil, err
	}

	if ds, err = RenameColumns(ds); err != nil {
		return nil, nil, err
	}
	if ds, err = ds.Select(outputColumns(ds, opt.KeepExtra)...); err != nil {
		return nil, nil, err
	}
	return ds, num.Rejections, nil
}

// CoerceNumeric parses each text as a number. Blank, unparseable and
// non-finite entries become missing and are reported, never fatal.
func CoerceNumeric(texts []string, opt Options) NumericResult {
	res := NumericResult{Values: make([]dataset.Value, len(texts))}
	for i, t := range texts {
		f, ok := parseNumber(t, opt.ThousandsSeparator)
		if !ok {
			res.Values[i] = dataset.Missing()
			res.Rejections = append(res.Rejections, Rejection{Row: i + 1, Original: t})
			continue
		}
		res.Values[i] = dataset.Number(f)
	}
	return res
}

func parseNumber(s string, thousands rune) (float64, bool) {
	raw := strings.TrimSpace(s)
	if thousands != 0 {
		raw = strings.ReplaceAll(raw, string(thousands), "")
	}
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if v := dataset.Number(f); v.IsMissing() {
		return 0, false
	}
	return f, true
}

const monthLayout = "2006-01-02"

// ParseMonth converts "YYYY-MM" to the first day of that month in UTC.
func ParseMonth(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	t, err := time.Parse(monthLayout, s+"-01")
	if err != nil {
		return time.Time{}, &DateFormatError{Value: text, Err: err}
	}
	return t, nil
}

// FormatMonth renders t as "YYYY-MM".
func FormatMonth(t time.Time) string { return t.Format("2006-01") }

// ConvertMonths parses every month text. The first malformed entry aborts
// with a DateFormatError naming its 1-based row.
func ConvertMonths(texts []string) ([]dataset.Value, error) {
	out := make([]dataset.Value, len(texts))
	for i, t := range texts {
		d, err := ParseMonth(t)
		if err != nil {
			de := err.(*DateFormatError)
			de.Row = i + 1
			return nil, de
		}
		out[i] = dataset.Date(d)
	}
	return out, nil
}

// RenameColumns applies level_2->region and level_3->country. Absent source
// columns are left alone.
func RenameColumns(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return ds.Rename(map[string]string{
		ColLevel2: dataset.ColRegion,
		ColLevel3: dataset.ColCountry,
	})
}

func checkRequired(path string, header []string) error {
	has := make(map[string]bool, len(header))
	for _, h := range header {
		if has[h] {
			return &ParseError{Path: path, Line: 1, Msg: fmt.Sprintf("duplicate column %q", h)}
		}
		has[h] = true
	}
	for _, pair := range [][2]string{{ColLevel2, dataset.ColRegion}, {ColLevel3, dataset.ColCountry}} {
		from, to := pair[0], pair[1]
		if has[from] && has[to] {
			return &ParseError{Path: path, Line: 1, Msg: fmt.Sprintf("columns %q and %q both present; %s is renamed to %s", from, to, from, to)}
		}
	}
	var missing []string
	for _, c := range []string{dataset.ColMonth, dataset.ColValue} {
		if !has[c] {
			missing = append(missing, c)
		}
	}
	if !has[ColLevel2] && !has[ColLevel3] && !has[dataset.ColRegion] && !has[dataset.ColCountry] {
		missing = append(missing, "level_2|level_3|region|country")
	}
	if len(missing) > 0 {
		return &ParseError{Path: path, Line: 1, Msg: "missing required columns: " + strings.Join(missing, ", ")}
	}
	return nil
}

func outputColumns(ds *dataset.Dataset, keepExtra bool) []string {
	canonical := []string{dataset.ColMonth, dataset.ColRegion, dataset.ColCountry, dataset.ColValue}
	var cols []string
	seen := map[string]bool{}
	for _, c := range canonical {
		if ds.Has(c) {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	if keepExtra {
		for _, c := range ds.Columns() {
			if !seen[c] {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

func columnTexts(ds *dataset.Dataset, name string) ([]string, error) {
	vals, err := ds.ColumnValues(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Str()
	}
	return out, nil
}

func distinctOriginals(rej []Rejection) []string {
	seen := make(map[string]struct{}, len(rej))
	var out []string
	for _, r := range rej {
		if _, ok := seen[r.Original]; ok {
			continue
		}
		seen[r.Original] = struct{}{}
		out = append(out, r.Original)
	}
	return out
}
