package report

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/arrivals-cli/internal/aggregate"
	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"github.com/KaramelBytes/arrivals-cli/internal/window"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func cleaned(t *testing.T) *dataset.Dataset {
	t.Helper()
	jan := dataset.Date(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	jul := dataset.Date(time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC))
	ds, err := dataset.New(
		[]string{dataset.ColMonth, dataset.ColRegion, dataset.ColCountry, dataset.ColValue},
		[][]dataset.Value{
			{jan, dataset.Text("Asia"), dataset.Text("Japan"), dataset.Number(120)},
			{jan, dataset.Text("Europe"), dataset.Text("Germany"), dataset.Number(85)},
			{jul, dataset.Text("Asia"), dataset.Text("Japan"), dataset.Missing()},
			{jul, dataset.Text("Europe"), dataset.Text("Germany"), dataset.Number(40)},
		})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ds
}

func TestProfile(t *testing.T) {
	cols := Profile(cleaned(t))
	if len(cols) != 4 {
		t.Fatalf("profiled %d columns, want 4", len(cols))
	}
	month, region, value := cols[0], cols[1], cols[3]
	if month.Kind != "date" || month.First.Month() != time.January || month.Last.Month() != time.July {
		t.Fatalf("month summary = %+v", month)
	}
	if region.Kind != "text" || region.Unique != 2 || region.TopValues[0].Count != 2 {
		t.Fatalf("region summary = %+v", region)
	}
	if value.Kind != "numeric" || value.NonNull != 3 || value.Missing != 1 {
		t.Fatalf("value summary = %+v", value)
	}
	if value.Min != 40 || value.Max != 120 || math.Abs(value.Mean-245.0/3) > 1e-9 {
		t.Fatalf("value stats min=%v max=%v mean=%v", value.Min, value.Max, value.Mean)
	}
	if value.Std <= 0 {
		t.Fatalf("std should be positive, got %v", value.Std)
	}
}

func TestProfileAllMissing(t *testing.T) {
	ds, err := dataset.New([]string{"value"}, [][]dataset.Value{{dataset.Missing()}, {dataset.Missing()}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := Profile(ds)[0]
	if s.Kind != "missing" || s.Missing != 2 || s.Min != 0 || s.Max != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestMarkdownSections(t *testing.T) {
	full := cleaned(t)
	sel, err := window.SelectRecent(full, 3)
	if err != nil {
		t.Fatalf("SelectRecent: %v", err)
	}
	groups, err := aggregate.ByColumn(sel.Dataset, dataset.ColRegion)
	if err != nil {
		t.Fatalf("ByColumn: %v", err)
	}
	monthly, err := aggregate.Monthly(sel.Dataset)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	md := Markdown(Document{
		Name:          "arrivals.csv",
		LoadID:        "load-1",
		Dataset:       sel.Dataset,
		RowsBefore:    full.Len(),
		Window:        sel,
		Rejected:      []string{"N.A."},
		RejectedCells: 1,
		GroupBy:       dataset.ColRegion,
		Groups:        groups,
		Monthly:       monthly,
		SampleRows:    1,
	})
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: arrivals.csv",
		"Load: load-1",
		"Rows: 2 (of 4)",
		"[SCHEMA]",
		"- month: date",
		"- value: numeric (non-null 1, missing 50.0%)",
		"[WINDOW]",
		"- months: 3",
		"- latest month: 2019-07",
		"- cutoff (exclusive): 2019-04",
		"[GROUP SUMMARY]",
		"By: region",
		"- Europe: total 40, mean 40 (n=1)",
		"- Asia: total 0, mean 0 (n=0, missing 1)",
		"[MONTHLY TOTALS]",
		"- 2019-07: 40",
		"[HEAD AND SAMPLE ROWS]",
		"| month | region | country | value |",
		"| 2019-07 | Asia | Japan | NA |",
		"[NOTES]",
		`1 value cells not numeric, set to NA: "N.A."`,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "2019-01 |") {
		t.Fatalf("rows outside the window leaked into samples:\n%s", md)
	}
}

func TestMarkdownMinimal(t *testing.T) {
	md := Markdown(Document{Dataset: cleaned(t)})
	if !strings.Contains(md, "Rows: 4\n") {
		t.Fatalf("expected plain row count:\n%s", md)
	}
	for _, absent := range []string{"[WINDOW]", "[GROUP SUMMARY]", "[HEAD AND SAMPLE ROWS]", "[NOTES]"} {
		if strings.Contains(md, absent) {
			t.Fatalf("unexpected section %s:\n%s", absent, md)
		}
	}
}

func TestMarkdownTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	ds, err := dataset.New([]string{dataset.ColCountry}, [][]dataset.Value{{dataset.Text(long)}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	md := Markdown(Document{Dataset: ds, SampleRows: 1, Warnings: []string{"window of 0 months kept no rows"}})
	want := "| " + strings.Repeat("é", 77) + "... |"
	if !strings.Contains(md, want) {
		t.Fatalf("sample cell not cut at 77 runes:\n%s", md)
	}
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8")
	}
	if !strings.Contains(md, "[NOTES]\n- window of 0 months kept no rows\n") {
		t.Fatalf("warnings missing from notes:\n%s", md)
	}
	if got := truncate("Côte d'Ivoire", 80); got != "Côte d'Ivoire" {
		t.Fatalf("short text changed: %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatMarkdown,
		"md":       FormatMarkdown,
		"CSV":      FormatCSV,
		" json ":   FormatJSON,
		"yml":      FormatYAML,
		"excel":    FormatXLSX,
		"markdown": FormatMarkdown,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, cleaned(t), FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "month,region,country,value\n" +
		"2019-01,Asia,Japan,120\n" +
		"2019-01,Europe,Germany,85\n" +
		"2019-07,Asia,Japan,NA\n" +
		"2019-07,Europe,Germany,40\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("csv (-want +got):\n%s", diff)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, cleaned(t), FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(got) != 4 {
		t.Fatalf("records = %d, want 4", len(got))
	}
	want := map[string]any{"month": "2019-07", "region": "Asia", "country": "Japan", "value": nil}
	if diff := cmp.Diff(want, got[2]); diff != "" {
		t.Fatalf("record 2 (-want +got):\n%s", diff)
	}
	if got[0]["value"] != 120.0 {
		t.Fatalf("value[0] = %#v", got[0]["value"])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, cleaned(t), FormatYAML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`- month: "2019-01"`,
		`  region: "Asia"`,
		"  value: 120\n",
		"  value: null\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "month") > strings.Index(out, "value") {
		t.Fatalf("yaml keys should follow column order:\n%s", out)
	}
}

func TestWriteRejectsNonStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	for _, f := range []Format{FormatMarkdown, FormatXLSX} {
		if err := Write(&buf, cleaned(t), f); err == nil {
			t.Fatalf("Write(%s) should fail", f)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	ds := cleaned(t)
	groups, err := aggregate.ByColumn(ds, dataset.ColRegion)
	if err != nil {
		t.Fatalf("ByColumn: %v", err)
	}
	p := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(p, ds, dataset.ColRegion, groups); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if diff := cmp.Diff([]string{"data", "summary"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
	rows, err := f.GetRows("data")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("data rows = %d, want 5", len(rows))
	}
	if diff := cmp.Diff([]string{"month", "region", "country", "value"}, rows[0]); diff != "" {
		t.Fatalf("header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2019-01", "Asia", "Japan", "120"}, rows[1]); diff != "" {
		t.Fatalf("row 1 (-want +got):\n%s", diff)
	}
	summary, err := f.GetRows("summary")
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if len(summary) != 3 || summary[0][0] != "region" || summary[1][0] != "Europe" {
		t.Fatalf("summary = %v", summary)
	}
}

func TestWriteXLSXWithoutGroups(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.xlsx")
	if err := WriteXLSX(p, cleaned(t), "", nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenFile(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if diff := cmp.Diff([]string{"data"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
}
