package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/arrivals-cli/internal/aggregate"
	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"github.com/KaramelBytes/arrivals-cli/internal/utils"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use markdown|csv|json|yaml|xlsx)", s)
	}
}

// Write encodes ds as csv, json or yaml. Markdown and xlsx have their own
// entry points.
func Write(w io.Writer, ds *dataset.Dataset, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, ds)
	case FormatJSON:
		b, err := utils.PrettyJSON(records(ds))
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlRecords(ds)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %s is not a stream format", format)
	}
}

func writeCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell maps a value to its JSON/XLSX scalar: nil for missing.
func cell(v dataset.Value) any {
	switch v.Kind() {
	case dataset.KindNumber:
		return v.Float()
	case dataset.KindMissing:
		return nil
	default:
		return v.String()
	}
}

func records(ds *dataset.Dataset) []map[string]any {
	cols := ds.Columns()
	out := make([]map[string]any, ds.Len())
	for i := range out {
		rec := make(map[string]any, len(cols))
		for _, c := range cols {
			rec[c] = cell(ds.Value(i, c))
		}
		out[i] = rec
	}
	return out
}

// yamlRecords builds mapping nodes so keys keep column order.
func yamlRecords(ds *dataset.Dataset) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	cols := ds.Columns()
	for i := 0; i < ds.Len(); i++ {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range cols {
			v := ds.Value(i, c)
			val := &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
			// Numbers stay untagged and encode as plain scalars.
			switch v.Kind() {
			case dataset.KindMissing:
				val.Tag, val.Value = "!!null", "null"
			case dataset.KindText, dataset.KindDate:
				val.Tag, val.Style = "!!str", yaml.DoubleQuotedStyle
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c}, val)
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

const (
	dataSheet    = "data"
	summarySheet = "summary"
)

// WriteXLSX saves ds to a workbook with a data sheet and, when groups are
// given, a summary sheet.
func WriteXLSX(path string, ds *dataset.Dataset, groupBy string, groups []aggregate.Group) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := setRow(f, dataSheet, 1, toAny(ds.Columns())); err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = cell(v)
		}
		if err := setRow(f, dataSheet, i+2, vals); err != nil {
			return err
		}
	}
	if len(groups) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		key := groupBy
		if key == "" {
			key = "group"
		}
		if err := setRow(f, summarySheet, 1, []any{key, "count", "missing", "total", "mean"}); err != nil {
			return err
		}
		for i, g := range groups {
			if err := setRow(f, summarySheet, i+2, []any{g.Key, g.Count, g.Missing, g.Total, g.Mean}); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	addr, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, addr, &vals); err != nil {
		return fmt.Errorf("xlsx %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
