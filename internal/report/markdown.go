package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/arrivals-cli/internal/aggregate"
	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"github.com/KaramelBytes/arrivals-cli/internal/window"
)

// Document is everything a Markdown report can show. Only Dataset is
// required.
type Document struct {
	Name    string
	LoadID  string
	Dataset *dataset.Dataset
	// Rows before windowing; zero when no window was applied.
	RowsBefore int
	Window     *window.Selection
	// Distinct value texts coerced to missing and how many cells that hit.
	Rejected      []string
	RejectedCells int
	GroupBy       string
	Groups        []aggregate.Group
	Monthly       []aggregate.MonthTotal
	SampleRows    int
	Warnings      []string
}

// Markdown renders a compact report suitable for terminals and notes.
func Markdown(doc Document) string {
	var b strings.Builder
	ds := doc.Dataset
	b.WriteString("[DATASET SUMMARY]\n")
	if doc.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", doc.Name))
	}
	if doc.LoadID != "" {
		b.WriteString(fmt.Sprintf("Load: %s\n", doc.LoadID))
	}
	if doc.Window != nil && doc.RowsBefore > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (of %d)\n", ds.Len(), doc.RowsBefore))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", ds.Len()))
	}
	cols := Profile(ds)
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "date":
			b.WriteString(fmt.Sprintf(" — %s to %s", c.First.Format("2006-01"), c.Last.Format("2006-01")))
		case "text":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}

	if w := doc.Window; w != nil {
		b.WriteString("\n[WINDOW]\n")
		b.WriteString(fmt.Sprintf("- months: %d\n", w.Months))
		if !w.MaxDate.IsZero() {
			b.WriteString(fmt.Sprintf("- latest month: %s\n", w.MaxDate.Format("2006-01")))
			b.WriteString(fmt.Sprintf("- cutoff (exclusive): %s\n", w.Cutoff.Format("2006-01")))
		}
	}

	if len(doc.Groups) > 0 {
		b.WriteString("\n[GROUP SUMMARY]\n")
		if doc.GroupBy != "" {
			b.WriteString(fmt.Sprintf("By: %s\n", doc.GroupBy))
		}
		for _, g := range doc.Groups {
			b.WriteString(fmt.Sprintf("- %s: total %.0f, mean %.4g (n=%d", safeVal(g.Key), g.Total, g.Mean, g.Count))
			if g.Missing > 0 {
				b.WriteString(fmt.Sprintf(", missing %d", g.Missing))
			}
			b.WriteString(")\n")
		}
	}

	if len(doc.Monthly) > 0 {
		b.WriteString("\n[MONTHLY TOTALS]\n")
		for _, m := range doc.Monthly {
			b.WriteString(fmt.Sprintf("- %s: %.0f\n", m.Month.Format("2006-01"), m.Total))
		}
	}

	if doc.SampleRows > 0 && ds.Len() > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := ds.Columns()
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(names)) + "\n")
		n := doc.SampleRows
		if n > ds.Len() {
			n = ds.Len()
		}
		for i := 0; i < n; i++ {
			row := ds.Row(i)
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = safeVal(truncate(v.String(), 80))
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	notes := append([]string(nil), doc.Warnings...)
	if len(doc.Rejected) > 0 {
		quoted := make([]string, len(doc.Rejected))
		for i, r := range doc.Rejected {
			quoted[i] = fmt.Sprintf("%q", r)
		}
		notes = append(notes, fmt.Sprintf("%d value cells not numeric, set to NA: %s", doc.RejectedCells, strings.Join(quoted, ", ")))
	}
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
