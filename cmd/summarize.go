package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/arrivals-cli/internal/aggregate"
	"github.com/KaramelBytes/arrivals-cli/internal/dataset"
	"github.com/KaramelBytes/arrivals-cli/internal/report"
	"github.com/KaramelBytes/arrivals-cli/internal/window"
	"github.com/spf13/cobra"
)

var (
	sumFlags   dataFlags
	sumBy      string
	sumTop     int
	sumRecent  bool
	sumWindow  int
	sumMonthly bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summary tables: totals by region or country and monthly totals",
	Example: `  arrivals summarize arrivals.csv --by country --top 10
  arrivals summarize arrivals.csv --recent --window 12 -o summary.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by := strings.ToLower(strings.TrimSpace(sumBy))
		if by != dataset.ColRegion && by != dataset.ColCountry {
			return fmt.Errorf("unsupported --by: %s (use region|country)", sumBy)
		}
		path, err := resolveSource(args)
		if err != nil {
			return err
		}
		opt, err := sumFlags.loaderOptions(cmd)
		if err != nil {
			return err
		}
		res, err := loadDataset(path, opt)
		if err != nil {
			return err
		}
		doc := report.Document{
			Name:          filepath.Base(path),
			LoadID:        res.ID,
			Dataset:       res.Dataset,
			Rejected:      res.Rejected(),
			RejectedCells: len(res.Rejections),
			GroupBy:       by,
		}
		// --window on its own implies --recent.
		if sumRecent || cmd.Flags().Changed("window") {
			months := windowMonths(cmd, sumWindow)
			sel, err := window.SelectRecent(res.Dataset, months)
			if err != nil {
				return fmt.Errorf("select recent %d months: %w", months, err)
			}
			doc.Dataset = sel.Dataset
			doc.Window = sel
			doc.RowsBefore = res.Dataset.Len()
			doc.Warnings = append(doc.Warnings, windowWarnings(sel)...)
		}
		groups, err := aggregate.ByColumn(doc.Dataset, by)
		if err != nil {
			return err
		}
		top := sumTop
		if !cmd.Flags().Changed("top") && cfg != nil {
			top = cfg.TopN
		}
		doc.Groups = aggregate.Top(groups, top)
		if len(doc.Groups) < len(groups) {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("showing top %d of %d %s groups", len(doc.Groups), len(groups), by))
		}
		if sumMonthly {
			if doc.Monthly, err = aggregate.Monthly(doc.Dataset); err != nil {
				return err
			}
		}
		format, err := sumFlags.outputFormat()
		if err != nil {
			return err
		}
		switch format {
		case report.FormatCSV, report.FormatJSON, report.FormatYAML:
			doc.Dataset = aggregate.Table(by, doc.Groups)
		}
		return emit(cmd, &sumFlags, doc)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	addDataFlags(summarizeCmd, &sumFlags)
	summarizeCmd.Flags().StringVar(&sumBy, "by", dataset.ColRegion, "group by column: region|country")
	summarizeCmd.Flags().IntVar(&sumTop, "top", 10, "number of groups to show, 0 for all (default from config)")
	summarizeCmd.Flags().BoolVar(&sumRecent, "recent", false, "summarize only the most recent window")
	summarizeCmd.Flags().IntVarP(&sumWindow, "window", "w", window.DefaultMonths, "window length in months (implies --recent)")
	summarizeCmd.Flags().BoolVar(&sumMonthly, "monthly", true, "include monthly totals")
}
