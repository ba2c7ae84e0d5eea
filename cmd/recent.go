package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/arrivals-cli/internal/report"
	"github.com/KaramelBytes/arrivals-cli/internal/window"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recentFlags  dataFlags
	recentWindow int
)

var recentCmd = &cobra.Command{
	Use:   "recent [file]",
	Short: "Keep only the most recent N months (rows strictly after latest month minus N)",
	Example: `  arrivals recent arrivals.csv
  arrivals recent arrivals.csv --window 6 --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveSource(args)
		if err != nil {
			return err
		}
		opt, err := recentFlags.loaderOptions(cmd)
		if err != nil {
			return err
		}
		res, err := loadDataset(path, opt)
		if err != nil {
			return err
		}
		months := windowMonths(cmd, recentWindow)
		sel, err := window.SelectRecent(res.Dataset, months)
		if err != nil {
			return fmt.Errorf("select recent %d months: %w", months, err)
		}
		logger.Debug("window selected",
			zap.String("load_id", res.ID),
			zap.Time("cutoff", sel.Cutoff),
			zap.Int("kept", sel.Dataset.Len()),
			zap.Int("of", res.Dataset.Len()))
		return emit(cmd, &recentFlags, report.Document{
			Name:          filepath.Base(path),
			LoadID:        res.ID,
			Dataset:       sel.Dataset,
			RowsBefore:    res.Dataset.Len(),
			Window:        sel,
			Rejected:      res.Rejected(),
			RejectedCells: len(res.Rejections),
			SampleRows:    recentFlags.samples(),
			Warnings:      windowWarnings(sel),
		})
	},
}

// windowMonths resolves --window against the configured default.
func windowMonths(cmd *cobra.Command, flagVal int) int {
	if cmd.Flags().Changed("window") {
		return flagVal
	}
	if cfg != nil {
		return cfg.WindowMonths
	}
	return window.DefaultMonths
}

// windowWarnings flags a window that kept nothing, usually a non-positive
// --window or window_months.
func windowWarnings(sel *window.Selection) []string {
	if sel.Dataset.Len() > 0 {
		return nil
	}
	return []string{fmt.Sprintf("window of %d months kept no rows", sel.Months)}
}

func init() {
	rootCmd.AddCommand(recentCmd)
	addDataFlags(recentCmd, &recentFlags)
	recentCmd.Flags().IntVarP(&recentWindow, "window", "w", window.DefaultMonths, "window length in months (default from config)")
}
