package cmd

import (
	"path/filepath"

	"github.com/KaramelBytes/arrivals-cli/internal/report"
	"github.com/spf13/cobra"
)

var cleanFlags dataFlags

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Load a dataset and print it cleaned (numeric values, monthly dates, renamed columns)",
	Example: `  arrivals clean arrivals.csv
  arrivals clean arrivals.csv --format csv -o cleaned.csv
  arrivals clean workbook.xlsx --sheet arrivals --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveSource(args)
		if err != nil {
			return err
		}
		opt, err := cleanFlags.loaderOptions(cmd)
		if err != nil {
			return err
		}
		res, err := loadDataset(path, opt)
		if err != nil {
			return err
		}
		return emit(cmd, &cleanFlags, report.Document{
			Name:          filepath.Base(path),
			LoadID:        res.ID,
			Dataset:       res.Dataset,
			Rejected:      res.Rejected(),
			RejectedCells: len(res.Rejections),
			SampleRows:    cleanFlags.samples(),
		})
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addDataFlags(cleanCmd, &cleanFlags)
}
