package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/arrivals-cli/internal/config"
	"github.com/KaramelBytes/arrivals-cli/internal/report"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set arrivals configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "source_path: %s\n", cfg.SourcePath)
		fmt.Fprintf(out, "window_months: %d\n", cfg.WindowMonths)
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %q\n", cfg.ThousandsSeparator)
		}
		if cfg.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", cfg.Sheet)
		}
		fmt.Fprintf(out, "top_n: %d\n", cfg.TopN)
		fmt.Fprintf(out, "sample_rows: %d\n", cfg.SampleRows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "source_path":
			cfg.SourcePath = val
		case "window_months":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for window_months: %w", err)
			}
			cfg.WindowMonths = i
		case "output_format":
			f, err := report.ParseFormat(val)
			if err != nil {
				return err
			}
			cfg.OutputFormat = string(f)
		case "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "thousands_separator":
			if _, err := parseThousands(val); err != nil {
				return err
			}
			cfg.ThousandsSeparator = val
		case "sheet":
			cfg.Sheet = val
		case "top_n":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for top_n: %v", val)
			}
			cfg.TopN = i
		case "sample_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for sample_rows: %v", val)
			}
			cfg.SampleRows = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
