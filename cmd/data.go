package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/arrivals-cli/internal/loader"
	"github.com/KaramelBytes/arrivals-cli/internal/report"
	"github.com/KaramelBytes/arrivals-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// dataFlags are the input/output flags shared by dataset commands.
type dataFlags struct {
	output     string
	format     string
	delimiter  string
	thousands  string
	sheet      string
	keepExtra  bool
	sampleRows int
}

func addDataFlags(c *cobra.Command, f *dataFlags) {
	c.Flags().StringVarP(&f.output, "output", "o", "", "write result to this path instead of stdout")
	c.Flags().StringVarP(&f.format, "format", "f", "", "output format: markdown|csv|json|yaml|xlsx (default from config)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator stripped from values: ','|'.'|'space'")
	c.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	c.Flags().BoolVar(&f.keepExtra, "keep-extra", false, "keep source columns beyond month/region/country/value")
	c.Flags().IntVar(&f.sampleRows, "sample-rows", -1, "sample rows in markdown output (default from config, 0 disables)")
}

// resolveSource picks the dataset path: argument first, then --source/config.
func resolveSource(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if cfg != nil && cfg.SourcePath != "" {
		return cfg.SourcePath, nil
	}
	return "", fmt.Errorf("no dataset given: pass a file or set --source / source_path")
}

func (f *dataFlags) loaderOptions(c *cobra.Command) (loader.Options, error) {
	opt := loader.DefaultOptions()
	delim := cfg.Delimiter
	if c.Flags().Changed("delimiter") {
		delim = f.delimiter
	}
	d, err := parseDelimiter(delim)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d

	thou := cfg.ThousandsSeparator
	if c.Flags().Changed("thousands") {
		thou = f.thousands
	}
	t, err := parseThousands(thou)
	if err != nil {
		return opt, err
	}
	opt.ThousandsSeparator = t

	opt.Sheet = cfg.Sheet
	if f.sheet != "" {
		opt.Sheet = f.sheet
	}
	opt.KeepExtra = f.keepExtra
	return opt, nil
}

func (f *dataFlags) outputFormat() (report.Format, error) {
	name := cfg.OutputFormat
	if f.format != "" {
		name = f.format
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return "", err
	}
	// Infer from the output extension when no format was asked for.
	if f.format == "" && f.output != "" {
		if byExt, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(f.output), ".")); err == nil {
			format = byExt
		}
	}
	return format, nil
}

func (f *dataFlags) samples() int {
	if f.sampleRows >= 0 {
		return f.sampleRows
	}
	return cfg.SampleRows
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	default:
		return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
	}
}

// loadDataset runs the cleaning pipeline and logs coercion diagnostics.
func loadDataset(path string, opt loader.Options) (*loader.Result, error) {
	logger.Debug("loading dataset", zap.String("path", path), zap.Bool("keep_extra", opt.KeepExtra))
	res, err := loader.LoadAndClean(path, opt)
	if err != nil {
		return nil, err
	}
	log := logger.With(zap.String("load_id", res.ID), zap.String("source", filepath.Base(path)))
	log.Debug("dataset cleaned", zap.Int("rows", res.Dataset.Len()), zap.Strings("columns", res.Dataset.Columns()))
	if len(res.Rejections) > 0 {
		log.Warn("value cells not numeric, set to NA",
			zap.Int("cells", len(res.Rejections)),
			zap.Strings("values", res.Rejected()))
	}
	return res, nil
}

// emit renders doc in the requested format to --output or stdout.
func emit(c *cobra.Command, f *dataFlags, doc report.Document) error {
	format, err := f.outputFormat()
	if err != nil {
		return err
	}
	if format == report.FormatXLSX {
		if f.output == "" {
			return fmt.Errorf("xlsx output needs --output")
		}
		if err := utils.EnsureDir(filepath.Dir(f.output)); err != nil {
			return err
		}
		if err := report.WriteXLSX(f.output, doc.Dataset, doc.GroupBy, doc.Groups); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "✓ Wrote %d rows to %s\n", doc.Dataset.Len(), f.output)
		return nil
	}

	var buf bytes.Buffer
	if format == report.FormatMarkdown {
		buf.WriteString(report.Markdown(doc))
	} else if err := report.Write(&buf, doc.Dataset, format); err != nil {
		return err
	}
	if f.output == "" {
		_, err := c.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := utils.SafeWriteFile(f.output, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(c.OutOrStdout(), "✓ Wrote %s to %s\n", format, f.output)
	return nil
}
