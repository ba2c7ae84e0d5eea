package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/arrivals-cli/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	flagSource string

	// Loaded configuration; never nil after loadConfig runs.
	cfg *cfgpkg.Global

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "arrivals",
	Short: "Clean and window monthly visitor-arrival statistics",
	Long: `arrivals loads a monthly arrivals extract (CSV/TSV/XLSX), cleans it into
month/region/country/value columns, selects the most recent months and
prints summary tables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(debug)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.arrivals/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "dataset path used when no file argument is given (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		d := cfgpkg.Defaults()
		c = &d
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("source") && flagSource != "" {
		cfg.SourcePath = flagSource
	}
}

// newLogger builds the diagnostics logger. Without --debug only warnings and
// errors reach stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.DisableStacktrace = true
	if !debug {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		zc.DisableCaller = true
	}
	return zc.Build()
}
