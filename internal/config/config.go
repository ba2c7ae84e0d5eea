package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// SourcePath is the dataset read when a command gets no file argument.
	SourcePath   string `mapstructure:"source_path" yaml:"source_path"`
	WindowMonths int    `mapstructure:"window_months" yaml:"window_months"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	// Delimiter for delimited sources: "," ";" or "tab". Empty sniffs by extension.
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	Sheet              string `mapstructure:"sheet" yaml:"sheet"`
	TopN               int    `mapstructure:"top_n" yaml:"top_n"`
	SampleRows         int    `mapstructure:"sample_rows" yaml:"sample_rows"`
}

// Defaults returns the built-in configuration.
func Defaults() Global {
	return Global{
		WindowMonths: 12,
		OutputFormat: "markdown",
		TopN:         10,
		SampleRows:   5,
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".arrivals"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.arrivals/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ARRIVALS")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("source_path", d.SourcePath)
	v.SetDefault("window_months", d.WindowMonths)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("thousands_separator", d.ThousandsSeparator)
	v.SetDefault("sheet", d.Sheet)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("sample_rows", d.SampleRows)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
