package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Settings are the engine and CLI settings that are not part of the
// product catalog
type Settings struct {
	TaxRate       decimal.Decimal // fraction, e.g. 0.02
	LogLevel      string
	LogFormat     string // json or console
	OutputFormat  string // console, json or csv
	ReferenceDate time.Time
}

// DefaultSettings returns settings used when no file or env overrides exist
func DefaultSettings() Settings {
	return Settings{
		TaxRate:      decimal.Zero,
		LogLevel:     "warn",
		LogFormat:    "console",
		OutputFormat: "console",
	}
}

// LoadSettings reads settings from an optional file and MEDRATE_*
// environment variables. Without an explicit file, medrate.yaml is looked
// up in the working directory and $HOME/.medrate; a missing file is not an
// error.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("tax_rate", defaults.TaxRate.String())
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("output_format", defaults.OutputFormat)
	v.SetDefault("reference_date", "")

	v.SetEnvPrefix("MEDRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("medrate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.medrate")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read settings: %w", err)
			}
		}
	}

	return settingsFrom(v)
}

func settingsFrom(v *viper.Viper) (*Settings, error) {
	taxRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("tax_rate")))
	if err != nil {
		return nil, fmt.Errorf("invalid tax_rate %q: %w", v.GetString("tax_rate"), err)
	}

	s := &Settings{
		TaxRate:      taxRate,
		LogLevel:     strings.ToLower(v.GetString("log_level")),
		LogFormat:    strings.ToLower(v.GetString("log_format")),
		OutputFormat: strings.ToLower(v.GetString("output_format")),
	}
	if ref := strings.TrimSpace(v.GetString("reference_date")); ref != "" {
		s.ReferenceDate, err = time.Parse("2006-01-02", ref)
		if err != nil {
			return nil, fmt.Errorf("invalid reference_date %q: %w", ref, err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings ranges
func (s *Settings) Validate() error {
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax_rate must be a fraction in [0, 1), got %s", s.TaxRate)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log_format %q", s.LogFormat)
	}
	switch s.OutputFormat {
	case "console", "json", "csv":
	default:
		return fmt.Errorf("unknown output_format %q", s.OutputFormat)
	}
	return nil
}
