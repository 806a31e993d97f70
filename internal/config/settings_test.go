package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.TaxRate.IsZero())
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, "console", s.OutputFormat)
	assert.True(t, s.ReferenceDate.IsZero())
	assert.NoError(t, s.Validate())
}

func TestLoadSettings_NoFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().LogLevel, s.LogLevel)
	assert.True(t, s.TaxRate.IsZero())
}

func TestLoadSettings_File(t *testing.T) {
	path := writeTemp(t, "medrate.yaml", `
tax_rate: "0.02"
log_level: debug
log_format: json
output_format: csv
reference_date: "2025-06-01"
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.True(t, s.TaxRate.Equal(decimal.RequireFromString("0.02")), "got %s", s.TaxRate)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, "csv", s.OutputFormat)
	assert.True(t, s.ReferenceDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	path := writeTemp(t, "medrate.yaml", "log_level: info\n")
	t.Setenv("MEDRATE_LOG_LEVEL", "ERROR")
	t.Setenv("MEDRATE_TAX_RATE", "0.16")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "error", s.LogLevel)
	assert.True(t, s.TaxRate.Equal(decimal.RequireFromString("0.16")))
}

func TestLoadSettings_MissingExplicitFile(t *testing.T) {
	_, err := LoadSettings("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read settings file")
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"tax rate not a number", "tax_rate: abc\n", "invalid tax_rate"},
		{"tax rate given as percent", "tax_rate: 16\n", "tax_rate must be a fraction"},
		{"negative tax rate", "tax_rate: -0.1\n", "tax_rate must be a fraction"},
		{"bad date", "reference_date: 01/06/2025\n", "invalid reference_date"},
		{"bad level", "log_level: verbose\n", "unknown log_level"},
		{"bad log format", "log_format: xml\n", "unknown log_format"},
		{"bad output format", "output_format: html\n", "unknown output_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "medrate.yaml", tt.content)
			_, err := LoadSettings(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
