package calculation

import (
	"testing"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyConverter_RoundTrip(t *testing.T) {
	fc := FrequencyConverter{}
	amounts := []string{"0", "1", "1234.56", "999.99", "0.01"}

	for _, f := range domain.AllFrequencies() {
		for _, a := range amounts {
			annual, err := fc.Annualize(dec(a), f)
			require.NoError(t, err)
			back, err := fc.Periodize(annual, f)
			require.NoError(t, err)
			if !back.Round(2).Equal(dec(a)) {
				t.Errorf("%s: periodize(annualize(%s)) = %s", f, a, back)
			}
		}
	}
}

func TestFrequencyConverter_Convert(t *testing.T) {
	fc := FrequencyConverter{}

	tests := []struct {
		amount   string
		from, to domain.Frequency
		want     string
	}{
		{"100", domain.FrequencyMonthly, domain.FrequencyAnnual, "1200"},
		{"100", domain.FrequencyMonthly, domain.FrequencyQuarterly, "300"},
		{"1200", domain.FrequencyAnnual, domain.FrequencySemiAnnual, "600"},
		{"300", domain.FrequencyQuarterly, domain.FrequencyMonthly, "100"},
	}
	for _, tt := range tests {
		got, err := fc.Convert(dec(tt.amount), tt.from, tt.to)
		require.NoError(t, err)
		assert.True(t, dec(tt.want).Equal(got), "%s %s -> %s: got %s", tt.amount, tt.from, tt.to, got)
	}
}

func TestFrequencyConverter_Unsupported(t *testing.T) {
	fc := FrequencyConverter{}
	_, err := fc.Annualize(dec("10"), domain.Frequency("weekly"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, domain.CodeUnsupportedFrequency, domain.ErrorCode(err))
}
