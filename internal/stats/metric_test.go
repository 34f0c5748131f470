package stats

import (
	"testing"

	"github.com/finbench/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics() {
		got, err := ParseMetric(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMetric("favorite_color")
	assert.Error(t, err)
}

func TestExtractors_AbsentVsZero(t *testing.T) {
	extract, ok := ExtractorFor(MetricNetWorth)
	require.True(t, ok)

	_, ok = extract(&models.Submission{})
	assert.False(t, ok, "absent net worth must not read as zero")

	zero := 0.0
	v, ok := extract(&models.Submission{NetWorth: &zero})
	assert.True(t, ok, "an explicit zero is a real value")
	assert.Equal(t, 0.0, v)
}

func TestInvestmentValue(t *testing.T) {
	extract, _ := ExtractorFor(MetricInvestment)

	savings, stocks := 100000.0, 50000.0
	v, ok := extract(&models.Submission{TotalSavings: &savings, StockValue: &stocks})
	require.True(t, ok)
	assert.Equal(t, 150000.0, v)

	// All zero: "no investments recorded", propagates as absent.
	zero := 0.0
	_, ok = extract(&models.Submission{TotalSavings: &zero, GoldValue: &zero})
	assert.False(t, ok)

	_, ok = extract(&models.Submission{})
	assert.False(t, ok)
}

func TestExtraMetric(t *testing.T) {
	sub := &models.Submission{Extra: map[string]float64{ExtraKeyMonthlyEMI: 15000}}

	v, ok := sub.ExtraMetric(ExtraKeyMonthlyEMI)
	require.True(t, ok)
	assert.Equal(t, 15000.0, v)

	_, ok = sub.ExtraMetric("unknown")
	assert.False(t, ok)

	_, ok = (&models.Submission{}).ExtraMetric(ExtraKeyMonthlyEMI)
	assert.False(t, ok)
}
