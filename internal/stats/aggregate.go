package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/finbench/internal/models"
)

// incomeSlabWidth is the width of one income slab in rupees.
const incomeSlabWidth = 500000

// Summary holds descriptive statistics for one metric over a cohort.
// All values are rounded to two decimals at this boundary; intermediate
// computation stays at full precision.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summarize computes descriptive statistics over the present values of a
// metric. Absent values must already be filtered out by the caller; they are
// never coerced to zero. An empty input yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Summary{
		Count:   len(sorted),
		Average: round2(sum / float64(len(sorted))),
		Median:  round2(Quantile(sorted, 50)),
		P25:     round2(Quantile(sorted, 25)),
		P75:     round2(Quantile(sorted, 75)),
		Min:     round2(sorted[0]),
		Max:     round2(sorted[len(sorted)-1]),
	}
}

// SummarizeMetric extracts a metric from each record and summarizes the
// present values.
func SummarizeMetric(records []*models.Submission, extract Extractor) Summary {
	return Summarize(extractValues(records, extract))
}

// LeaderboardEntry is one cohort bucket of a grouped ranking.
type LeaderboardEntry struct {
	Label      string  `json:"label"`
	Average    float64 `json:"avg"`
	Median     float64 `json:"median"`
	SampleSize int     `json:"sampleSize"`
}

// KeyFunc buckets a record; ok is false when the record cannot be bucketed
// (missing dimension) and must be skipped.
type KeyFunc func(*models.Submission) (string, bool)

// Leaderboard groups records by key, computes average and median of the
// metric per group, and returns the groups ordered by descending average.
// Records missing either the key or the value are skipped, so no entry is
// ever emitted with a zero sample size. Ties on average keep first-seen
// group order. A limit <= 0 means no truncation.
func Leaderboard(records []*models.Submission, key KeyFunc, value Extractor, limit int) []LeaderboardEntry {
	groups := make(map[string][]float64)
	var order []string

	for _, rec := range records {
		label, ok := key(rec)
		if !ok {
			continue
		}
		v, ok := value(rec)
		if !ok {
			continue
		}
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], v)
	}

	entries := make([]LeaderboardEntry, 0, len(order))
	for _, label := range order {
		values := groups[label]
		sort.Float64s(values)

		sum := 0.0
		for _, v := range values {
			sum += v
		}
		entries = append(entries, LeaderboardEntry{
			Label:      label,
			Average:    round2(sum / float64(len(values))),
			Median:     round2(Quantile(values, 50)),
			SampleSize: len(values),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Average > entries[j].Average
	})

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// CohortSummary describes a filtered cohort: medians of income and the
// income-normalized ratios, plus global averages of the headline metrics.
type CohortSummary struct {
	SampleSize        int     `json:"sampleSize"`
	MedianIncome      float64 `json:"medianIncome"`
	MedianSavingsRate float64 `json:"medianSavingsRate"`
	MedianExpenseRate float64 `json:"medianExpenseRate"`
	AvgIncome         float64 `json:"avgIncome"`
	AvgExpenses       float64 `json:"avgExpenses"`
	AvgSavings        float64 `json:"avgSavings"`
	AvgNetWorth       float64 `json:"avgNetWorth"`
	AvgInvestment     float64 `json:"avgInvestment"`
}

// SummarizeCohort computes the cohort summary over a list of records.
//
// Savings rate is savings/income*100 and expense rate is yearly expenses
// over income, both only for records with income > 0; records without a
// positive income are excluded from the ratio populations but still count
// toward SampleSize. The per-record investment total sums the four
// investable asset fields and is treated as absent when the sum is not
// positive.
func SummarizeCohort(records []*models.Submission) CohortSummary {
	cs := CohortSummary{SampleSize: len(records)}
	if len(records) == 0 {
		return cs
	}

	var incomes, savingsRates, expenseRates []float64
	var expenses, savings, netWorths, investments []float64

	for _, rec := range records {
		if rec.MonthlyExpenses != nil {
			expenses = append(expenses, *rec.MonthlyExpenses)
		}
		if rec.TotalSavings != nil {
			savings = append(savings, *rec.TotalSavings)
		}
		if rec.NetWorth != nil {
			netWorths = append(netWorths, *rec.NetWorth)
		}
		if v, ok := investmentTotal(rec); ok {
			investments = append(investments, v)
		}

		if rec.YearlyIncome == nil {
			continue
		}
		income := *rec.YearlyIncome
		incomes = append(incomes, income)
		if income <= 0 {
			continue
		}
		if rec.TotalSavings != nil {
			savingsRates = append(savingsRates, *rec.TotalSavings/income*100)
		}
		if rec.MonthlyExpenses != nil {
			expenseRates = append(expenseRates, *rec.MonthlyExpenses*12/income*100)
		}
	}

	sort.Float64s(incomes)
	sort.Float64s(savingsRates)
	sort.Float64s(expenseRates)

	cs.MedianIncome = round2(Quantile(incomes, 50))
	cs.MedianSavingsRate = round2(Quantile(savingsRates, 50))
	cs.MedianExpenseRate = round2(Quantile(expenseRates, 50))
	cs.AvgIncome = average(incomes)
	cs.AvgExpenses = average(expenses)
	cs.AvgSavings = average(savings)
	cs.AvgNetWorth = average(netWorths)
	cs.AvgInvestment = average(investments)
	return cs
}

// investmentTotal sums the four investable asset fields of one record.
// A non-positive sum means no investments were recorded.
func investmentTotal(s *models.Submission) (float64, bool) {
	total := 0.0
	for _, v := range []*float64{s.StockValue, s.MutualFundValue, s.RealEstateValue, s.GoldValue} {
		if v != nil {
			total += *v
		}
	}
	if total > 0 {
		return total, true
	}
	return 0, false
}

// AgeBand returns the canonical age band for bucketing. Every component
// that buckets by age uses this banding.
func AgeBand(age int) string {
	switch {
	case age < 25:
		return "<25"
	case age < 30:
		return "25-29"
	case age < 35:
		return "30-34"
	case age < 40:
		return "35-39"
	case age < 45:
		return "40-44"
	case age < 50:
		return "45-49"
	default:
		return "50+"
	}
}

// AgeBandKey buckets a record by its canonical age band.
func AgeBandKey(s *models.Submission) (string, bool) {
	if s.Age == nil {
		return "", false
	}
	return AgeBand(*s.Age), true
}

// IncomeSlab returns a closed-range label for the fixed-width income slab
// containing the value, e.g. "500000-999999".
func IncomeSlab(income float64) string {
	if income < 0 {
		income = 0
	}
	slab := int(income) / incomeSlabWidth
	lo := slab * incomeSlabWidth
	return fmt.Sprintf("%d-%d", lo, lo+incomeSlabWidth-1)
}

// IncomeSlabKey buckets a record by its income slab.
func IncomeSlabKey(s *models.Submission) (string, bool) {
	if s.YearlyIncome == nil {
		return "", false
	}
	return IncomeSlab(*s.YearlyIncome), true
}

// OccupationKey buckets a record by its raw occupation string.
func OccupationKey(s *models.Submission) (string, bool) {
	if s.Occupation == nil || *s.Occupation == "" {
		return "", false
	}
	return *s.Occupation, true
}

// CityKey buckets a record by city.
func CityKey(s *models.Submission) (string, bool) {
	if s.City == nil || *s.City == "" {
		return "", false
	}
	return *s.City, true
}

func extractValues(records []*models.Submission, extract Extractor) []float64 {
	var values []float64
	for _, rec := range records {
		if v, ok := extract(rec); ok {
			values = append(values, v)
		}
	}
	return values
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

// round2 rounds to two decimal places. Applied only at output boundaries to
// avoid compounding rounding error mid-computation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
