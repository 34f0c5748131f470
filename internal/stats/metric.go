package stats

import (
	"fmt"

	"github.com/finbench/internal/models"
)

// Metric names a pure function of a single submission. The set is closed;
// unknown names are rejected at the API boundary.
type Metric string

const (
	MetricIncome     Metric = "income"
	MetricSavings    Metric = "savings"
	MetricExpenses   Metric = "expenses"
	MetricNetWorth   Metric = "net_worth"
	MetricInvestment Metric = "investment_value"
	MetricStocks     Metric = "stock_value_total"
	MetricMutualFund Metric = "mutual_fund_total"
	MetricRealEstate Metric = "real_estate_total_price"
	MetricGold       Metric = "gold_value_estimate"
)

// ExtraKeyMonthlyEMI is the open-metrics map key for monthly loan EMIs.
const ExtraKeyMonthlyEMI = "monthly_emi"

// Extractor reads a metric value from a submission. ok is false when the
// submission does not carry the value.
type Extractor func(*models.Submission) (float64, bool)

var extractors = map[Metric]Extractor{
	MetricIncome:     fromPtr(func(s *models.Submission) *float64 { return s.YearlyIncome }),
	MetricSavings:    fromPtr(func(s *models.Submission) *float64 { return s.TotalSavings }),
	MetricExpenses:   fromPtr(func(s *models.Submission) *float64 { return s.MonthlyExpenses }),
	MetricNetWorth:   fromPtr(func(s *models.Submission) *float64 { return s.NetWorth }),
	MetricStocks:     fromPtr(func(s *models.Submission) *float64 { return s.StockValue }),
	MetricMutualFund: fromPtr(func(s *models.Submission) *float64 { return s.MutualFundValue }),
	MetricRealEstate: fromPtr(func(s *models.Submission) *float64 { return s.RealEstateValue }),
	MetricGold:       fromPtr(func(s *models.Submission) *float64 { return s.GoldValue }),
	MetricInvestment: investmentValue,
}

func fromPtr(get func(*models.Submission) *float64) Extractor {
	return func(s *models.Submission) (float64, bool) {
		if v := get(s); v != nil {
			return *v, true
		}
		return 0, false
	}
}

// investmentValue sums savings and the four investable asset classes. A sum
// of exactly zero means "no investments recorded" and propagates as absent.
func investmentValue(s *models.Submission) (float64, bool) {
	total := 0.0
	for _, v := range []*float64{s.TotalSavings, s.StockValue, s.MutualFundValue, s.RealEstateValue, s.GoldValue} {
		if v != nil {
			total += *v
		}
	}
	if total > 0 {
		return total, true
	}
	return 0, false
}

// ParseMetric resolves a metric name from the closed enumeration.
func ParseMetric(name string) (Metric, error) {
	m := Metric(name)
	if _, ok := extractors[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", name)
	}
	return m, nil
}

// ExtractorFor returns the extractor for a known metric.
func ExtractorFor(m Metric) (Extractor, bool) {
	fn, ok := extractors[m]
	return fn, ok
}

// Metrics lists every metric in the enumeration.
func Metrics() []Metric {
	return []Metric{
		MetricIncome,
		MetricSavings,
		MetricExpenses,
		MetricNetWorth,
		MetricInvestment,
		MetricStocks,
		MetricMutualFund,
		MetricRealEstate,
		MetricGold,
	}
}
