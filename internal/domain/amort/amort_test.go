package amort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeFlat(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())

	summary := calc.Compute(Terms{
		Principal:        10000,
		AnnualRate:       15,
		InterestType:     InterestFlat,
		TermLength:       12,
		TermUnit:         UnitMonths,
		Frequency:        FrequencyMonthly,
		DisbursementDate: date(2025, time.January, 15),
	})

	require.NotNil(t, summary)
	assert.Equal(t, 12, summary.NumberOfInstallments)
	assert.InDelta(t, 1500.0, summary.TotalInterest, 0.001)
	assert.InDelta(t, 11500.0, summary.TotalRepayable, 0.001)
	assert.InDelta(t, 958.3333, summary.InstallmentAmount, 0.001)
	assert.Len(t, summary.Lines, 12)
	assert.Equal(t, date(2026, time.January, 15), summary.MaturityDate)
}

func TestComputeFlat_PrincipalConservation(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())

	summary := calc.Compute(Terms{
		Principal:        10000,
		AnnualRate:       10,
		InterestType:     InterestFlat,
		TermLength:       7,
		TermUnit:         UnitMonths,
		Frequency:        FrequencyMonthly,
		DisbursementDate: date(2025, time.March, 1),
	})

	require.NotNil(t, summary)

	principalSum := 0.0
	for _, line := range summary.Lines {
		principalSum += line.Principal
	}
	assert.InDelta(t, 10000.0, principalSum, 0.000001)
	assert.InDelta(t, 0.0, summary.Lines[len(summary.Lines)-1].RemainingBalance, 0.000001)
}

func TestComputeReducingBalance(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())

	summary := calc.Compute(Terms{
		Principal:        10000,
		AnnualRate:       12,
		InterestType:     InterestReducingBalance,
		TermLength:       12,
		TermUnit:         UnitMonths,
		Frequency:        FrequencyMonthly,
		DisbursementDate: date(2025, time.June, 1),
	})

	require.NotNil(t, summary)
	assert.Equal(t, 12, summary.NumberOfInstallments)

	// Annuity payment for 10000 at 1% per period over 12 periods.
	assert.InDelta(t, 888.49, summary.InstallmentAmount, 0.01)
	assert.Greater(t, summary.TotalInterest, 0.0)
	assert.Less(t, summary.TotalInterest, 1200.0)

	prevBalance := summary.Lines[0].RemainingBalance
	for _, line := range summary.Lines[1:] {
		assert.LessOrEqual(t, line.RemainingBalance, prevBalance)
		prevBalance = line.RemainingBalance
	}
	assert.InDelta(t, 0.0, summary.Lines[len(summary.Lines)-1].RemainingBalance, 0.000001)
}

func TestComputeReducingBalance_ZeroRate(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())

	summary := calc.Compute(Terms{
		Principal:        1200,
		AnnualRate:       0,
		InterestType:     InterestReducingBalance,
		TermLength:       12,
		TermUnit:         UnitMonths,
		Frequency:        FrequencyMonthly,
		DisbursementDate: date(2025, time.January, 1),
	})

	require.NotNil(t, summary)
	assert.InDelta(t, 100.0, summary.InstallmentAmount, 0.000001)
	assert.InDelta(t, 0.0, summary.TotalInterest, 0.000001)
	assert.InDelta(t, 1200.0, summary.TotalRepayable, 0.000001)
}

func TestCompute_Idempotent(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())
	terms := Terms{
		Principal:        5000,
		AnnualRate:       8,
		InterestType:     InterestFlat,
		TermLength:       26,
		TermUnit:         UnitWeeks,
		Frequency:        FrequencyWeekly,
		DisbursementDate: date(2025, time.February, 10),
	}

	first := calc.Compute(terms)
	second := calc.Compute(terms)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestCompute_InvalidInput(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())

	cases := []struct {
		name  string
		terms Terms
	}{
		{"zero principal", Terms{Principal: 0, AnnualRate: 10, TermLength: 12, TermUnit: UnitMonths, Frequency: FrequencyMonthly}},
		{"negative principal", Terms{Principal: -100, AnnualRate: 10, TermLength: 12, TermUnit: UnitMonths, Frequency: FrequencyMonthly}},
		{"negative rate", Terms{Principal: 1000, AnnualRate: -1, TermLength: 12, TermUnit: UnitMonths, Frequency: FrequencyMonthly}},
		{"zero term", Terms{Principal: 1000, AnnualRate: 10, TermLength: 0, TermUnit: UnitMonths, Frequency: FrequencyMonthly}},
		{"unknown frequency", Terms{Principal: 1000, AnnualRate: 10, TermLength: 12, TermUnit: UnitMonths, Frequency: Frequency("HOURLY")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, calc.Compute(tc.terms))
		})
	}
}

func TestCompute_DueDateStepping(t *testing.T) {
	calc := NewCalculator(DefaultConversionPolicy())
	start := date(2025, time.January, 31)

	summary := calc.Compute(Terms{
		Principal:        3000,
		AnnualRate:       10,
		InterestType:     InterestFlat,
		TermLength:       3,
		TermUnit:         UnitMonths,
		Frequency:        FrequencyMonthly,
		DisbursementDate: start,
	})

	require.NotNil(t, summary)
	require.Len(t, summary.Lines, 3)
	assert.Equal(t, start.AddDate(0, 1, 0), summary.Lines[0].DueDate)
	assert.Equal(t, start.AddDate(0, 2, 0), summary.Lines[1].DueDate)
	assert.Equal(t, start.AddDate(0, 3, 0), summary.Lines[2].DueDate)
}

func TestConversionPolicy_Installments(t *testing.T) {
	policy := DefaultConversionPolicy()

	cases := []struct {
		name     string
		length   int
		unit     TermUnit
		freq     Frequency
		expected int
	}{
		{"12 months monthly", 12, UnitMonths, FrequencyMonthly, 12},
		{"1 year monthly", 1, UnitYears, FrequencyMonthly, 13},
		{"52 weeks weekly", 52, UnitWeeks, FrequencyWeekly, 52},
		{"1 year weekly", 1, UnitYears, FrequencyWeekly, 53},
		{"90 days biweekly", 90, UnitDays, FrequencyBiWeekly, 7},
		{"6 months quarterly", 6, UnitMonths, FrequencyQuarterly, 2},
		{"10 days daily", 10, UnitDays, FrequencyDaily, 10},
		{"partial period rounds up", 13, UnitDays, FrequencyWeekly, 2},
		{"zero length", 0, UnitMonths, FrequencyMonthly, 0},
		{"unknown unit", 12, TermUnit("FORTNIGHTS"), FrequencyMonthly, 0},
		{"unknown frequency", 12, UnitMonths, Frequency("HOURLY"), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.Installments(tc.length, tc.unit, tc.freq))
		})
	}
}
