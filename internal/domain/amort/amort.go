package amort

import (
	"math"
	"time"
)

// Line is one scheduled repayment with its principal/interest split and the
// balance left after it is paid.
type Line struct {
	Number           int
	DueDate          time.Time
	Principal        float64
	Interest         float64
	Total            float64
	RemainingBalance float64
}

// Summary is the full result of amortizing a set of loan terms. Amounts are
// carried at full float64 precision; rounding to whole currency units is a
// presentation concern.
type Summary struct {
	TotalInterest        float64
	TotalRepayable       float64
	InstallmentAmount    float64
	NumberOfInstallments int
	MaturityDate         time.Time
	Lines                []Line
}

type Calculator struct {
	policy ConversionPolicy
}

func NewCalculator(policy ConversionPolicy) *Calculator {
	return &Calculator{policy: policy}
}

// Compute turns loan terms into an installment schedule. It returns nil when
// the principal or term is non-positive, or when the term/frequency pair
// yields no installments; invalid input is "no result", never an error.
func (c *Calculator) Compute(terms Terms) *Summary {
	if terms.Principal <= 0 || terms.TermLength <= 0 || terms.AnnualRate < 0 {
		return nil
	}

	n := c.policy.Installments(terms.TermLength, terms.TermUnit, terms.Frequency)
	if n <= 0 {
		return nil
	}

	switch terms.InterestType {
	case InterestReducingBalance:
		return c.computeReducingBalance(terms, n)
	default:
		return c.computeFlat(terms, n)
	}
}

// Flat interest: interest is charged once on the original principal and both
// principal and interest are spread evenly across all installments.
func (c *Calculator) computeFlat(terms Terms, n int) *Summary {
	totalInterest := terms.Principal * terms.AnnualRate / 100
	totalRepayable := terms.Principal + totalInterest
	installment := totalRepayable / float64(n)

	principalPerLine := terms.Principal / float64(n)
	interestPerLine := totalInterest / float64(n)

	lines := make([]Line, 0, n)
	remaining := terms.Principal
	for i := 1; i <= n; i++ {
		principal := principalPerLine
		if i == n {
			// Absorb any accumulated remainder into the last line so the
			// schedule sums exactly to the principal.
			principal = remaining
		}
		remaining -= principal
		if remaining < 0 {
			remaining = 0
		}
		lines = append(lines, Line{
			Number:           i,
			DueDate:          c.dueDate(terms, i),
			Principal:        principal,
			Interest:         interestPerLine,
			Total:            principal + interestPerLine,
			RemainingBalance: remaining,
		})
	}

	return &Summary{
		TotalInterest:        totalInterest,
		TotalRepayable:       totalRepayable,
		InstallmentAmount:    installment,
		NumberOfInstallments: n,
		MaturityDate:         lines[n-1].DueDate,
		Lines:                lines,
	}
}

// Reducing balance: the standard annuity payment, with interest recomputed on
// the remaining principal each period.
func (c *Calculator) computeReducingBalance(terms Terms, n int) *Summary {
	monthlyRate := terms.AnnualRate / 100 / 12

	var installment float64
	if monthlyRate == 0 {
		installment = terms.Principal / float64(n)
	} else {
		factor := math.Pow(1+monthlyRate, float64(n))
		installment = terms.Principal * monthlyRate * factor / (factor - 1)
	}

	lines := make([]Line, 0, n)
	remaining := terms.Principal
	totalInterest := 0.0
	for i := 1; i <= n; i++ {
		interest := remaining * monthlyRate
		principal := installment - interest
		if i == n {
			// The last line repays whatever is left, soaking up the
			// accumulated float error.
			principal = remaining
		}
		remaining -= principal
		if remaining < 0 {
			remaining = 0
		}
		totalInterest += interest
		lines = append(lines, Line{
			Number:           i,
			DueDate:          c.dueDate(terms, i),
			Principal:        principal,
			Interest:         interest,
			Total:            principal + interest,
			RemainingBalance: remaining,
		})
	}

	return &Summary{
		TotalInterest:        totalInterest,
		TotalRepayable:       terms.Principal + totalInterest,
		InstallmentAmount:    installment,
		NumberOfInstallments: n,
		MaturityDate:         lines[n-1].DueDate,
		Lines:                lines,
	}
}

// dueDate steps from the disbursement date by i repayment intervals. Monthly
// and quarterly frequencies step by calendar months; the rest by fixed days.
func (c *Calculator) dueDate(terms Terms, i int) time.Time {
	start := terms.DisbursementDate
	switch terms.Frequency {
	case FrequencyMonthly:
		return start.AddDate(0, i, 0)
	case FrequencyQuarterly:
		return start.AddDate(0, 3*i, 0)
	case FrequencyBiWeekly:
		return start.AddDate(0, 0, 14*i)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*i)
	default:
		return start.AddDate(0, 0, i)
	}
}
