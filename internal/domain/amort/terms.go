package amort

import "time"

type InterestType string

const (
	InterestFlat            InterestType = "FLAT"
	InterestReducingBalance InterestType = "REDUCING_BALANCE"
)

type TermUnit string

const (
	UnitDays   TermUnit = "DAYS"
	UnitWeeks  TermUnit = "WEEKS"
	UnitMonths TermUnit = "MONTHS"
	UnitYears  TermUnit = "YEARS"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiWeekly  Frequency = "BIWEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
)

// Terms are the raw loan parameters a schedule is derived from.
type Terms struct {
	Principal        float64
	AnnualRate       float64
	InterestType     InterestType
	TermLength       int
	TermUnit         TermUnit
	Frequency        Frequency
	DisbursementDate time.Time
}

// ConversionPolicy holds the day-count constants used to translate a term
// expressed in one unit into a number of installments at a given repayment
// frequency. The fixed divisors are a calendar approximation, not exact date
// arithmetic.
type ConversionPolicy struct {
	DaysPerWeek    int
	DaysPerMonth   int
	DaysPerQuarter int
	DaysPerYear    int
}

func DefaultConversionPolicy() ConversionPolicy {
	return ConversionPolicy{
		DaysPerWeek:    7,
		DaysPerMonth:   30,
		DaysPerQuarter: 90,
		DaysPerYear:    365,
	}
}

func (p ConversionPolicy) termDays(length int, unit TermUnit) int {
	switch unit {
	case UnitDays:
		return length
	case UnitWeeks:
		return length * p.DaysPerWeek
	case UnitMonths:
		return length * p.DaysPerMonth
	case UnitYears:
		return length * p.DaysPerYear
	default:
		return 0
	}
}

func (p ConversionPolicy) intervalDays(freq Frequency) int {
	switch freq {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return p.DaysPerWeek
	case FrequencyBiWeekly:
		return 2 * p.DaysPerWeek
	case FrequencyMonthly:
		return p.DaysPerMonth
	case FrequencyQuarterly:
		return p.DaysPerQuarter
	default:
		return 0
	}
}

// Installments converts a term into the count of repayments at the given
// frequency, rounding partial periods up. Returns 0 when the term or the
// frequency cannot be interpreted.
func (p ConversionPolicy) Installments(length int, unit TermUnit, freq Frequency) int {
	if length <= 0 {
		return 0
	}
	days := p.termDays(length, unit)
	interval := p.intervalDays(freq)
	if days <= 0 || interval <= 0 {
		return 0
	}
	return (days + interval - 1) / interval
}
