package amort

import (
	"math"
	"time"
)

type LifecycleStatus string

const (
	StatusPaid     LifecycleStatus = "PAID"
	StatusOverdue  LifecycleStatus = "OVERDUE"
	StatusDueToday LifecycleStatus = "DUE_TODAY"
	StatusDueSoon  LifecycleStatus = "DUE_SOON"
	StatusUpcoming LifecycleStatus = "UPCOMING"
	StatusPending  LifecycleStatus = "PENDING"
)

// Installments falling due within this window ahead of the as-of date are
// classified DUE_SOON.
const dueSoonWindowDays = 7

// ProjectionInputs are the persisted loan fields a schedule projection is
// rebuilt from.
type ProjectionInputs struct {
	FirstRepaymentDate   time.Time
	Frequency            Frequency
	NumberOfInstallments int
	InstallmentAmount    float64
	PaidAmount           float64
}

// ProjectedInstallment is one projected repayment with its lifecycle state
// relative to the as-of date.
type ProjectedInstallment struct {
	Number  int
	DueDate time.Time
	Amount  float64
	Status  LifecycleStatus
}

// Project recomputes a loan's future schedule from its recorded frequency and
// installment amount. The result is rebuilt fresh on every call; there is no
// cached state. The count of fully paid installments is back-derived as
// floor(paidAmount/installmentAmount), which misclassifies partial payments;
// loans with a materialized schedule should prefer their per-installment
// payment records.
func Project(inputs ProjectionInputs, asOf time.Time) []ProjectedInstallment {
	if inputs.NumberOfInstallments <= 0 {
		return nil
	}

	paidCount := 0
	if inputs.InstallmentAmount > 0 && inputs.PaidAmount > 0 {
		paidCount = int(math.Floor(inputs.PaidAmount / inputs.InstallmentAmount))
	}

	today := truncateDay(asOf)
	out := make([]ProjectedInstallment, 0, inputs.NumberOfInstallments)
	for i := 0; i < inputs.NumberOfInstallments; i++ {
		due := truncateDay(stepDate(inputs.FirstRepaymentDate, inputs.Frequency, i))
		out = append(out, ProjectedInstallment{
			Number:  i + 1,
			DueDate: due,
			Amount:  inputs.InstallmentAmount,
			Status:  Classify(due, today, i < paidCount),
		})
	}
	return out
}

// Classify maps a due date to a lifecycle status relative to the as-of day.
func Classify(dueDate, asOf time.Time, paid bool) LifecycleStatus {
	if paid {
		return StatusPaid
	}
	due := truncateDay(dueDate)
	today := truncateDay(asOf)
	switch {
	case due.Before(today):
		return StatusOverdue
	case due.Equal(today):
		return StatusDueToday
	case !due.After(today.AddDate(0, 0, dueSoonWindowDays)):
		return StatusDueSoon
	default:
		return StatusUpcoming
	}
}

func stepDate(first time.Time, freq Frequency, i int) time.Time {
	switch freq {
	case FrequencyMonthly:
		return first.AddDate(0, i, 0)
	case FrequencyQuarterly:
		return first.AddDate(0, 3*i, 0)
	case FrequencyBiWeekly:
		return first.AddDate(0, 0, 14*i)
	case FrequencyWeekly:
		return first.AddDate(0, 0, 7*i)
	default:
		return first.AddDate(0, 0, i)
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
