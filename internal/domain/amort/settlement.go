package amort

import "time"

// Breakdown splits an outstanding balance into its principal, interest and
// fee components.
type Breakdown struct {
	Principal float64
	Interest  float64
	Fees      float64
}

// HeuristicBreakdown is the fallback split used for loans that do not carry
// explicit sub-balances: 70% principal, 20% interest, 10% fees.
func HeuristicBreakdown(outstanding float64) Breakdown {
	return Breakdown{
		Principal: outstanding * 0.70,
		Interest:  outstanding * 0.20,
		Fees:      outstanding * 0.10,
	}
}

// SettlementInputs describe a loan at the moment an early settlement quote is
// requested. Ledger is optional; when nil the heuristic split applies.
type SettlementInputs struct {
	OutstandingBalance float64
	DisbursementDate   time.Time
	MaturityDate       time.Time
	Ledger             *Breakdown
}

// Quote is the result of an early settlement computation. It is derived on
// demand and never persisted by this package.
type Quote struct {
	OutstandingPrincipal  float64
	OutstandingInterest   float64
	PendingFees           float64
	RebateAmount          float64
	TotalSettlementAmount float64
}

// ComputeSettlement prices the early closure of a loan. The rebate is the
// time-proportional share of unearned interest; it is zero when rebates are
// excluded, when the settlement date is past maturity, or when the loan has a
// zero-length duration (same-day disbursement and maturity).
func ComputeSettlement(inputs SettlementInputs, settlementDate time.Time, includeRebate bool) Quote {
	split := HeuristicBreakdown(inputs.OutstandingBalance)
	if inputs.Ledger != nil {
		split = *inputs.Ledger
	}

	quote := Quote{
		OutstandingPrincipal:  split.Principal,
		OutstandingInterest:   split.Interest,
		PendingFees:           split.Fees,
		TotalSettlementAmount: inputs.OutstandingBalance,
	}

	if !includeRebate {
		return quote
	}

	totalDays := daysBetween(inputs.DisbursementDate, inputs.MaturityDate)
	if totalDays <= 0 {
		return quote
	}

	remainingDays := daysBetween(settlementDate, inputs.MaturityDate)
	if remainingDays < 0 {
		remainingDays = 0
	}

	quote.RebateAmount = split.Interest * float64(remainingDays) / float64(totalDays)
	quote.TotalSettlementAmount = inputs.OutstandingBalance - quote.RebateAmount
	return quote
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
