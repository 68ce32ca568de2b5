package loan

import (
	"fmt"
	"time"

	"lending-engine/internal/domain/amort"
	"lending-engine/internal/pkg/apperrors"
)

type LoanStatus string

const (
	StatusActive     LoanStatus = "ACTIVE"
	StatusPaidOff    LoanStatus = "PAID_OFF"
	StatusSettled    LoanStatus = "SETTLED"
	StatusDelinquent LoanStatus = "DELINQUENT"
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// Loan is a disbursed loan with its derived amortization figures and running
// balances. PrincipalDue, InterestDue and FeesDue are the explicit ledger
// sub-balances settlement quotes are built from; they are updated by every
// payment so the 70/20/10 guess is only needed for legacy rows that lack
// them.
type Loan struct {
	ID                 int64
	ClientID           int64
	Principal          float64
	AnnualRate         float64
	InterestType       amort.InterestType
	TermLength         int
	TermUnit           amort.TermUnit
	Frequency          amort.Frequency
	InstallmentAmount  float64
	TotalInterest      float64
	TotalRepayable     float64
	OutstandingBalance float64
	PaidAmount         float64
	PrincipalDue       float64
	InterestDue        float64
	FeesDue            float64
	DisbursementDate   time.Time
	FirstRepaymentDate time.Time
	MaturityDate       time.Time
	Status             LoanStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Installments       []Installment
}

// Installment is one persisted schedule entry. Payment state is recorded
// explicitly per line rather than back-derived from the cumulative paid
// amount.
type Installment struct {
	ID               int64
	LoanID           int64
	Number           int
	DueDate          time.Time
	PrincipalPortion float64
	InterestPortion  float64
	DueAmount        float64
	PaidAmount       float64
	PaymentDate      *time.Time
	Status           InstallmentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ledger exposes the loan's sub-balances in the shape the settlement
// calculator consumes.
func (l *Loan) Ledger() *amort.Breakdown {
	if l.PrincipalDue == 0 && l.InterestDue == 0 && l.FeesDue == 0 {
		return nil
	}
	return &amort.Breakdown{
		Principal: l.PrincipalDue,
		Interest:  l.InterestDue,
		Fees:      l.FeesDue,
	}
}

// NewLoan amortizes the given terms and builds the loan plus its installment
// records. Terms that yield no schedule are a validation failure.
func NewLoan(clientID int64, terms amort.Terms, calc *amort.Calculator) (*Loan, []Installment, error) {
	if terms.DisbursementDate.IsZero() {
		terms.DisbursementDate = time.Now().Truncate(24 * time.Hour)
	}

	summary := calc.Compute(terms)
	if summary == nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, apperrors.ErrNoSchedule)
	}

	l := &Loan{
		ClientID:           clientID,
		Principal:          terms.Principal,
		AnnualRate:         terms.AnnualRate,
		InterestType:       terms.InterestType,
		TermLength:         terms.TermLength,
		TermUnit:           terms.TermUnit,
		Frequency:          terms.Frequency,
		InstallmentAmount:  summary.InstallmentAmount,
		TotalInterest:      summary.TotalInterest,
		TotalRepayable:     summary.TotalRepayable,
		OutstandingBalance: summary.TotalRepayable,
		PrincipalDue:       terms.Principal,
		InterestDue:        summary.TotalInterest,
		DisbursementDate:   terms.DisbursementDate,
		FirstRepaymentDate: summary.Lines[0].DueDate,
		MaturityDate:       summary.MaturityDate,
		Status:             StatusActive,
	}

	installments := make([]Installment, 0, summary.NumberOfInstallments)
	for _, line := range summary.Lines {
		installments = append(installments, Installment{
			Number:           line.Number,
			DueDate:          line.DueDate,
			PrincipalPortion: line.Principal,
			InterestPortion:  line.Interest,
			DueAmount:        line.Total,
			Status:           InstallmentPending,
		})
	}

	return l, installments, nil
}
