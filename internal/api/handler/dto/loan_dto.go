package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/amort"
	"lending-engine/internal/domain/loan"
)

const dateLayout = "2006-01-02"

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

type CreateLoanRequest struct {
	ClientID         int64   `json:"clientId"`
	Principal        float64 `json:"principal"`
	AnnualRate       float64 `json:"annualRate"`
	InterestType     string  `json:"interestType"`
	TermLength       int     `json:"termLength"`
	TermUnit         string  `json:"termUnit"`
	Frequency        string  `json:"frequency"`
	DisbursementDate string  `json:"disbursementDate"`
}

var (
	validInterestTypes = map[string]amort.InterestType{
		"FLAT":             amort.InterestFlat,
		"REDUCING_BALANCE": amort.InterestReducingBalance,
	}
	validTermUnits = map[string]amort.TermUnit{
		"DAYS":   amort.UnitDays,
		"WEEKS":  amort.UnitWeeks,
		"MONTHS": amort.UnitMonths,
		"YEARS":  amort.UnitYears,
	}
	validFrequencies = map[string]amort.Frequency{
		"DAILY":     amort.FrequencyDaily,
		"WEEKLY":    amort.FrequencyWeekly,
		"BIWEEKLY":  amort.FrequencyBiWeekly,
		"MONTHLY":   amort.FrequencyMonthly,
		"QUARTERLY": amort.FrequencyQuarterly,
	}
)

func (r *CreateLoanRequest) Validate() error {
	if r.ClientID <= 0 {
		return fmt.Errorf("clientId must be positive")
	}
	if r.Principal <= 0 {
		return fmt.Errorf("principal must be greater than zero")
	}
	if r.AnnualRate < 0 {
		return fmt.Errorf("annualRate cannot be negative")
	}
	if r.TermLength <= 0 {
		return fmt.Errorf("termLength must be positive")
	}
	if _, ok := validInterestTypes[r.InterestType]; !ok {
		return fmt.Errorf("interestType must be FLAT or REDUCING_BALANCE")
	}
	if _, ok := validTermUnits[r.TermUnit]; !ok {
		return fmt.Errorf("termUnit must be one of DAYS, WEEKS, MONTHS, YEARS")
	}
	if _, ok := validFrequencies[r.Frequency]; !ok {
		return fmt.Errorf("frequency must be one of DAILY, WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY")
	}
	if r.DisbursementDate != "" {
		if _, err := time.Parse(dateLayout, r.DisbursementDate); err != nil {
			return fmt.Errorf("invalid disbursementDate format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// ToTerms converts a validated request into calculation terms.
func (r *CreateLoanRequest) ToTerms() amort.Terms {
	disbursement, _ := time.Parse(dateLayout, r.DisbursementDate)
	return amort.Terms{
		Principal:        r.Principal,
		AnnualRate:       r.AnnualRate,
		InterestType:     validInterestTypes[r.InterestType],
		TermLength:       r.TermLength,
		TermUnit:         validTermUnits[r.TermUnit],
		Frequency:        validFrequencies[r.Frequency],
		DisbursementDate: disbursement,
	}
}

type MakePaymentRequest struct {
	Amount string `json:"amount"`
}

func (r *MakePaymentRequest) Validate() error {
	if _, err := decimal.NewFromString(r.Amount); err != nil || r.Amount == "" {
		return fmt.Errorf("invalid payment amount: %w", err)
	}
	return nil
}

type SettlementRequest struct {
	SettlementDate string `json:"settlementDate"`
	IncludeRebate  bool   `json:"includeRebate"`
}

func (r *SettlementRequest) Validate() error {
	if r.SettlementDate == "" {
		return fmt.Errorf("settlementDate is required")
	}
	if _, err := time.Parse(dateLayout, r.SettlementDate); err != nil {
		return fmt.Errorf("invalid settlementDate format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

func (r *SettlementRequest) Date() time.Time {
	d, _ := time.Parse(dateLayout, r.SettlementDate)
	return d
}

type LoanResponse struct {
	ID                   string                `json:"id"`
	ClientID             string                `json:"clientId"`
	Principal            string                `json:"principal"`
	AnnualRate           string                `json:"annualRate"`
	InterestType         string                `json:"interestType"`
	TermLength           int                   `json:"termLength"`
	TermUnit             string                `json:"termUnit"`
	Frequency            string                `json:"frequency"`
	InstallmentAmount    string                `json:"installmentAmount"`
	TotalInterest        string                `json:"totalInterest"`
	TotalRepayable       string                `json:"totalRepayable"`
	NumberOfInstallments int                   `json:"numberOfInstallments,omitempty"`
	OutstandingBalance   string                `json:"outstandingBalance"`
	PaidAmount           string                `json:"paidAmount"`
	DisbursementDate     string                `json:"disbursementDate"`
	MaturityDate         string                `json:"maturityDate"`
	Status               string                `json:"status"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
	Schedule             []ScheduleLineResponse `json:"schedule,omitempty"`
}

type ScheduleLineResponse struct {
	Number           int        `json:"number"`
	DueDate          string     `json:"dueDate"`
	PrincipalPortion string     `json:"principalPortion"`
	InterestPortion  string     `json:"interestPortion"`
	DueAmount        string     `json:"dueAmount"`
	PaidAmount       *string    `json:"paidAmount,omitempty"`
	PaymentDate      *time.Time `json:"paymentDate,omitempty"`
	Status           string     `json:"status"`
	Lifecycle        string     `json:"lifecycle,omitempty"`
}

type OutstandingResponse struct {
	LoanID             string `json:"loanId"`
	OutstandingBalance string `json:"outstandingBalance"`
}

type DelinquentResponse struct {
	LoanID       string `json:"loanId"`
	IsDelinquent bool   `json:"isDelinquent"`
}

type SettlementQuoteResponse struct {
	LoanID                string `json:"loanId"`
	OutstandingPrincipal  string `json:"outstandingPrincipal"`
	OutstandingInterest   string `json:"outstandingInterest"`
	PendingFees           string `json:"pendingFees"`
	RebateAmount          string `json:"rebateAmount"`
	TotalSettlementAmount string `json:"totalSettlementAmount"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

func NewLoanResponse(l *loan.Loan, includeSchedule bool) LoanResponse {
	resp := LoanResponse{
		ID:                   strconv.FormatInt(l.ID, 10),
		ClientID:             strconv.FormatInt(l.ClientID, 10),
		Principal:            formatMoney(l.Principal),
		AnnualRate:           decimal.NewFromFloat(l.AnnualRate).String(),
		InterestType:         string(l.InterestType),
		TermLength:           l.TermLength,
		TermUnit:             string(l.TermUnit),
		Frequency:            string(l.Frequency),
		InstallmentAmount:    formatMoney(l.InstallmentAmount),
		TotalInterest:        formatMoney(l.TotalInterest),
		TotalRepayable:       formatMoney(l.TotalRepayable),
		NumberOfInstallments: len(l.Installments),
		OutstandingBalance:   formatMoney(l.OutstandingBalance),
		PaidAmount:           formatMoney(l.PaidAmount),
		DisbursementDate:     l.DisbursementDate.Format(dateLayout),
		MaturityDate:         l.MaturityDate.Format(dateLayout),
		Status:               string(l.Status),
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}

	if includeSchedule && l.Installments != nil {
		resp.Schedule = make([]ScheduleLineResponse, len(l.Installments))
		for i, entry := range l.Installments {
			resp.Schedule[i] = NewInstallmentResponse(&entry, "")
		}
	}

	return resp
}

func NewInstallmentResponse(entry *loan.Installment, lifecycle amort.LifecycleStatus) ScheduleLineResponse {
	var paidAmountStr *string
	if entry.PaidAmount != 0 {
		s := formatMoney(entry.PaidAmount)
		paidAmountStr = &s
	}

	return ScheduleLineResponse{
		Number:           entry.Number,
		DueDate:          entry.DueDate.Format(dateLayout),
		PrincipalPortion: formatMoney(entry.PrincipalPortion),
		InterestPortion:  formatMoney(entry.InterestPortion),
		DueAmount:        formatMoney(entry.DueAmount),
		PaidAmount:       paidAmountStr,
		PaymentDate:      entry.PaymentDate,
		Status:           string(entry.Status),
		Lifecycle:        string(lifecycle),
	}
}

func NewSettlementQuoteResponse(loanID int64, q *amort.Quote) SettlementQuoteResponse {
	return SettlementQuoteResponse{
		LoanID:                strconv.FormatInt(loanID, 10),
		OutstandingPrincipal:  formatMoney(q.OutstandingPrincipal),
		OutstandingInterest:   formatMoney(q.OutstandingInterest),
		PendingFees:           formatMoney(q.PendingFees),
		RebateAmount:          formatMoney(q.RebateAmount),
		TotalSettlementAmount: formatMoney(q.TotalSettlementAmount),
	}
}
