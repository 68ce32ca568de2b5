package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CreateLoan creates a loan and its amortization schedule.
//
// @Summary Create a new loan
// @Description Amortizes the submitted terms (flat or reducing balance) into an installment schedule and persists the loan for the given client.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateLoan(r.Context(), req.ClientID, req.ToTerms())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(created, true))
}

// GetLoan retrieves loan details.
//
// @Summary Retrieve loan details
// @Description Returns a loan by ID. Add `include=schedule` to embed the installment schedule.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param include query string false "Optional parameter to include the schedule (use 'schedule')"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	includeSchedule := r.URL.Query().Get("include") == "schedule"
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan, includeSchedule))
}

// GetSchedule returns the loan's installments classified against today.
//
// @Summary Retrieve classified repayment schedule
// @Description Returns every installment with its lifecycle state (PAID, OVERDUE, DUE_TODAY, DUE_SOON, UPCOMING) relative to the asOf date (default today).
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param asOf query string false "Classification date (YYYY-MM-DD, default today)"
// @Success 200 {array} dto.ScheduleLineResponse "Schedule successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid asOf date: %v", apperrors.ErrInvalidArgument, err))
			return
		}
		asOf = parsed
	}

	lines, err := h.service.GetSchedule(r.Context(), loanID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.ScheduleLineResponse, len(lines))
	for i, line := range lines {
		resp[i] = dto.NewInstallmentResponse(&line.Installment, line.Lifecycle)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetOutstanding retrieves the outstanding balance for a loan.
//
// @Summary Retrieve outstanding loan balance
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.OutstandingResponse "Outstanding balance successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OutstandingResponse{
		LoanID:             strconv.FormatInt(loanID, 10),
		OutstandingBalance: fmt.Sprintf("%.2f", outstanding),
	})
}

// IsDelinquent checks if a loan is delinquent.
//
// @Summary Check loan delinquency status
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.DelinquentResponse "Delinquency status successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/delinquent [get]
// @Security BearerAuth
func (h *LoanHandler) IsDelinquent(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	isDelinquent, err := h.service.IsDelinquent(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.DelinquentResponse{
		LoanID:       strconv.FormatInt(loanID, 10),
		IsDelinquent: isDelinquent,
	})
}

// MakePayment processes a payment for a loan.
//
// @Summary Make a loan payment
// @Description Pays the oldest unpaid installment. The amount must match the installment's due amount.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.MakePaymentRequest true "Payment request payload"
// @Success 200 {object} map[string]string "Payment successfully processed"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID, request payload, or validation error"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.MakePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amountDecimal, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid numeric format for amount", apperrors.ErrInvalidArgument))
		return
	}
	amountFloat, _ := amountDecimal.Float64()

	if err := h.service.MakePayment(r.Context(), loanID, amountFloat); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Payment successful"})
}

// QuoteSettlement prices an early settlement without closing the loan.
//
// @Summary Quote an early settlement
// @Description Splits the outstanding balance into principal/interest/fees and, when requested, computes the time-proportional interest rebate.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.SettlementRequest true "Settlement quote request payload"
// @Success 200 {object} dto.SettlementQuoteResponse "Quote successfully computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or loan not settleable"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/settlement/quote [post]
// @Security BearerAuth
func (h *LoanHandler) QuoteSettlement(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.SettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	quote, err := h.service.QuoteSettlement(r.Context(), loanID, req.Date(), req.IncludeRebate)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSettlementQuoteResponse(loanID, quote))
}

// SettleLoan closes a loan early at the quoted settlement amount.
//
// @Summary Settle a loan early
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.SettlementRequest true "Settlement request payload"
// @Success 200 {object} dto.SettlementQuoteResponse "Loan successfully settled"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or loan not settleable"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/settlement [post]
// @Security BearerAuth
func (h *LoanHandler) SettleLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.SettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	quote, err := h.service.SettleLoan(r.Context(), loanID, req.Date(), req.IncludeRebate)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSettlementQuoteResponse(loanID, quote))
}
