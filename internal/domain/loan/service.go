package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/amort"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type Money = float64

// ScheduleLine pairs a persisted installment with its lifecycle state as of a
// given day.
type ScheduleLine struct {
	Installment
	Lifecycle amort.LifecycleStatus
}

type Service interface {
	CreateLoan(ctx context.Context, clientID int64, terms amort.Terms) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	GetSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]ScheduleLine, error)

	// ProjectSchedule rebuilds the schedule from the loan's recorded terms
	// alone, without touching installment records.
	ProjectSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]amort.ProjectedInstallment, error)

	GetOutstanding(ctx context.Context, loanID int64) (Money, error)

	IsDelinquent(ctx context.Context, loanID int64) (bool, error)

	MakePayment(ctx context.Context, loanID int64, amount Money) error

	QuoteSettlement(ctx context.Context, loanID int64, settlementDate time.Time, includeRebate bool) (*amort.Quote, error)

	SettleLoan(ctx context.Context, loanID int64, settlementDate time.Time, includeRebate bool) (*amort.Quote, error)
}

type loanService struct {
	repo          Repository
	clientService client.Service
	calc          *amort.Calculator
	pub           event.Publisher
	logger        *slog.Logger
}

func NewService(r Repository, cs client.Service, calc *amort.Calculator, pub event.Publisher, logger *slog.Logger) Service {
	if pub == nil {
		pub = event.NewNoopPublisher()
	}
	return &loanService{
		repo:          r,
		clientService: cs,
		calc:          calc,
		pub:           pub,
		logger:        logger.With("component", "loanService"),
	}
}

func (s *loanService) CreateLoan(ctx context.Context, clientID int64, terms amort.Terms) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "clientID", clientID)

	cl, err := s.clientService.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %d not found", apperrors.ErrValidation, clientID)
		}
		return nil, fmt.Errorf("failed to verify client status: %w", err)
	}

	if !cl.Active {
		return nil, fmt.Errorf("%w: client %d", client.ErrClientInactive, clientID)
	}

	if cl.LoanID != nil {
		existing, err := s.GetLoan(ctx, *cl.LoanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get existing loan details: %w", err)
		}
		if existing.Status == StatusActive || existing.Status == StatusDelinquent {
			return nil, fmt.Errorf("%w (loanID: %d)", client.ErrClientAlreadyHasLoan, existing.ID)
		}
	}

	newLoan, installments, err := NewLoan(clientID, terms, s.calc)
	if err != nil {
		s.logger.ErrorContext(ctx, "Loan terms rejected", "clientID", clientID, slog.Any("error", err))
		return nil, err
	}
	monitoring.RecordScheduleComputed(string(newLoan.InterestType))

	created, err := s.repo.CreateLoan(ctx, clientID, newLoan, installments)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan and schedule", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save loan and schedule: %v", apperrors.ErrInternalServer, err)
	}

	if err := s.clientService.AssignLoanToClient(ctx, clientID, created.ID); err != nil {
		return nil, fmt.Errorf("failed to assign loan to client: %w", err)
	}

	s.publishLoanEvent(ctx, event.RoutingKeyLoanCreated, event.LoanEvent{
		LoanID:    created.ID,
		ClientID:  clientID,
		Principal: created.Principal,
		Timestamp: time.Now(),
	})

	s.logger.InfoContext(ctx, "Loan created", "loanID", created.ID, "clientID", clientID)
	return created, nil
}

func (s *loanService) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	installments, err := s.repo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load installments for loan", "loanID", loanID, slog.Any("error", err))
	} else {
		l.Installments = installments
	}
	return l, nil
}

func (s *loanService) GetSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]ScheduleLine, error) {
	installments, err := s.repo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found when getting schedule", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get schedule for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if len(installments) == 0 {
		return s.projectedSchedule(ctx, loanID, asOf)
	}

	lines := make([]ScheduleLine, 0, len(installments))
	for _, inst := range installments {
		lines = append(lines, ScheduleLine{
			Installment: inst,
			Lifecycle:   amort.Classify(inst.DueDate, asOf, inst.Status == InstallmentPaid),
		})
	}
	return lines, nil
}

// projectedSchedule serves loans whose schedule was never materialized by
// rebuilding it from the loan's recorded terms.
func (s *loanService) projectedSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]ScheduleLine, error) {
	projected, err := s.ProjectSchedule(ctx, loanID, asOf)
	if err != nil {
		return nil, err
	}

	lines := make([]ScheduleLine, 0, len(projected))
	for _, p := range projected {
		status := InstallmentPending
		if p.Status == amort.StatusPaid {
			status = InstallmentPaid
		}
		lines = append(lines, ScheduleLine{
			Installment: Installment{
				LoanID:    loanID,
				Number:    p.Number,
				DueDate:   p.DueDate,
				DueAmount: p.Amount,
				Status:    status,
			},
			Lifecycle: p.Status,
		})
	}
	return lines, nil
}

func (s *loanService) ProjectSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]amort.ProjectedInstallment, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	n := len(l.Installments)
	if n == 0 {
		n = amort.DefaultConversionPolicy().Installments(l.TermLength, l.TermUnit, l.Frequency)
	}

	return amort.Project(amort.ProjectionInputs{
		FirstRepaymentDate:   l.FirstRepaymentDate,
		Frequency:            l.Frequency,
		NumberOfInstallments: n,
		InstallmentAmount:    l.InstallmentAmount,
		PaidAmount:           l.PaidAmount,
	}, asOf), nil
}

func (s *loanService) GetOutstanding(ctx context.Context, loanID int64) (Money, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return 0, err
	}
	return l.OutstandingBalance, nil
}

func (s *loanService) IsDelinquent(ctx context.Context, loanID int64) (bool, error) {
	dueUnpaid, err := s.repo.GetDueUnpaidInstallments(ctx, loanID, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return false, fmt.Errorf("%w: loan with ID %d not found for delinquency check", apperrors.ErrNotFound, loanID)
		}
		return false, fmt.Errorf("%w: failed to check delinquency for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return len(dueUnpaid) >= 2, nil
}

func (s *loanService) MakePayment(ctx context.Context, loanID int64, amount Money) (err error) {
	s.logger.InfoContext(ctx, "Making payment", "loanID", loanID, "amount", amount)
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrInvalidPaymentAmount):
			status = "failure_amount"
		case errors.Is(err, apperrors.ErrLoanFullyPaid):
			status = "failure_fully_paid"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordPayment(status)
		if p := recover(); p != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			s.logger.ErrorContext(ctx, "Rolling back payment transaction", slog.Any("error", err))
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	entry, err := s.repo.FindOldestUnpaidInstallmentForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
			if _, checkErr := s.repo.GetLoanByID(ctx, loanID); errors.Is(checkErr, pgx.ErrNoRows) || errors.Is(checkErr, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: cannot make payment, loan ID %d not found", apperrors.ErrNotFound, loanID)
			}
			return apperrors.ErrLoanFullyPaid
		}
		return fmt.Errorf("%w: could not find installment to pay: %v", apperrors.ErrInternalServer, err)
	}

	tolerance := 0.001
	if math.Abs(amount-entry.DueAmount) > tolerance {
		return fmt.Errorf("%w: payment amount %.2f does not match due amount %.2f",
			apperrors.ErrInvalidPaymentAmount, amount, entry.DueAmount)
	}

	now := time.Now()
	entry.Status = InstallmentPaid
	entry.PaidAmount = amount
	entry.PaymentDate = &now
	entry.UpdatedAt = now

	if err = s.repo.UpdateInstallmentInTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("%w: could not update installment: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.ApplyPaymentInTx(ctx, tx, loanID, amount, entry.PrincipalPortion, entry.InterestPortion); err != nil {
		return fmt.Errorf("%w: could not apply payment to loan balances: %v", apperrors.ErrInternalServer, err)
	}

	allPaid, err := s.repo.CheckIfAllPaidInTx(ctx, tx, loanID)
	if err != nil {
		return fmt.Errorf("%w: could not check if loan payments are complete: %v", apperrors.ErrInternalServer, err)
	}
	if allPaid {
		if err = s.repo.UpdateLoanStatusInTx(ctx, tx, loanID, StatusPaidOff); err != nil {
			return fmt.Errorf("%w: could not update loan status to paid off: %v", apperrors.ErrInternalServer, err)
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Payment processed", "loanID", loanID, "amount", amount)
	return nil
}

func (s *loanService) QuoteSettlement(ctx context.Context, loanID int64, settlementDate time.Time, includeRebate bool) (*amort.Quote, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusActive && l.Status != StatusDelinquent {
		return nil, fmt.Errorf("%w: loan %d has status %s", apperrors.ErrLoanNotActive, loanID, l.Status)
	}

	quote := amort.ComputeSettlement(amort.SettlementInputs{
		OutstandingBalance: l.OutstandingBalance,
		DisbursementDate:   l.DisbursementDate,
		MaturityDate:       l.MaturityDate,
		Ledger:             l.Ledger(),
	}, settlementDate, includeRebate)

	monitoring.RecordSettlementQuote()
	return &quote, nil
}

func (s *loanService) SettleLoan(ctx context.Context, loanID int64, settlementDate time.Time, includeRebate bool) (*amort.Quote, error) {
	quote, err := s.QuoteSettlement(ctx, loanID, settlementDate, includeRebate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SettleLoan(ctx, loanID, quote.TotalSettlementAmount, settlementDate); err != nil {
		return nil, fmt.Errorf("%w: failed to settle loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err == nil {
		s.publishLoanEvent(ctx, event.RoutingKeyLoanSettled, event.LoanEvent{
			LoanID:           loanID,
			ClientID:         l.ClientID,
			SettlementAmount: quote.TotalSettlementAmount,
			RebateAmount:     quote.RebateAmount,
			Timestamp:        time.Now(),
		})
	}

	s.logger.InfoContext(ctx, "Loan settled", "loanID", loanID,
		"settlementAmount", quote.TotalSettlementAmount, "rebate", quote.RebateAmount)
	return quote, nil
}

func (s *loanService) publishLoanEvent(ctx context.Context, routingKey string, evt event.LoanEvent) {
	if err := s.pub.PublishLoanEvent(ctx, routingKey, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan event", "routingKey", routingKey, slog.Any("error", err))
	}
}
