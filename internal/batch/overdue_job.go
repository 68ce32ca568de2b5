package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lending-engine/internal/domain/client"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

// OverdueSweepJob walks every active loan, marks past-due installments
// OVERDUE, and reconciles the loan's and its client's delinquency flags.
// Scheduled nightly via cron.
type OverdueSweepJob struct {
	loanRepo      loan.Repository
	loanService   loan.Service
	clientService client.Service
	logger        *slog.Logger
}

func NewOverdueSweepJob(
	loanRepo loan.Repository,
	loanSvc loan.Service,
	clientSvc client.Service,
	logger *slog.Logger,
) *OverdueSweepJob {
	if loanRepo == nil || loanSvc == nil || clientSvc == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		loanRepo:      loanRepo,
		loanService:   loanSvc,
		clientService: clientSvc,
		logger:        logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue sweep job.")

	activeLoanIDs, err := j.loanRepo.GetAllActiveLoanIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to get active loan IDs, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to get active loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched active loan IDs.", slog.Int("count", len(activeLoanIDs)))

	if len(activeLoanIDs) == 0 {
		j.logger.InfoContext(ctx, "No active loans found to process.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var markedCount, delinquentCount, errorCount int64
	asOf := time.Now()

	for _, loanID := range activeLoanIDs {
		wg.Add(1)
		go func(currentLoanID int64) {
			defer wg.Done()
			logCtx := j.logger.With(slog.Int64("loanID", currentLoanID))

			marked, markErr := j.loanRepo.MarkOverdueInstallments(ctx, currentLoanID, asOf)
			if markErr != nil {
				logCtx.ErrorContext(ctx, "Failed to mark overdue installments", slog.Any("error", markErr))
				atomic.AddInt64(&errorCount, 1)
				return
			}
			atomic.AddInt64(&markedCount, marked)

			isDelinquent, checkErr := j.loanService.IsDelinquent(ctx, currentLoanID)
			if checkErr != nil {
				if errors.Is(checkErr, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan not found during delinquency check", slog.Any("error", checkErr))
				} else {
					logCtx.ErrorContext(ctx, "Failed to check loan delinquency", slog.Any("error", checkErr))
					atomic.AddInt64(&errorCount, 1)
				}
				return
			}

			if isDelinquent {
				atomic.AddInt64(&delinquentCount, 1)
				if updErr := j.loanRepo.UpdateLoanStatus(ctx, currentLoanID, loan.StatusDelinquent); updErr != nil {
					logCtx.ErrorContext(ctx, "Failed to flag loan delinquent", slog.Any("error", updErr))
					atomic.AddInt64(&errorCount, 1)
					return
				}
			}

			cl, custErr := j.clientService.FindClientByLoan(ctx, currentLoanID)
			if custErr != nil {
				if errors.Is(custErr, client.ErrNotFound) || errors.Is(custErr, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "No client linked to this loan", slog.Any("error", custErr))
				} else {
					logCtx.ErrorContext(ctx, "Failed to find client by loan", slog.Any("error", custErr))
					atomic.AddInt64(&errorCount, 1)
				}
				return
			}

			if cl.IsDelinquent != isDelinquent {
				logCtx.InfoContext(ctx, "Updating client delinquency flag.",
					slog.Int64("clientID", cl.ClientID), slog.Bool("new_status", isDelinquent))
				if updErr := j.clientService.UpdateDelinquency(ctx, cl.ClientID, isDelinquent); updErr != nil {
					logCtx.ErrorContext(ctx, "Failed to update client delinquency", slog.Any("error", updErr))
					atomic.AddInt64(&errorCount, 1)
				}
			}
		}(loanID)
	}
	wg.Wait()

	j.logger.InfoContext(ctx, "Overdue sweep job finished.",
		slog.Int("loans", len(activeLoanIDs)),
		slog.Int64("installments_marked", atomic.LoadInt64(&markedCount)),
		slog.Int64("delinquent", atomic.LoadInt64(&delinquentCount)),
		slog.Int64("errors", atomic.LoadInt64(&errorCount)),
		slog.Duration("duration", time.Since(startTime)))

	if errorCount > 0 {
		return fmt.Errorf("overdue sweep finished with %d errors", errorCount)
	}
	return nil
}
