package loan

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoan(ctx context.Context, clientID int64, loan *Loan, installments []Installment) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	GetInstallmentsByLoanID(ctx context.Context, loanID int64) ([]Installment, error)

	GetDueUnpaidInstallments(ctx context.Context, loanID int64, asOf time.Time) ([]Installment, error)

	FindOldestUnpaidInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Installment, error)

	UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, entry *Installment) error

	ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, loanID int64, amount, principalPortion, interestPortion float64) error

	CheckIfAllPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error)

	UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status LoanStatus) error

	UpdateLoanStatus(ctx context.Context, loanID int64, status LoanStatus) error

	SettleLoan(ctx context.Context, loanID int64, settlementAmount float64, settlementDate time.Time) error

	GetAllActiveLoanIDs(ctx context.Context) ([]int64, error)

	MarkOverdueInstallments(ctx context.Context, loanID int64, asOf time.Time) (int64, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
