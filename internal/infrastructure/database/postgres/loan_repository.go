package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `id, client_id, principal, annual_rate, interest_type, term_length, term_unit,
	frequency, installment_amount, total_interest, total_repayable, outstanding_balance,
	paid_amount, principal_due, interest_due, fees_due, disbursement_date,
	first_repayment_date, maturity_date, status, created_at, updated_at`

const installmentColumns = `id, loan_id, number, due_date, principal_portion, interest_portion,
	due_amount, paid_amount, payment_date, status, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, clientID int64, newLoan *loan.Loan, installments []loan.Installment) (*loan.Loan, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	loanSQL := `
        INSERT INTO loans (client_id, principal, annual_rate, interest_type, term_length, term_unit,
            frequency, installment_amount, total_interest, total_repayable, outstanding_balance,
            paid_amount, principal_due, interest_due, fees_due, disbursement_date,
            first_repayment_date, maturity_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
        RETURNING ` + loanColumns

	created, err := scanLoan(tx.QueryRow(ctx, loanSQL,
		clientID, newLoan.Principal, newLoan.AnnualRate, newLoan.InterestType,
		newLoan.TermLength, newLoan.TermUnit, newLoan.Frequency,
		newLoan.InstallmentAmount, newLoan.TotalInterest, newLoan.TotalRepayable,
		newLoan.OutstandingBalance, newLoan.PaidAmount,
		newLoan.PrincipalDue, newLoan.InterestDue, newLoan.FeesDue,
		newLoan.DisbursementDate, newLoan.FirstRepaymentDate, newLoan.MaturityDate,
		newLoan.Status,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	if len(installments) > 0 {
		installmentSQL := `
            INSERT INTO loan_installments (loan_id, number, due_date, principal_portion,
                interest_portion, due_amount, status, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

		batch := &pgx.Batch{}
		for _, entry := range installments {
			batch.Queue(installmentSQL, created.ID, entry.Number, entry.DueDate,
				entry.PrincipalPortion, entry.InterestPortion, entry.DueAmount, entry.Status)
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < len(installments); i++ {
			if _, err = results.Exec(); err != nil {
				results.Close()
				r.logger.ErrorContext(ctx, "Failed executing installment batch insert", "error", err, "entry_index", i, "loan_id", created.ID)
				return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
			}
		}
		if err = results.Close(); err != nil {
			return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
		}
	}

	if err := r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Loan and schedule created in DB", "loan_id", created.ID, "num_installments", len(installments))
	return created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	status := "success"
	startTime := time.Now()

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) GetInstallmentsByLoanID(ctx context.Context, loanID int64) ([]loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM loan_installments
        WHERE loan_id = $1
        ORDER BY number ASC`

	return r.queryInstallments(ctx, query, loanID)
}

func (r *LoanRepository) GetDueUnpaidInstallments(ctx context.Context, loanID int64, asOf time.Time) ([]loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM loan_installments
        WHERE loan_id = $1 AND status != 'PAID' AND due_date < $2
        ORDER BY due_date ASC`

	return r.queryInstallments(ctx, query, loanID, asOf)
}

func (r *LoanRepository) queryInstallments(ctx context.Context, query string, args ...any) ([]loan.Installment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	installments := make([]loan.Installment, 0)
	for rows.Next() {
		var entry loan.Installment
		err := rows.Scan(
			&entry.ID, &entry.LoanID, &entry.Number, &entry.DueDate,
			&entry.PrincipalPortion, &entry.InterestPortion, &entry.DueAmount,
			&entry.PaidAmount, &entry.PaymentDate, &entry.Status,
			&entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		installments = append(installments, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return installments, nil
}

func (r *LoanRepository) FindOldestUnpaidInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM loan_installments
        WHERE loan_id = $1 AND status != 'PAID'
        ORDER BY number ASC
        LIMIT 1
        FOR UPDATE`

	var entry loan.Installment
	err := tx.QueryRow(ctx, query, loanID).Scan(
		&entry.ID, &entry.LoanID, &entry.Number, &entry.DueDate,
		&entry.PrincipalPortion, &entry.InterestPortion, &entry.DueAmount,
		&entry.PaidAmount, &entry.PaymentDate, &entry.Status,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find oldest unpaid installment", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &entry, nil
}

func (r *LoanRepository) UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, entry *loan.Installment) error {
	query := `
        UPDATE loan_installments
        SET paid_amount = $1, payment_date = $2, status = $3, updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := tx.Exec(ctx, query, entry.PaidAmount, entry.PaymentDate, entry.Status, entry.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update installment", "installment_id", entry.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, loanID int64, amount, principalPortion, interestPortion float64) error {
	query := `
        UPDATE loans
        SET outstanding_balance = GREATEST(outstanding_balance - $1, 0),
            paid_amount = paid_amount + $1,
            principal_due = GREATEST(principal_due - $2, 0),
            interest_due = GREATEST(interest_due - $3, 0),
            updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := tx.Exec(ctx, query, amount, principalPortion, interestPortion, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to apply payment to loan balances", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) CheckIfAllPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM loan_installments WHERE loan_id = $1 AND status != 'PAID'`

	var unpaid int
	if err := tx.QueryRow(ctx, query, loanID).Scan(&unpaid); err != nil {
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return unpaid == 0, nil
}

func (r *LoanRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status loan.LoanStatus) error {
	cmdTag, err := tx.Exec(ctx, `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`, status, loanID)
	if err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) UpdateLoanStatus(ctx context.Context, loanID int64, status loan.LoanStatus) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`, status, loanID)
	if err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) SettleLoan(ctx context.Context, loanID int64, settlementAmount float64, settlementDate time.Time) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer r.RollbackTx(ctx, tx)

	query := `
        UPDATE loans
        SET status = $1,
            paid_amount = paid_amount + $2,
            outstanding_balance = 0,
            principal_due = 0,
            interest_due = 0,
            fees_due = 0,
            updated_at = NOW()
        WHERE id = $3 AND status IN ('ACTIVE', 'DELINQUENT')`

	cmdTag, err := tx.Exec(ctx, query, loan.StatusSettled, settlementAmount, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to settle loan", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %d not found or not settleable", apperrors.ErrConflict, loanID)
	}

	settleInstallmentsSQL := `
        UPDATE loan_installments
        SET status = 'PAID', payment_date = $1, updated_at = NOW()
        WHERE loan_id = $2 AND status != 'PAID'`

	if _, err := tx.Exec(ctx, settleInstallmentsSQL, settlementDate, loanID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to close remaining installments", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return r.CommitTx(ctx, tx)
}

func (r *LoanRepository) GetAllActiveLoanIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM loans WHERE status IN ('ACTIVE', 'DELINQUENT')`)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return ids, nil
}

func (r *LoanRepository) MarkOverdueInstallments(ctx context.Context, loanID int64, asOf time.Time) (int64, error) {
	query := `
        UPDATE loan_installments
        SET status = 'OVERDUE', updated_at = NOW()
        WHERE loan_id = $1 AND status = 'PENDING' AND due_date < $2`

	cmdTag, err := r.db.Exec(ctx, query, loanID, asOf)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark overdue installments", "loan_id", loanID, "error", err)
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cmdTag.RowsAffected(), nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.ClientID, &l.Principal, &l.AnnualRate, &l.InterestType,
		&l.TermLength, &l.TermUnit, &l.Frequency, &l.InstallmentAmount,
		&l.TotalInterest, &l.TotalRepayable, &l.OutstandingBalance,
		&l.PaidAmount, &l.PrincipalDue, &l.InterestDue, &l.FeesDue,
		&l.DisbursementDate, &l.FirstRepaymentDate, &l.MaturityDate,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
