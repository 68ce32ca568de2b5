package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/client"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

const clientColumns = `id, name, contact, credit_score, is_delinquent, active, loan_id, created_at, updated_at`

type ClientRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ client.Repository = (*ClientRepository)(nil)

func NewClientRepository(db DBPool, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger.With("component", "ClientRepository")}
}

func (r *ClientRepository) CreateClient(ctx context.Context, c *client.Client) (*client.Client, error) {
	query := `
        INSERT INTO clients (name, contact, credit_score, is_delinquent, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING ` + clientColumns

	created, err := scanClient(r.db.QueryRow(ctx, query, c.Name, c.Contact, c.CreditScore, c.IsDelinquent, c.Active))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert client", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return created, nil
}

func (r *ClientRepository) GetClientByID(ctx context.Context, clientID int64) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	status := "success"
	startTime := time.Now()

	c, err := scanClient(r.db.QueryRow(ctx, query, clientID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetClientByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get client by ID", "client_id", clientID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ClientRepository) ListActiveClients(ctx context.Context) ([]*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE active = TRUE ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	clients := make([]*client.Client, 0)
	for rows.Next() {
		var c client.Client
		if err := rows.Scan(&c.ClientID, &c.Name, &c.Contact, &c.CreditScore,
			&c.IsDelinquent, &c.Active, &c.LoanID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		clients = append(clients, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return clients, nil
}

func (r *ClientRepository) UpdateCreditScore(ctx context.Context, clientID int64, score int) error {
	return r.exec(ctx, "UpdateCreditScore",
		`UPDATE clients SET credit_score = $1, updated_at = NOW() WHERE id = $2`, score, clientID)
}

func (r *ClientRepository) UpdateDelinquency(ctx context.Context, clientID int64, isDelinquent bool) error {
	return r.exec(ctx, "UpdateDelinquency",
		`UPDATE clients SET is_delinquent = $1, updated_at = NOW() WHERE id = $2`, isDelinquent, clientID)
}

func (r *ClientRepository) AssignLoan(ctx context.Context, clientID int64, loanID int64) error {
	query := `UPDATE clients SET loan_id = $1, updated_at = NOW() WHERE id = $2`
	return r.exec(ctx, "AssignLoan", query, loanID, clientID)
}

func (r *ClientRepository) SetActive(ctx context.Context, clientID int64, active bool) error {
	return r.exec(ctx, "SetActive",
		`UPDATE clients SET active = $1, updated_at = NOW() WHERE id = $2`, active, clientID)
}

func (r *ClientRepository) FindClientByLoan(ctx context.Context, loanID int64) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE loan_id = $1`

	c, err := scanClient(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ClientRepository) exec(ctx context.Context, queryName, query string, args ...any) error {
	status := "success"
	startTime := time.Now()

	cmdTag, err := r.db.Exec(ctx, query, args...)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery(queryName, status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute client update", "query", queryName, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ClientID, &c.Name, &c.Contact, &c.CreditScore,
		&c.IsDelinquent, &c.Active, &c.LoanID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
