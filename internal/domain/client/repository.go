package client

import "context"

type Repository interface {
	CreateClient(ctx context.Context, c *Client) (*Client, error)

	GetClientByID(ctx context.Context, clientID int64) (*Client, error)

	ListActiveClients(ctx context.Context) ([]*Client, error)

	UpdateCreditScore(ctx context.Context, clientID int64, score int) error

	UpdateDelinquency(ctx context.Context, clientID int64, isDelinquent bool) error

	AssignLoan(ctx context.Context, clientID int64, loanID int64) error

	SetActive(ctx context.Context, clientID int64, active bool) error

	FindClientByLoan(ctx context.Context, loanID int64) (*Client, error)
}
