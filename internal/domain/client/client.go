package client

import (
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("client not found")
	ErrClientAlreadyHasLoan = errors.New("client already has an active loan")
	ErrClientInactive       = errors.New("client is not active")
)

// Client is a borrower. CreditScore is the stored historical base score the
// scoring engine starts from; zero means the client has no score history yet.
type Client struct {
	ClientID     int64
	Name         string
	Contact      string
	CreditScore  int
	IsDelinquent bool
	Active       bool
	LoanID       *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
