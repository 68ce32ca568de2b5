package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lending-engine/internal/domain/client"
)

type CreateClientRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

type UpdateScoreRequest struct {
	Score int `json:"score"`
}

func (r *UpdateScoreRequest) Validate() error {
	if r.Score < 0 {
		return fmt.Errorf("score cannot be negative")
	}
	return nil
}

type ClientResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Contact      string    `json:"contact,omitempty"`
	CreditScore  int       `json:"creditScore"`
	IsDelinquent bool      `json:"isDelinquent"`
	Active       bool      `json:"active"`
	LoanID       *string   `json:"loanId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewClientResponse(c *client.Client) ClientResponse {
	resp := ClientResponse{
		ID:           strconv.FormatInt(c.ClientID, 10),
		Name:         c.Name,
		Contact:      c.Contact,
		CreditScore:  c.CreditScore,
		IsDelinquent: c.IsDelinquent,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.LoanID != nil {
		s := strconv.FormatInt(*c.LoanID, 10)
		resp.LoanID = &s
	}
	return resp
}
