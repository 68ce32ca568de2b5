package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lending-engine/internal/event"
	"lending-engine/internal/pkg/apperrors"
)

type Service interface {
	CreateClient(ctx context.Context, name, contact string) (*Client, error)
	GetClient(ctx context.Context, clientID int64) (*Client, error)
	ListActiveClients(ctx context.Context) ([]*Client, error)
	UpdateCreditScore(ctx context.Context, clientID int64, score int) error
	UpdateDelinquency(ctx context.Context, clientID int64, isDelinquent bool) error
	AssignLoanToClient(ctx context.Context, clientID int64, loanID int64) error
	DeactivateClient(ctx context.Context, clientID int64) error
	ReactivateClient(ctx context.Context, clientID int64) error
	FindClientByLoan(ctx context.Context, loanID int64) (*Client, error)
}

var _ Service = (*clientService)(nil)

type clientService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("client repository cannot be nil")
	}
	if pub == nil {
		pub = event.NewNoopPublisher()
	}
	return &clientService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "clientService")),
	}
}

func (s *clientService) CreateClient(ctx context.Context, name, contact string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}

	created, err := s.repo.CreateClient(ctx, &Client{
		Name:    name,
		Contact: strings.TrimSpace(contact),
		Active:  true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.publish(ctx, event.RoutingKeyClientCreated, event.ClientEvent{
		ClientID:  created.ClientID,
		Name:      created.Name,
		Timestamp: time.Now(),
	})
	s.logger.InfoContext(ctx, "Client created", "clientID", created.ClientID)
	return created, nil
}

func (s *clientService) GetClient(ctx context.Context, clientID int64) (*Client, error) {
	c, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
		}
		return nil, fmt.Errorf("failed to get client %d: %w", clientID, err)
	}
	return c, nil
}

func (s *clientService) ListActiveClients(ctx context.Context) ([]*Client, error) {
	clients, err := s.repo.ListActiveClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active clients: %w", err)
	}
	return clients, nil
}

func (s *clientService) UpdateCreditScore(ctx context.Context, clientID int64, score int) error {
	if score < 0 {
		return apperrors.NewValidationError("score", "score cannot be negative")
	}
	if err := s.repo.UpdateCreditScore(ctx, clientID, score); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update credit score", "clientID", clientID, slog.Any("error", err))
		return fmt.Errorf("failed to update credit score for client %d: %w", clientID, err)
	}
	s.logger.InfoContext(ctx, "Credit score updated", "clientID", clientID, "score", score)
	return nil
}

func (s *clientService) UpdateDelinquency(ctx context.Context, clientID int64, isDelinquent bool) error {
	if err := s.repo.UpdateDelinquency(ctx, clientID, isDelinquent); err != nil {
		return fmt.Errorf("failed to update delinquency for client %d: %w", clientID, err)
	}
	s.publish(ctx, event.RoutingKeyClientUpdated, event.ClientEvent{
		ClientID:  clientID,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *clientService) AssignLoanToClient(ctx context.Context, clientID int64, loanID int64) error {
	if err := s.repo.AssignLoan(ctx, clientID, loanID); err != nil {
		return fmt.Errorf("failed to assign loan %d to client %d: %w", loanID, clientID, err)
	}
	s.logger.InfoContext(ctx, "Loan assigned to client", "clientID", clientID, "loanID", loanID)
	return nil
}

func (s *clientService) DeactivateClient(ctx context.Context, clientID int64) error {
	if err := s.repo.SetActive(ctx, clientID, false); err != nil {
		return fmt.Errorf("failed to deactivate client %d: %w", clientID, err)
	}
	return nil
}

func (s *clientService) ReactivateClient(ctx context.Context, clientID int64) error {
	if err := s.repo.SetActive(ctx, clientID, true); err != nil {
		return fmt.Errorf("failed to reactivate client %d: %w", clientID, err)
	}
	return nil
}

func (s *clientService) FindClientByLoan(ctx context.Context, loanID int64) (*Client, error) {
	c, err := s.repo.FindClientByLoan(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no client linked to loan %d", ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to find client by loan %d: %w", loanID, err)
	}
	return c, nil
}

func (s *clientService) publish(ctx context.Context, routingKey string, evt event.ClientEvent) {
	if err := s.pub.PublishClientEvent(ctx, routingKey, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish client event", "routingKey", routingKey, slog.Any("error", err))
	}
}
