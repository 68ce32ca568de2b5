package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/pkg/apperrors"
)

type ClientHandler struct {
	service client.Service
	logger  *slog.Logger
}

func NewClientHandler(s client.Service, l *slog.Logger) *ClientHandler {
	return &ClientHandler{
		service: s,
		logger:  l.With("component", "ClientHandler"),
	}
}

// CreateClient registers a new borrower.
//
// @Summary Create a new client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Client creation request payload"
// @Success 201 {object} dto.ClientResponse "Client successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Router /clients [post]
// @Security BearerAuth
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateClient(r.Context(), req.Name, req.Contact)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewClientResponse(created))
}

// GetClient retrieves a client by ID.
//
// @Summary Retrieve client details
// @Tags Clients
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} dto.ClientResponse "Client successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /clients/{clientID} [get]
// @Security BearerAuth
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, apperrors.ErrNotFound)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(c))
}

// ListClients lists all active clients.
//
// @Summary List active clients
// @Tags Clients
// @Produce json
// @Success 200 {array} dto.ClientResponse "Active clients"
// @Router /clients [get]
// @Security BearerAuth
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListActiveClients(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.ClientResponse, len(clients))
	for i, c := range clients {
		resp[i] = dto.NewClientResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateCreditScore overwrites a client's stored base score.
//
// @Summary Update a client's credit score
// @Tags Clients
// @Accept json
// @Produce json
// @Param clientID path int true "Client ID"
// @Param request body dto.UpdateScoreRequest true "New score payload"
// @Success 200 {object} map[string]string "Score updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /clients/{clientID}/score [put]
// @Security BearerAuth
func (h *ClientHandler) UpdateCreditScore(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.UpdateScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.UpdateCreditScore(r.Context(), clientID, req.Score); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Score updated"})
}

// DeactivateClient marks a client inactive.
//
// @Summary Deactivate a client
// @Tags Clients
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} map[string]string "Client deactivated"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /clients/{clientID} [delete]
// @Security BearerAuth
func (h *ClientHandler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.DeactivateClient(r.Context(), clientID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Client deactivated"})
}

// ReactivateClient marks a client active again.
//
// @Summary Reactivate a client
// @Tags Clients
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} map[string]string "Client reactivated"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /clients/{clientID}/reactivate [put]
// @Security BearerAuth
func (h *ClientHandler) ReactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.ReactivateClient(r.Context(), clientID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Client reactivated"})
}
