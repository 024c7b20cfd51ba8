package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"terminfinder/internal/domain"
	"terminfinder/pkg/errors"
	"terminfinder/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// AdminManager owns the administrator poll lifecycle
type AdminManager interface {
	CreatePoll(ctx context.Context, input domain.CreatePollInput) (*domain.Poll, error)
	UpdatePoll(ctx context.Context, pollID int64, input domain.UpdatePollInput) (*domain.Poll, error)
	DeletePoll(ctx context.Context, pollID int64) error
}

// Authenticator exchanges the admin password for a session token
type Authenticator interface {
	Login(password string) (string, error)
}

type AdminHandler struct {
	manager AdminManager
	auth    Authenticator
	baseURL string
	log     *logger.Logger
}

func NewAdminHandler(manager AdminManager, auth Authenticator, baseURL string, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		manager: manager,
		auth:    auth,
		baseURL: baseURL,
		log:     log,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid request body", nil))
		return
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreatePoll handles POST /api/admin/polls
func (h *AdminHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var input domain.CreatePollInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid request body", nil))
		return
	}

	if appErr := validateCreateInput(&input); appErr != nil {
		respondError(w, r, h.log, appErr)
		return
	}

	poll, err := h.manager.CreatePoll(r.Context(), input)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"poll": poll,
		"url":  h.baseURL + "/poll/" + poll.PublicID,
	})
}

func validateCreateInput(input *domain.CreatePollInput) *errors.AppError {
	if input.Title == "" {
		return errors.NewValidationError("Title is required", nil)
	}
	if len(input.Options) == 0 {
		return errors.NewValidationError("At least one time slot is required", nil)
	}
	switch input.Kind {
	case "", domain.KindStandard:
	case domain.KindMatrix:
		if len(input.Resources) == 0 {
			return errors.NewValidationError("Matrix polls need at least one resource", nil)
		}
	default:
		return errors.NewValidationError("Unknown poll kind",
			map[string]interface{}{"kind": string(input.Kind)})
	}
	if input.DefaultMaxParts != nil && *input.DefaultMaxParts < 0 {
		return errors.NewValidationError("Capacity cannot be negative", nil)
	}
	for _, opt := range input.Options {
		if opt.MaxParts != nil && *opt.MaxParts < 0 {
			return errors.NewValidationError("Capacity cannot be negative", nil)
		}
	}
	return nil
}

// UpdatePoll handles PUT /api/admin/polls/{pollID}
func (h *AdminHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.ParseInt(chi.URLParam(r, "pollID"), 10, 64)
	if err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid poll id", nil))
		return
	}

	var input domain.UpdatePollInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if input.Title == "" {
		respondError(w, r, h.log, errors.NewValidationError("Title is required", nil))
		return
	}

	poll, err := h.manager.UpdatePoll(r.Context(), pollID, input)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"poll": poll})
}

// DeletePoll handles DELETE /api/admin/polls/{pollID}
func (h *AdminHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.ParseInt(chi.URLParam(r, "pollID"), 10, 64)
	if err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid poll id", nil))
		return
	}

	if err := h.manager.DeletePoll(r.Context(), pollID); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
