package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"terminfinder/internal/domain"
	"terminfinder/internal/middleware"
	"terminfinder/pkg/errors"
	"terminfinder/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// BookingEngine accepts participant submissions
type BookingEngine interface {
	SubmitStandard(ctx context.Context, publicID, participantName string, selections map[int64]domain.ResponseType) error
	SubmitMatrix(ctx context.Context, publicID, participantName string, cells []domain.Cell) error
}

// ResultsProvider serves poll display views
type ResultsProvider interface {
	ListActivePolls(ctx context.Context) ([]domain.Poll, error)
	GetPollView(ctx context.Context, publicID string) (*domain.PollView, error)
	GetResults(ctx context.Context, publicID string, isAdmin bool) (*domain.PollResults, error)
}

type PollHandler struct {
	engine  BookingEngine
	results ResultsProvider
	log     *logger.Logger
}

func NewPollHandler(engine BookingEngine, results ResultsProvider, log *logger.Logger) *PollHandler {
	return &PollHandler{
		engine:  engine,
		results: results,
		log:     log,
	}
}

// ListPolls handles GET /api/polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.results.ListActivePolls(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if polls == nil {
		polls = []domain.Poll{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// GetPoll handles GET /api/polls/{publicID}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	view, err := h.results.GetPollView(r.Context(), publicID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// GetResults handles GET /api/polls/{publicID}/results
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")
	isAdmin := middleware.IsAdmin(r.Context())

	results, err := h.results.GetResults(r.Context(), publicID, isAdmin)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

type submitResponsesRequest struct {
	Name string `json:"name"`
	// Responses maps option id to yes/maybe/no. Options left out are
	// recorded as "no".
	Responses map[string]string `json:"responses"`
}

// SubmitResponses handles POST /api/polls/{publicID}/responses
func (h *PollHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	var req submitResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid request body", nil))
		return
	}

	selections := make(map[int64]domain.ResponseType, len(req.Responses))
	for rawID, rawResp := range req.Responses {
		optionID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			respondError(w, r, h.log, errors.NewValidationError("Invalid option id",
				map[string]interface{}{"option_id": rawID}))
			return
		}
		resp := domain.ResponseType(rawResp)
		if !resp.Valid() {
			respondError(w, r, h.log, errors.NewValidationError("Invalid response value",
				map[string]interface{}{"response": rawResp}))
			return
		}
		selections[optionID] = resp
	}

	if err := h.engine.SubmitStandard(r.Context(), publicID, req.Name, selections); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

type submitBookingsRequest struct {
	Name string `json:"name"`
	// Selections maps resource id to the single chosen option id; used by
	// polls without multi-booking.
	Selections map[string]int64 `json:"selections,omitempty"`
	// Cells lists chosen resource x option pairs; used by polls with
	// multi-booking enabled. Either form is accepted.
	Cells []domain.Cell `json:"cells,omitempty"`
}

// SubmitBookings handles POST /api/polls/{publicID}/bookings
func (h *PollHandler) SubmitBookings(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	var req submitBookingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.log, errors.NewValidationError("Invalid request body", nil))
		return
	}

	cells := make([]domain.Cell, 0, len(req.Selections)+len(req.Cells))
	for rawID, optionID := range req.Selections {
		resourceID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			respondError(w, r, h.log, errors.NewValidationError("Invalid resource id",
				map[string]interface{}{"resource_id": rawID}))
			return
		}
		cells = append(cells, domain.Cell{ResourceID: resourceID, OptionID: optionID})
	}
	cells = append(cells, req.Cells...)

	if err := h.engine.SubmitMatrix(r.Context(), publicID, req.Name, cells); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}
