package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/internal/middleware"
	"terminfinder/internal/service"
	"terminfinder/pkg/errors"
	"terminfinder/pkg/logger"

	stderrors "errors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps engine errors onto the wire error taxonomy. Submission
// rejections by a domain rule are conflicts the caller can resolve by
// adjusting the selection; transient contention and storage failures are
// unavailable and safe to retry.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}

	var resp errors.ErrorResponse
	resp.Error.Type = appErr.Type
	resp.Error.Message = appErr.Message
	resp.Error.Details = appErr.Details
	resp.Error.RequestID = middleware.GetRequestID(r.Context())
	resp.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, resp)
}

func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var capErr *domain.CapacityError
	if stderrors.As(err, &capErr) {
		details := map[string]interface{}{"option_id": capErr.OptionID}
		if capErr.ResourceID != 0 {
			details["resource_id"] = capErr.ResourceID
		}
		return errors.NewConflictError("Selected slot is fully booked", details)
	}

	var dupErr *domain.DuplicateSelectionError
	if stderrors.As(err, &dupErr) {
		return errors.NewConflictError("The same time slot cannot be booked on more than one resource",
			map[string]interface{}{"option_id": dupErr.OptionID})
	}

	var storageErr *domain.StorageError
	if stderrors.As(err, &storageErr) {
		return errors.NewUnavailableError("Service temporarily unavailable", err)
	}

	switch {
	case stderrors.Is(err, domain.ErrPollNotFound):
		return errors.NewNotFoundError("Poll not found")
	case stderrors.Is(err, domain.ErrPollInactive):
		return errors.NewConflictError("Poll is closed", nil)
	case stderrors.Is(err, domain.ErrPollExpired):
		return errors.NewConflictError("Poll has expired", nil)
	case stderrors.Is(err, domain.ErrChangesNotAllowed):
		return errors.NewConflictError("This poll does not allow changing a submission", nil)
	case stderrors.Is(err, domain.ErrMissingName):
		return errors.NewValidationError("Participant name is required", nil)
	case stderrors.Is(err, domain.ErrWrongPollKind):
		return errors.NewValidationError("Submission does not match the poll type", nil)
	case stderrors.Is(err, domain.ErrInvalidReference):
		return errors.NewValidationError("Selection references an unknown option", nil)
	case stderrors.Is(err, domain.ErrPollBusy):
		return errors.NewUnavailableError("Poll is busy, please retry", err)
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return errors.NewAuthenticationError("Invalid credentials")
	default:
		return errors.NewInternalError("Internal server error", err)
	}
}
