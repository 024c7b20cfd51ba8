package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the reconciliation engine. Each one maps to a
// single user-facing message and leaves persisted state unchanged.
var (
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollInactive      = errors.New("poll is not active")
	ErrPollExpired       = errors.New("poll has expired")
	ErrMissingName       = errors.New("participant name is required")
	ErrChangesNotAllowed = errors.New("responses cannot be changed for this poll")
	ErrWrongPollKind     = errors.New("submission does not match the poll kind")
	ErrInvalidReference  = errors.New("selection references an option or resource outside the poll")

	// ErrPollBusy is transient: the poll's serialization slot could not be
	// acquired within the bounded timeout. Safe to retry, not a capacity
	// violation.
	ErrPollBusy = errors.New("poll is busy, please retry")
)

// CapacityError rejects a submission that would overbook an option. For
// matrix polls ResourceID identifies the cell, for standard polls it is zero.
type CapacityError struct {
	OptionID   int64
	ResourceID int64
}

func (e *CapacityError) Error() string {
	if e.ResourceID != 0 {
		return fmt.Sprintf("resource %d is fully booked at option %d", e.ResourceID, e.OptionID)
	}
	return fmt.Sprintf("option %d is fully booked", e.OptionID)
}

// DuplicateSelectionError rejects a matrix submission that selects the same
// option for more than one resource.
type DuplicateSelectionError struct {
	OptionID int64
}

func (e *DuplicateSelectionError) Error() string {
	return fmt.Sprintf("option %d is selected for more than one resource", e.OptionID)
}

// StorageError wraps a failure of the storage collaborator. Fatal to the
// current submission, safe to retry by the caller; the replace write either
// happened in full or not at all.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
