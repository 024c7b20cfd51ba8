package repository

import (
	"context"
	"time"

	"terminfinder/internal/domain"
)

// BookingStore is the storage surface the reconciliation engine depends on.
// All operations are scoped to one poll; the replace operations are atomic,
// never observable as a delete followed by an insert.
type BookingStore interface {
	// GetPollByPublicID returns the poll or (nil, nil) when absent
	GetPollByPublicID(ctx context.Context, publicID string) (*domain.Poll, error)

	// GetOptions returns the poll's options in chronological order
	GetOptions(ctx context.Context, pollID int64) ([]domain.Option, error)

	// GetResources returns a matrix poll's resources in display order
	GetResources(ctx context.Context, pollID int64) ([]domain.Resource, error)

	// CountYes counts persisted "yes" responses for an option
	CountYes(ctx context.Context, optionID int64) (int, error)

	// CountCellBookings counts bookings for one resource x option cell
	CountCellBookings(ctx context.Context, resourceID, optionID int64) (int, error)

	// GetParticipantResponses returns a participant's responses for a poll
	GetParticipantResponses(ctx context.Context, pollID int64, name string) ([]domain.StandardResponse, error)

	// GetParticipantBookings returns a participant's bookings for a poll
	GetParticipantBookings(ctx context.Context, pollID int64, name string) ([]domain.MatrixBooking, error)

	// ReplaceResponses atomically swaps a participant's response set
	ReplaceResponses(ctx context.Context, pollID int64, name string, entries []domain.ResponseEntry) error

	// ReplaceBookings atomically swaps a participant's booking set
	ReplaceBookings(ctx context.Context, pollID int64, name string, cells []domain.Cell) error
}

// ResultsStore serves display reads. These are not subject to the per-poll
// write serialization and may read any consistent snapshot.
type ResultsStore interface {
	GetPollByPublicID(ctx context.Context, publicID string) (*domain.Poll, error)
	GetOptions(ctx context.Context, pollID int64) ([]domain.Option, error)
	GetResources(ctx context.Context, pollID int64) ([]domain.Resource, error)

	// GetActivePolls returns active, unexpired polls, newest first
	GetActivePolls(ctx context.Context, now time.Time) ([]domain.Poll, error)

	// GetPollResponses returns every response row of a standard poll
	GetPollResponses(ctx context.Context, pollID int64) ([]domain.StandardResponse, error)

	// GetPollBookings returns every booking row of a matrix poll
	GetPollBookings(ctx context.Context, pollID int64) ([]domain.MatrixBooking, error)

	// CountYes counts persisted "yes" responses for an option
	CountYes(ctx context.Context, optionID int64) (int, error)
}

// AdminStore covers the administrator poll lifecycle
type AdminStore interface {
	// GetPollByID returns the poll or (nil, nil) when absent
	GetPollByID(ctx context.Context, id int64) (*domain.Poll, error)

	// CreatePoll inserts the poll with its options and resources in one
	// transaction and fills in the generated ids
	CreatePoll(ctx context.Context, poll *domain.Poll, options []domain.OptionInput, resources []domain.ResourceInput) error

	// UpdatePoll persists edited poll settings and option cap overrides
	UpdatePoll(ctx context.Context, poll *domain.Poll, caps []domain.OptionCapInput) error

	// DeletePoll removes a poll and cascades to options, resources and
	// response rows
	DeletePoll(ctx context.Context, pollID int64) error
}
