package repository

import (
	"context"
	"fmt"

	"terminfinder/internal/domain"
	"terminfinder/pkg/database"

	"github.com/jackc/pgx/v5"
)

// BookingRepository implements the BookingStore surface of the
// reconciliation engine on Postgres. The replace operations run
// delete-then-insert inside one transaction so no partial state is ever
// observable.
type BookingRepository struct {
	db *database.PostgresDB
}

func NewBookingRepository(db *database.PostgresDB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GetPollByPublicID gets a poll by its opaque public id
func (r *BookingRepository) GetPollByPublicID(ctx context.Context, publicID string) (*domain.Poll, error) {
	query := fmt.Sprintf(`SELECT %s FROM polls WHERE public_id = $1`, pollColumns)

	poll, err := scanPoll(r.db.Pool.QueryRow(ctx, query, publicID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

// GetOptions returns the poll's options ordered by their time slot
func (r *BookingRepository) GetOptions(ctx context.Context, pollID int64) ([]domain.Option, error) {
	return getOptions(ctx, r.db, pollID)
}

// GetResources returns the poll's resources in display order
func (r *BookingRepository) GetResources(ctx context.Context, pollID int64) ([]domain.Resource, error) {
	return getResources(ctx, r.db, pollID)
}

// CountYes counts persisted "yes" responses for an option
func (r *BookingRepository) CountYes(ctx context.Context, optionID int64) (int, error) {
	return countYes(ctx, r.db, optionID)
}

// CountCellBookings counts bookings for one resource x option cell
func (r *BookingRepository) CountCellBookings(ctx context.Context, resourceID, optionID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matrix_bookings WHERE resource_id = $1 AND option_id = $2`

	if err := r.db.Pool.QueryRow(ctx, query, resourceID, optionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cell bookings: %w", err)
	}
	return count, nil
}

// GetParticipantResponses returns a participant's responses for a poll
func (r *BookingRepository) GetParticipantResponses(ctx context.Context, pollID int64, name string) ([]domain.StandardResponse, error) {
	query := `
		SELECT id, poll_id, option_id, participant_name, response_type, created_at
		FROM responses
		WHERE poll_id = $1 AND participant_name = $2
		ORDER BY option_id
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.StandardResponse
	for rows.Next() {
		var resp domain.StandardResponse
		err := rows.Scan(&resp.ID, &resp.PollID, &resp.OptionID, &resp.ParticipantName, &resp.Response, &resp.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// GetParticipantBookings returns a participant's bookings for a poll
func (r *BookingRepository) GetParticipantBookings(ctx context.Context, pollID int64, name string) ([]domain.MatrixBooking, error) {
	query := `
		SELECT id, poll_id, resource_id, option_id, participant_name, created_at
		FROM matrix_bookings
		WHERE poll_id = $1 AND participant_name = $2
		ORDER BY resource_id, option_id
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.MatrixBooking
	for rows.Next() {
		var b domain.MatrixBooking
		err := rows.Scan(&b.ID, &b.PollID, &b.ResourceID, &b.OptionID, &b.ParticipantName, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ReplaceResponses atomically swaps a participant's response set for a poll
func (r *BookingRepository) ReplaceResponses(ctx context.Context, pollID int64, name string, entries []domain.ResponseEntry) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM responses WHERE poll_id = $1 AND participant_name = $2`,
			pollID, name)
		if err != nil {
			return fmt.Errorf("failed to delete prior responses: %w", err)
		}

		for _, entry := range entries {
			_, err := tx.Exec(ctx,
				`INSERT INTO responses (poll_id, option_id, participant_name, response_type)
				 VALUES ($1, $2, $3, $4)`,
				pollID, entry.OptionID, name, entry.Response)
			if err != nil {
				return fmt.Errorf("failed to insert response: %w", err)
			}
		}
		return nil
	})
}

// ReplaceBookings atomically swaps a participant's booking set for a poll.
// An empty cell set clears the participant's bookings.
func (r *BookingRepository) ReplaceBookings(ctx context.Context, pollID int64, name string, cells []domain.Cell) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM matrix_bookings WHERE poll_id = $1 AND participant_name = $2`,
			pollID, name)
		if err != nil {
			return fmt.Errorf("failed to delete prior bookings: %w", err)
		}

		for _, cell := range cells {
			_, err := tx.Exec(ctx,
				`INSERT INTO matrix_bookings (poll_id, resource_id, option_id, participant_name)
				 VALUES ($1, $2, $3, $4)`,
				pollID, cell.ResourceID, cell.OptionID, name)
			if err != nil {
				return fmt.Errorf("failed to insert booking: %w", err)
			}
		}
		return nil
	})
}
