package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pollColumns = `id, public_id, title, description, kind, allow_changes, only_yes_no,
	hide_participants, allow_multi_bookings, resource_label, max_participants,
	expires_at, is_active, created_at`

// PollRepository serves display reads and the administrator poll lifecycle
type PollRepository struct {
	db *database.PostgresDB
}

func NewPollRepository(db *database.PostgresDB) *PollRepository {
	return &PollRepository{db: db}
}

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var p domain.Poll
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.Title,
		&p.Description,
		&p.Kind,
		&p.AllowChanges,
		&p.OnlyYesNo,
		&p.HideParticipants,
		&p.AllowMultiBookings,
		&p.ResourceLabel,
		&p.DefaultMaxParts,
		&p.ExpiresAt,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation on the named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

// GetPollByPublicID gets a poll by its opaque public id
func (r *PollRepository) GetPollByPublicID(ctx context.Context, publicID string) (*domain.Poll, error) {
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

// GetPollByID gets a poll by its internal id
func (r *PollRepository) GetPollByID(ctx context.Context, id int64) (*domain.Poll, error) {
	query := fmt.Sprintf(`SELECT %s FROM polls WHERE id = $1`, pollColumns)

	poll, err := scanPoll(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll by id: %w", err)
	}
	return poll, nil
}

// GetActivePolls returns active, unexpired polls, newest first
func (r *PollRepository) GetActivePolls(ctx context.Context, now time.Time) ([]domain.Poll, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM polls
		WHERE is_active = TRUE AND (expires_at IS NULL OR expires_at > $1)
		ORDER BY created_at DESC
	`, pollColumns)

	rows, err := r.db.Pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active polls: %w", err)
	}
	defer rows.Close()

	var polls []domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, *poll)
	}
	return polls, rows.Err()
}

// GetOptions returns the poll's options ordered by their time slot
func (r *PollRepository) GetOptions(ctx context.Context, pollID int64) ([]domain.Option, error) {
	return getOptions(ctx, r.db, pollID)
}

// GetResources returns the poll's resources in display order
func (r *PollRepository) GetResources(ctx context.Context, pollID int64) ([]domain.Resource, error) {
	return getResources(ctx, r.db, pollID)
}

func getOptions(ctx context.Context, db *database.PostgresDB, pollID int64) ([]domain.Option, error) {
	query := `
		SELECT id, poll_id, slot, max_participants
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY slot
	`

	rows, err := db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Slot, &opt.MaxParts); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func getResources(ctx context.Context, db *database.PostgresDB, pollID int64) ([]domain.Resource, error) {
	query := `
		SELECT id, poll_id, name, sort_order
		FROM poll_resources
		WHERE poll_id = $1
		ORDER BY sort_order, id
	`

	rows, err := db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.PollID, &res.Name, &res.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// GetPollResponses returns every response row of a poll
func (r *PollRepository) GetPollResponses(ctx context.Context, pollID int64) ([]domain.StandardResponse, error) {
	query := `
		SELECT id, poll_id, option_id, participant_name, response_type, created_at
		FROM responses
		WHERE poll_id = $1
		ORDER BY participant_name, option_id
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll responses: %w", err)
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

// GetPollBookings returns every booking row of a matrix poll
func (r *PollRepository) GetPollBookings(ctx context.Context, pollID int64) ([]domain.MatrixBooking, error) {
	query := `
		SELECT id, poll_id, resource_id, option_id, participant_name, created_at
		FROM matrix_bookings
		WHERE poll_id = $1
		ORDER BY participant_name, resource_id, option_id
	`

	rows, err := r.db.Pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll bookings: %w", err)
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

// CountYes counts persisted "yes" responses for an option
func (r *PollRepository) CountYes(ctx context.Context, optionID int64) (int, error) {
	return countYes(ctx, r.db, optionID)
}

func countYes(ctx context.Context, db *database.PostgresDB, optionID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM responses WHERE option_id = $1 AND response_type = 'yes'`

	if err := db.Pool.QueryRow(ctx, query, optionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count yes responses: %w", err)
	}
	return count, nil
}

// CreatePoll inserts the poll with its options and resources in one
// transaction and fills in the generated ids
func (r *PollRepository) CreatePoll(ctx context.Context, poll *domain.Poll, options []domain.OptionInput, resources []domain.ResourceInput) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO polls (
				public_id, title, description, kind, allow_changes, only_yes_no,
				hide_participants, allow_multi_bookings, resource_label,
				max_participants, expires_at, is_active
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at
		`

		err := tx.QueryRow(ctx, query,
			poll.PublicID,
			poll.Title,
			poll.Description,
			poll.Kind,
			poll.AllowChanges,
			poll.OnlyYesNo,
			poll.HideParticipants,
			poll.AllowMultiBookings,
			poll.ResourceLabel,
			poll.DefaultMaxParts,
			poll.ExpiresAt,
			poll.IsActive,
		).Scan(&poll.ID, &poll.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}

		for _, opt := range options {
			_, err := tx.Exec(ctx,
				`INSERT INTO poll_options (poll_id, slot, max_participants) VALUES ($1, $2, $3)`,
				poll.ID, opt.Slot, opt.MaxParts)
			if err != nil {
				return fmt.Errorf("failed to create option: %w", err)
			}
		}

		for _, res := range resources {
			_, err := tx.Exec(ctx,
				`INSERT INTO poll_resources (poll_id, name, sort_order) VALUES ($1, $2, $3)`,
				poll.ID, res.Name, res.SortOrder)
			if err != nil {
				return fmt.Errorf("failed to create resource: %w", err)
			}
		}

		return nil
	})
}

// UpdatePoll persists edited poll settings and option cap overrides
func (r *PollRepository) UpdatePoll(ctx context.Context, poll *domain.Poll, caps []domain.OptionCapInput) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE polls SET title = $1, description = $2, allow_changes = $3,
				only_yes_no = $4, hide_participants = $5, max_participants = $6,
				expires_at = $7, is_active = $8
			WHERE id = $9
		`

		tag, err := tx.Exec(ctx, query,
			poll.Title,
			poll.Description,
			poll.AllowChanges,
			poll.OnlyYesNo,
			poll.HideParticipants,
			poll.DefaultMaxParts,
			poll.ExpiresAt,
			poll.IsActive,
			poll.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update poll: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPollNotFound
		}

		for _, c := range caps {
			tag, err := tx.Exec(ctx,
				`UPDATE poll_options SET max_participants = $1 WHERE id = $2 AND poll_id = $3`,
				c.MaxParts, c.OptionID, poll.ID)
			if err != nil {
				return fmt.Errorf("failed to update option cap: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrInvalidReference
			}
		}

		return nil
	})
}

// DeletePoll removes a poll; options, resources and response rows go with it
// through the schema's ON DELETE CASCADE
func (r *PollRepository) DeletePoll(ctx context.Context, pollID int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM polls WHERE id = $1`, pollID)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}
