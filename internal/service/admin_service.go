package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/internal/repository"

	"go.uber.org/zap"
)

const (
	publicIDLength         = 8
	publicIDCreateAttempts = 5
)

// AdminService owns the administrator poll lifecycle. Edits go through the
// same per-poll serialization as participant submissions so a cap change
// never races a concurrent booking.
type AdminService struct {
	store       repository.AdminStore
	locks       *PollLocks
	lockTimeout time.Duration
	cache       *CacheService
	logger      *zap.Logger
}

func NewAdminService(store repository.AdminStore, locks *PollLocks, cache *CacheService, lockTimeout time.Duration, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:       store,
		locks:       locks,
		lockTimeout: lockTimeout,
		cache:       cache,
		logger:      logger,
	}
}

// generatePublicID returns an opaque url-safe token. Uniqueness is enforced
// by the polls.public_id constraint; CreatePoll retries on collision.
func generatePublicID() string {
	buf := make([]byte, publicIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:publicIDLength]
}

// CreatePoll publishes a new poll under a fresh public id
func (s *AdminService) CreatePoll(ctx context.Context, input domain.CreatePollInput) (*domain.Poll, error) {
	kind := input.Kind
	if kind == "" {
		kind = domain.KindStandard
	}

	poll := &domain.Poll{
		Title:              input.Title,
		Description:        input.Description,
		Kind:               kind,
		AllowChanges:       input.AllowChanges,
		OnlyYesNo:          input.OnlyYesNo,
		HideParticipants:   input.HideParticipants,
		AllowMultiBookings: input.AllowMultiBookings,
		ResourceLabel:      input.ResourceLabel,
		DefaultMaxParts:    input.DefaultMaxParts,
		ExpiresAt:          input.ExpiresAt,
		IsActive:           true,
	}

	var lastErr error
	for attempt := 0; attempt < publicIDCreateAttempts; attempt++ {
		poll.PublicID = generatePublicID()

		err := s.store.CreatePoll(ctx, poll, input.Options, input.Resources)
		if err == nil {
			s.logger.Info("poll created",
				zap.String("public_id", poll.PublicID),
				zap.String("kind", string(poll.Kind)),
				zap.Int("options", len(input.Options)),
				zap.Int("resources", len(input.Resources)))
			return poll, nil
		}
		if repository.IsUniqueViolation(err, "") {
			lastErr = err
			continue
		}
		return nil, storeFail(err)
	}

	return nil, storeFail(fmt.Errorf("exhausted public id attempts: %w", lastErr))
}

// UpdatePoll edits poll settings and option cap overrides
func (s *AdminService) UpdatePoll(ctx context.Context, pollID int64, input domain.UpdatePollInput) (*domain.Poll, error) {
	release, err := s.locks.Acquire(ctx, pollID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	poll, err := s.store.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, storeFail(err)
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}

	poll.Title = input.Title
	poll.Description = input.Description
	poll.AllowChanges = input.AllowChanges
	poll.OnlyYesNo = input.OnlyYesNo
	poll.HideParticipants = input.HideParticipants
	poll.DefaultMaxParts = input.DefaultMaxParts
	poll.ExpiresAt = input.ExpiresAt
	poll.IsActive = input.IsActive

	if err := s.store.UpdatePoll(ctx, poll, input.OptionCaps); err != nil {
		if err == domain.ErrPollNotFound || err == domain.ErrInvalidReference {
			return nil, err
		}
		return nil, storeFail(err)
	}

	s.cache.InvalidatePoll(ctx, poll.PublicID)
	s.logger.Info("poll updated", zap.String("public_id", poll.PublicID))
	return poll, nil
}

// DeletePoll removes a poll and all of its responses
func (s *AdminService) DeletePoll(ctx context.Context, pollID int64) error {
	release, err := s.locks.Acquire(ctx, pollID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	poll, err := s.store.GetPollByID(ctx, pollID)
	if err != nil {
		return storeFail(err)
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}

	if err := s.store.DeletePoll(ctx, pollID); err != nil {
		if err == domain.ErrPollNotFound {
			return err
		}
		return storeFail(err)
	}

	s.cache.InvalidatePoll(ctx, poll.PublicID)
	s.logger.Info("poll deleted", zap.String("public_id", poll.PublicID))
	return nil
}
