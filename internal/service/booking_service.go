package service

import (
	"context"
	"strings"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/internal/repository"

	"go.uber.org/zap"
)

// BookingService is the booking reconciliation engine. Given a participant's
// submitted selections it decides admissibility against capacity and
// mutual-exclusion constraints and replaces the participant's persisted row
// set. All checks and writes for a poll run under the poll's write slot, so
// two submissions for the same poll never interleave.
type BookingService struct {
	store       repository.BookingStore
	locks       *PollLocks
	lockTimeout time.Duration
	cache       *CacheService
	logger      *zap.Logger
}

func NewBookingService(store repository.BookingStore, locks *PollLocks, cache *CacheService, lockTimeout time.Duration, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:       store,
		locks:       locks,
		lockTimeout: lockTimeout,
		cache:       cache,
		logger:      logger,
	}
}

func storeFail(err error) error {
	return &domain.StorageError{Err: err}
}

// SubmitStandard reconciles a yes/maybe/no submission against a standard
// poll. Options absent from selections default to "no". The whole submission
// is all-or-nothing: one overbooked option rejects every write.
func (s *BookingService) SubmitStandard(ctx context.Context, publicID, participantName string, selections map[int64]domain.ResponseType) error {
	name := strings.TrimSpace(participantName)
	if name == "" {
		return domain.ErrMissingName
	}

	// This fetch only resolves the poll id for the lock; every setting that
	// drives admission is re-read once the write slot is held.
	poll, err := s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return storeFail(err)
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}
	if poll.Kind != domain.KindStandard {
		return domain.ErrWrongPollKind
	}

	release, err := s.locks.Acquire(ctx, poll.ID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	// An admin edit may have committed between the first fetch and the lock,
	// so default cap, change policy and the open gate are all re-evaluated
	// against the state the lock now protects.
	poll, err = s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return storeFail(err)
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}
	if poll.Kind != domain.KindStandard {
		return domain.ErrWrongPollKind
	}
	if err := domain.CheckOpen(*poll, time.Now()); err != nil {
		return err
	}

	options, err := s.store.GetOptions(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}

	known := make(map[int64]struct{}, len(options))
	for _, opt := range options {
		known[opt.ID] = struct{}{}
	}
	for optionID := range selections {
		if _, ok := known[optionID]; !ok {
			// The request layer validates ids against the poll, so a foreign
			// option id here is a caller bug, not a user mistake.
			s.logger.Warn("submission references option outside the poll",
				zap.String("public_id", publicID),
				zap.Int64("option_id", optionID))
			return domain.ErrInvalidReference
		}
	}

	existing, err := s.store.GetParticipantResponses(ctx, poll.ID, name)
	if err != nil {
		return storeFail(err)
	}
	hasExisting := len(existing) > 0
	if hasExisting && !poll.AllowChanges {
		return domain.ErrChangesNotAllowed
	}

	priorYes := make(map[int64]bool, len(existing))
	for _, resp := range existing {
		if resp.Response == domain.ResponseYes {
			priorYes[resp.OptionID] = true
		}
	}

	// The capacity pass must complete for every option before any
	// delete/insert happens.
	for _, opt := range options {
		requested, ok := selections[opt.ID]
		if !ok {
			requested = domain.ResponseNo
		}
		if requested != domain.ResponseYes {
			continue
		}

		limit, capped := domain.EffectiveCap(opt, *poll)
		if !capped {
			continue
		}

		booked, err := s.store.CountYes(ctx, opt.ID)
		if err != nil {
			return storeFail(err)
		}
		// The participant's own prior booking does not count against them.
		if priorYes[opt.ID] {
			booked--
		}
		if booked >= limit {
			return &domain.CapacityError{OptionID: opt.ID}
		}
	}

	// One row per option, "no" included, so state is explicit and queryable.
	entries := make([]domain.ResponseEntry, 0, len(options))
	for _, opt := range options {
		requested, ok := selections[opt.ID]
		if !ok || !requested.Valid() {
			requested = domain.ResponseNo
		}
		entries = append(entries, domain.ResponseEntry{OptionID: opt.ID, Response: requested})
	}

	if err := s.store.ReplaceResponses(ctx, poll.ID, name, entries); err != nil {
		return storeFail(err)
	}

	s.cache.InvalidatePoll(ctx, poll.PublicID)
	s.cache.MarkSubmission(ctx, poll.PublicID)
	s.logger.Info("standard submission accepted",
		zap.String("public_id", poll.PublicID),
		zap.Bool("resubmission", hasExisting),
		zap.Int("options", len(entries)))
	return nil
}

// SubmitMatrix reconciles a resource x time-slot booking submission against
// a matrix poll. Cells referencing unknown resource or option ids are
// dropped; duplicate cells collapse to one. An empty cell set from a
// participant with existing bookings clears them.
func (s *BookingService) SubmitMatrix(ctx context.Context, publicID, participantName string, cells []domain.Cell) error {
	name := strings.TrimSpace(participantName)
	if name == "" {
		return domain.ErrMissingName
	}

	// As in SubmitStandard, the pre-lock fetch only resolves the poll id.
	poll, err := s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return storeFail(err)
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}
	if poll.Kind != domain.KindMatrix {
		return domain.ErrWrongPollKind
	}

	release, err := s.locks.Acquire(ctx, poll.ID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	poll, err = s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return storeFail(err)
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}
	if poll.Kind != domain.KindMatrix {
		return domain.ErrWrongPollKind
	}
	if err := domain.CheckOpen(*poll, time.Now()); err != nil {
		return err
	}

	options, err := s.store.GetOptions(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}
	resources, err := s.store.GetResources(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}

	optByID := make(map[int64]domain.Option, len(options))
	for _, opt := range options {
		optByID[opt.ID] = opt
	}
	knownRes := make(map[int64]struct{}, len(resources))
	for _, res := range resources {
		knownRes[res.ID] = struct{}{}
	}

	// Build the selection set: deduplicate, drop unknown ids.
	seen := make(map[domain.Cell]struct{}, len(cells))
	selection := make([]domain.Cell, 0, len(cells))
	for _, cell := range cells {
		if _, ok := knownRes[cell.ResourceID]; !ok {
			continue
		}
		if _, ok := optByID[cell.OptionID]; !ok {
			continue
		}
		if _, dup := seen[cell]; dup {
			continue
		}
		seen[cell] = struct{}{}
		selection = append(selection, cell)
	}

	existing, err := s.store.GetParticipantBookings(ctx, poll.ID, name)
	if err != nil {
		return storeFail(err)
	}
	hasExisting := len(existing) > 0
	if hasExisting && !poll.AllowChanges {
		return domain.ErrChangesNotAllowed
	}

	// A participant cannot occupy two resources at the same time slot. The
	// rule applies regardless of allowMultiBookings; see DESIGN.md.
	resourceForOption := make(map[int64]int64, len(selection))
	for _, cell := range selection {
		if prev, ok := resourceForOption[cell.OptionID]; ok && prev != cell.ResourceID {
			return &domain.DuplicateSelectionError{OptionID: cell.OptionID}
		}
		resourceForOption[cell.OptionID] = cell.ResourceID
	}

	existingCells := make(map[domain.Cell]bool, len(existing))
	for _, b := range existing {
		existingCells[domain.Cell{ResourceID: b.ResourceID, OptionID: b.OptionID}] = true
	}

	for _, cell := range selection {
		limit, capped := domain.EffectiveCap(optByID[cell.OptionID], *poll)
		if !capped {
			continue
		}

		booked, err := s.store.CountCellBookings(ctx, cell.ResourceID, cell.OptionID)
		if err != nil {
			return storeFail(err)
		}
		if existingCells[cell] {
			booked--
		}
		if booked >= limit {
			return &domain.CapacityError{OptionID: cell.OptionID, ResourceID: cell.ResourceID}
		}
	}

	if err := s.store.ReplaceBookings(ctx, poll.ID, name, selection); err != nil {
		return storeFail(err)
	}

	s.cache.InvalidatePoll(ctx, poll.PublicID)
	s.cache.MarkSubmission(ctx, poll.PublicID)
	s.logger.Info("matrix submission accepted",
		zap.String("public_id", poll.PublicID),
		zap.Bool("resubmission", hasExisting),
		zap.Int("cells", len(selection)))
	return nil
}
