package service

import (
	"context"
	"time"

	"terminfinder/internal/domain"
	"terminfinder/internal/repository"

	"go.uber.org/zap"
)

// ResultsService assembles display views of polls. Reads here are served
// from any consistent snapshot and are not subject to the per-poll write
// serialization.
type ResultsService struct {
	store  repository.ResultsStore
	cache  *CacheService
	logger *zap.Logger
}

func NewResultsService(store repository.ResultsStore, cache *CacheService, logger *zap.Logger) *ResultsService {
	return &ResultsService{store: store, cache: cache, logger: logger}
}

// ListActivePolls returns active, unexpired polls, newest first
func (s *ResultsService) ListActivePolls(ctx context.Context) ([]domain.Poll, error) {
	if polls, ok := s.cache.GetActivePolls(ctx); ok {
		return polls, nil
	}

	polls, err := s.store.GetActivePolls(ctx, time.Now())
	if err != nil {
		return nil, storeFail(err)
	}

	s.cache.SetActivePolls(ctx, polls)
	return polls, nil
}

// GetPollView returns a poll with per-option availability
func (s *ResultsService) GetPollView(ctx context.Context, publicID string) (*domain.PollView, error) {
	if view, ok := s.cache.GetPollView(ctx, publicID); ok {
		return view, nil
	}

	poll, err := s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return nil, storeFail(err)
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}

	options, err := s.store.GetOptions(ctx, poll.ID)
	if err != nil {
		return nil, storeFail(err)
	}

	view := &domain.PollView{Poll: *poll}
	view.IsExpired = poll.ExpiresAt != nil && !time.Now().Before(*poll.ExpiresAt)
	if ts, ok := s.cache.LastSubmission(ctx, publicID); ok {
		view.LastSubmissionAt = ts
	}

	bookedPerOption := make(map[int64]int, len(options))
	switch poll.Kind {
	case domain.KindMatrix:
		resources, err := s.store.GetResources(ctx, poll.ID)
		if err != nil {
			return nil, storeFail(err)
		}
		view.Resources = resources

		bookings, err := s.store.GetPollBookings(ctx, poll.ID)
		if err != nil {
			return nil, storeFail(err)
		}
		for _, b := range bookings {
			bookedPerOption[b.OptionID]++
		}
	default:
		for _, opt := range options {
			booked, err := s.store.CountYes(ctx, opt.ID)
			if err != nil {
				return nil, storeFail(err)
			}
			bookedPerOption[opt.ID] = booked
		}
	}

	view.Options = make([]domain.OptionInfo, 0, len(options))
	for _, opt := range options {
		info := domain.OptionInfo{
			OptionID: opt.ID,
			Slot:     opt.Slot,
			Booked:   bookedPerOption[opt.ID],
		}
		if limit, capped := domain.EffectiveCap(opt, *poll); capped {
			capValue := limit
			available := limit - info.Booked
			if available < 0 {
				available = 0
			}
			info.Max = &capValue
			info.Available = &available
			info.IsFull = info.Booked >= limit
		}
		view.Options = append(view.Options, info)
	}

	s.cache.SetPollView(ctx, publicID, view)
	return view, nil
}

// GetResults returns the full results view of a poll. The per-participant
// grid is withheld when the poll hides participants, unless the caller is an
// administrator.
func (s *ResultsService) GetResults(ctx context.Context, publicID string, isAdmin bool) (*domain.PollResults, error) {
	// Only the public variant is cached; the admin variant may expose
	// participant names the public one hides.
	if !isAdmin {
		if results, ok := s.cache.GetPollResults(ctx, publicID); ok {
			return results, nil
		}
	}

	poll, err := s.store.GetPollByPublicID(ctx, publicID)
	if err != nil {
		return nil, storeFail(err)
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}

	options, err := s.store.GetOptions(ctx, poll.ID)
	if err != nil {
		return nil, storeFail(err)
	}

	results := &domain.PollResults{Poll: *poll, Options: options}
	showNames := isAdmin || !poll.HideParticipants

	switch poll.Kind {
	case domain.KindMatrix:
		if err := s.buildMatrixResults(ctx, poll, results, showNames); err != nil {
			return nil, err
		}
	default:
		if err := s.buildStandardResults(ctx, poll, options, results, showNames); err != nil {
			return nil, err
		}
	}

	if !isAdmin {
		s.cache.SetPollResults(ctx, publicID, results)
	}
	return results, nil
}

func (s *ResultsService) buildStandardResults(ctx context.Context, poll *domain.Poll, options []domain.Option, results *domain.PollResults, showNames bool) error {
	responses, err := s.store.GetPollResponses(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}

	type key struct {
		name     string
		optionID int64
	}
	byKey := make(map[key]domain.ResponseType, len(responses))
	var names []string
	seenNames := make(map[string]bool)
	summaryByOption := make(map[int64]*domain.OptionSummary, len(options))

	for _, opt := range options {
		limit, capped := domain.EffectiveCap(opt, *poll)
		sum := &domain.OptionSummary{OptionID: opt.ID, Slot: opt.Slot}
		if capped {
			capValue := limit
			sum.Max = &capValue
		}
		summaryByOption[opt.ID] = sum
	}

	for _, resp := range responses {
		byKey[key{resp.ParticipantName, resp.OptionID}] = resp.Response
		if !seenNames[resp.ParticipantName] {
			seenNames[resp.ParticipantName] = true
			names = append(names, resp.ParticipantName)
		}
		if sum, ok := summaryByOption[resp.OptionID]; ok {
			switch resp.Response {
			case domain.ResponseYes:
				sum.Yes++
			case domain.ResponseMaybe:
				sum.Maybe++
			default:
				sum.No++
			}
		}
	}

	results.Summary = make([]domain.OptionSummary, 0, len(options))
	for _, opt := range options {
		results.Summary = append(results.Summary, *summaryByOption[opt.ID])
	}

	if !showNames {
		return nil
	}

	results.Participants = make([]domain.ParticipantRow, 0, len(names))
	for _, name := range names {
		row := domain.ParticipantRow{Name: name}
		for _, opt := range options {
			resp, ok := byKey[key{name, opt.ID}]
			if !ok {
				resp = domain.ResponseNo
			}
			row.Responses = append(row.Responses, domain.ResponseEntry{OptionID: opt.ID, Response: resp})
		}
		results.Participants = append(results.Participants, row)
	}
	return nil
}

func (s *ResultsService) buildMatrixResults(ctx context.Context, poll *domain.Poll, results *domain.PollResults, showNames bool) error {
	resources, err := s.store.GetResources(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}
	results.Resources = resources

	bookings, err := s.store.GetPollBookings(ctx, poll.ID)
	if err != nil {
		return storeFail(err)
	}

	cellIndex := make(map[domain.Cell]*domain.CellSummary)
	var order []domain.Cell
	for _, b := range bookings {
		c := domain.Cell{ResourceID: b.ResourceID, OptionID: b.OptionID}
		sum, ok := cellIndex[c]
		if !ok {
			sum = &domain.CellSummary{ResourceID: b.ResourceID, OptionID: b.OptionID}
			cellIndex[c] = sum
			order = append(order, c)
		}
		sum.Count++
		if showNames {
			sum.Participants = append(sum.Participants, b.ParticipantName)
		}
	}

	results.Cells = make([]domain.CellSummary, 0, len(order))
	for _, c := range order {
		results.Cells = append(results.Cells, *cellIndex[c])
	}
	return nil
}
