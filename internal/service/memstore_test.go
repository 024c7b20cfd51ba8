package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"terminfinder/internal/domain"
)

// memStore is a thread-safe in-memory stand-in for the Postgres store. It
// implements the booking, results and admin store surfaces so the engine can
// be exercised end to end, including concurrent submissions.
type memStore struct {
	mu        sync.Mutex
	polls     map[int64]*domain.Poll
	byPublic  map[string]int64
	options   map[int64][]domain.Option
	resources map[int64][]domain.Resource
	responses []domain.StandardResponse
	bookings  []domain.MatrixBooking
	nextID    int64

	// createErrs are returned by successive CreatePoll calls before it
	// starts succeeding; used to simulate public id collisions
	createErrs []error

	failWith error // when set, every store call fails with this error
}

func newMemStore() *memStore {
	return &memStore{
		polls:     make(map[int64]*domain.Poll),
		byPublic:  make(map[string]int64),
		options:   make(map[int64][]domain.Option),
		resources: make(map[int64][]domain.Resource),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addPoll(poll domain.Poll) *domain.Poll {
	m.mu.Lock()
	defer m.mu.Unlock()

	poll.ID = m.id()
	if poll.PublicID == "" {
		poll.PublicID = "poll-" + poll.Title + "-" + strconv.FormatInt(poll.ID, 10)
	}
	poll.CreatedAt = time.Now()
	m.polls[poll.ID] = &poll
	m.byPublic[poll.PublicID] = poll.ID
	return &poll
}

func (m *memStore) addOption(pollID int64, slot time.Time, maxParts *int) domain.Option {
	m.mu.Lock()
	defer m.mu.Unlock()

	opt := domain.Option{ID: m.id(), PollID: pollID, Slot: slot, MaxParts: maxParts}
	m.options[pollID] = append(m.options[pollID], opt)
	return opt
}

func (m *memStore) addResource(pollID int64, name string, sortOrder int) domain.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := domain.Resource{ID: m.id(), PollID: pollID, Name: name, SortOrder: sortOrder}
	m.resources[pollID] = append(m.resources[pollID], res)
	return res
}

func (m *memStore) yesCount(optionID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.yesCountLocked(optionID)
}

func (m *memStore) yesCountLocked(optionID int64) int {
	count := 0
	for _, r := range m.responses {
		if r.OptionID == optionID && r.Response == domain.ResponseYes {
			count++
		}
	}
	return count
}

func (m *memStore) participantRows(pollID int64, name string) []domain.StandardResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.participantRowsLocked(pollID, name)
}

func (m *memStore) participantRowsLocked(pollID int64, name string) []domain.StandardResponse {
	var rows []domain.StandardResponse
	for _, r := range m.responses {
		if r.PollID == pollID && r.ParticipantName == name {
			rows = append(rows, r)
		}
	}
	return rows
}

// --- BookingStore ---

func (m *memStore) GetPollByPublicID(ctx context.Context, publicID string) (*domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.byPublic[publicID]
	if !ok {
		return nil, nil
	}
	poll := *m.polls[id]
	return &poll, nil
}

func (m *memStore) GetOptions(ctx context.Context, pollID int64) ([]domain.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	return append([]domain.Option(nil), m.options[pollID]...), nil
}

func (m *memStore) GetResources(ctx context.Context, pollID int64) ([]domain.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	return append([]domain.Resource(nil), m.resources[pollID]...), nil
}

func (m *memStore) CountYes(ctx context.Context, optionID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.yesCountLocked(optionID), nil
}

func (m *memStore) CountCellBookings(ctx context.Context, resourceID, optionID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	count := 0
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && b.OptionID == optionID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) GetParticipantResponses(ctx context.Context, pollID int64, name string) ([]domain.StandardResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.participantRowsLocked(pollID, name), nil
}

func (m *memStore) GetParticipantBookings(ctx context.Context, pollID int64, name string) ([]domain.MatrixBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var rows []domain.MatrixBooking
	for _, b := range m.bookings {
		if b.PollID == pollID && b.ParticipantName == name {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (m *memStore) ReplaceResponses(ctx context.Context, pollID int64, name string, entries []domain.ResponseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	kept := m.responses[:0]
	for _, r := range m.responses {
		if !(r.PollID == pollID && r.ParticipantName == name) {
			kept = append(kept, r)
		}
	}
	m.responses = kept

	for _, entry := range entries {
		m.responses = append(m.responses, domain.StandardResponse{
			ID:              m.id(),
			PollID:          pollID,
			OptionID:        entry.OptionID,
			ParticipantName: name,
			Response:        entry.Response,
			CreatedAt:       time.Now(),
		})
	}
	return nil
}

func (m *memStore) ReplaceBookings(ctx context.Context, pollID int64, name string, cells []domain.Cell) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	kept := m.bookings[:0]
	for _, b := range m.bookings {
		if !(b.PollID == pollID && b.ParticipantName == name) {
			kept = append(kept, b)
		}
	}
	m.bookings = kept

	for _, cell := range cells {
		m.bookings = append(m.bookings, domain.MatrixBooking{
			ID:              m.id(),
			PollID:          pollID,
			ResourceID:      cell.ResourceID,
			OptionID:        cell.OptionID,
			ParticipantName: name,
			CreatedAt:       time.Now(),
		})
	}
	return nil
}

// --- ResultsStore ---

func (m *memStore) GetActivePolls(ctx context.Context, now time.Time) ([]domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var polls []domain.Poll
	for _, p := range m.polls {
		if p.IsActive && (p.ExpiresAt == nil || p.ExpiresAt.After(now)) {
			polls = append(polls, *p)
		}
	}
	return polls, nil
}

func (m *memStore) GetPollResponses(ctx context.Context, pollID int64) ([]domain.StandardResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var rows []domain.StandardResponse
	for _, r := range m.responses {
		if r.PollID == pollID {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (m *memStore) GetPollBookings(ctx context.Context, pollID int64) ([]domain.MatrixBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var rows []domain.MatrixBooking
	for _, b := range m.bookings {
		if b.PollID == pollID {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

// --- AdminStore ---

func (m *memStore) GetPollByID(ctx context.Context, id int64) (*domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.polls[id]
	if !ok {
		return nil, nil
	}
	poll := *p
	return &poll, nil
}

func (m *memStore) CreatePoll(ctx context.Context, poll *domain.Poll, options []domain.OptionInput, resources []domain.ResourceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	if m.failWith != nil {
		return m.failWith
	}

	poll.ID = m.id()
	poll.CreatedAt = time.Now()
	m.polls[poll.ID] = poll
	m.byPublic[poll.PublicID] = poll.ID

	for _, opt := range options {
		m.options[poll.ID] = append(m.options[poll.ID], domain.Option{
			ID: m.id(), PollID: poll.ID, Slot: opt.Slot, MaxParts: opt.MaxParts,
		})
	}
	for _, res := range resources {
		m.resources[poll.ID] = append(m.resources[poll.ID], domain.Resource{
			ID: m.id(), PollID: poll.ID, Name: res.Name, SortOrder: res.SortOrder,
		})
	}
	return nil
}

func (m *memStore) UpdatePoll(ctx context.Context, poll *domain.Poll, caps []domain.OptionCapInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.polls[poll.ID]; !ok {
		return domain.ErrPollNotFound
	}

	for _, c := range caps {
		found := false
		for i, opt := range m.options[poll.ID] {
			if opt.ID == c.OptionID {
				m.options[poll.ID][i].MaxParts = c.MaxParts
				found = true
				break
			}
		}
		if !found {
			return domain.ErrInvalidReference
		}
	}

	clone := *poll
	m.polls[poll.ID] = &clone
	m.byPublic[poll.PublicID] = poll.ID
	return nil
}

func (m *memStore) DeletePoll(ctx context.Context, pollID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	p, ok := m.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	delete(m.byPublic, p.PublicID)
	delete(m.polls, pollID)
	delete(m.options, pollID)
	delete(m.resources, pollID)

	kept := m.responses[:0]
	for _, r := range m.responses {
		if r.PollID != pollID {
			kept = append(kept, r)
		}
	}
	m.responses = kept

	keptB := m.bookings[:0]
	for _, b := range m.bookings {
		if b.PollID != pollID {
			keptB = append(keptB, b)
		}
	}
	m.bookings = keptB
	return nil
}
