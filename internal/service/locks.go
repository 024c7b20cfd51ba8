package service

import (
	"context"
	"sync"
	"time"

	"terminfinder/internal/domain"
)

// PollLocks serializes all writes for a poll through a single owner so that
// capacity checks and replace writes for the same poll never interleave.
// Display reads bypass the locks entirely.
type PollLocks struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
}

func NewPollLocks() *PollLocks {
	return &PollLocks{slots: make(map[int64]chan struct{})}
}

func (l *PollLocks) slot(pollID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[pollID]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[pollID] = s
	}
	return s
}

// Acquire takes the poll's write slot, waiting at most timeout. On success
// the returned release function must be called exactly once. A slot that
// cannot be taken in time fails with ErrPollBusy, which is safe to retry.
func (l *PollLocks) Acquire(ctx context.Context, pollID int64, timeout time.Duration) (func(), error) {
	s := l.slot(pollID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-timer.C:
		return nil, domain.ErrPollBusy
	case <-ctx.Done():
		return nil, domain.ErrPollBusy
	}
}
