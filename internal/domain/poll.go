package domain

import (
	"time"
)

// PollKind distinguishes the two poll variants
type PollKind string

const (
	// KindStandard polls collect a yes/maybe/no response per time slot
	KindStandard PollKind = "standard"
	// KindMatrix polls let participants book resource x time-slot cells
	KindMatrix PollKind = "matrix"
)

// Valid reports whether the kind is one of the known variants
func (k PollKind) Valid() bool {
	return k == KindStandard || k == KindMatrix
}

// Poll represents a scheduling poll published under an opaque public id
type Poll struct {
	ID                 int64      `json:"id"`
	PublicID           string     `json:"public_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Kind               PollKind   `json:"kind"`
	AllowChanges       bool       `json:"allow_changes"`
	OnlyYesNo          bool       `json:"only_yes_no"`
	HideParticipants   bool       `json:"hide_participants"`
	AllowMultiBookings bool       `json:"allow_multi_bookings"`
	ResourceLabel      string     `json:"resource_label,omitempty"`
	DefaultMaxParts    *int       `json:"default_max_participants,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Option is one candidate time slot within a poll
type Option struct {
	ID       int64     `json:"id"`
	PollID   int64     `json:"poll_id"`
	Slot     time.Time `json:"slot"`
	MaxParts *int      `json:"max_participants,omitempty"`
}

// Resource is a bookable entity crossed against options in a matrix poll
type Resource struct {
	ID        int64  `json:"id"`
	PollID    int64  `json:"poll_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// EffectiveCap resolves the participant cap for an option. The option-level
// override wins over the poll-level default. The second return value is
// false when the option is uncapped.
func EffectiveCap(opt Option, poll Poll) (int, bool) {
	if opt.MaxParts != nil {
		return *opt.MaxParts, true
	}
	if poll.DefaultMaxParts != nil {
		return *poll.DefaultMaxParts, true
	}
	return 0, false
}

// CheckOpen reports whether the poll accepts new submissions at the given
// time. Evaluated on every submission, never cached.
func CheckOpen(poll Poll, now time.Time) error {
	if !poll.IsActive {
		return ErrPollInactive
	}
	if poll.ExpiresAt != nil && !now.Before(*poll.ExpiresAt) {
		return ErrPollExpired
	}
	return nil
}
