package domain

import "time"

// OptionInfo is the per-option availability shown on the poll view
type OptionInfo struct {
	OptionID  int64      `json:"option_id"`
	Slot      time.Time  `json:"slot"`
	Booked    int        `json:"booked"`
	Max       *int       `json:"max,omitempty"`
	Available *int       `json:"available,omitempty"`
	IsFull    bool       `json:"is_full"`
}

// PollView is the public view of a poll with per-option availability.
// LastSubmissionAt is best-effort activity information from the cache and
// may be absent.
type PollView struct {
	Poll             Poll         `json:"poll"`
	Options          []OptionInfo `json:"options"`
	Resources        []Resource   `json:"resources,omitempty"`
	IsExpired        bool         `json:"is_expired"`
	LastSubmissionAt *time.Time   `json:"last_submission_at,omitempty"`
}

// OptionSummary aggregates responses per option for the results page
type OptionSummary struct {
	OptionID int64     `json:"option_id"`
	Slot     time.Time `json:"slot"`
	Yes      int       `json:"yes"`
	Maybe    int       `json:"maybe"`
	No       int       `json:"no"`
	Max      *int      `json:"max,omitempty"`
}

// ParticipantRow is one participant's full response set, one entry per
// option; options the participant never answered read as "no"
type ParticipantRow struct {
	Name      string          `json:"name"`
	Responses []ResponseEntry `json:"responses"`
}

// CellSummary aggregates matrix bookings per resource x option cell
type CellSummary struct {
	ResourceID   int64    `json:"resource_id"`
	OptionID     int64    `json:"option_id"`
	Count        int      `json:"count"`
	Participants []string `json:"participants,omitempty"`
}

// PollResults is the full results view of a poll. Participants and the
// per-participant grid are omitted when the poll hides participants from
// non-admin callers.
type PollResults struct {
	Poll         Poll             `json:"poll"`
	Options      []Option         `json:"options"`
	Resources    []Resource       `json:"resources,omitempty"`
	Summary      []OptionSummary  `json:"summary,omitempty"`
	Participants []ParticipantRow `json:"participants,omitempty"`
	Cells        []CellSummary    `json:"cells,omitempty"`
}

// OptionInput describes one option of a poll being created
type OptionInput struct {
	Slot     time.Time `json:"slot"`
	MaxParts *int      `json:"max_participants,omitempty"`
}

// ResourceInput describes one resource of a matrix poll being created
type ResourceInput struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CreatePollInput carries the administrator's poll definition
type CreatePollInput struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Kind               PollKind        `json:"kind"`
	AllowChanges       bool            `json:"allow_changes"`
	OnlyYesNo          bool            `json:"only_yes_no"`
	HideParticipants   bool            `json:"hide_participants"`
	AllowMultiBookings bool            `json:"allow_multi_bookings"`
	ResourceLabel      string          `json:"resource_label"`
	DefaultMaxParts    *int            `json:"default_max_participants,omitempty"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	Options            []OptionInput   `json:"options"`
	Resources          []ResourceInput `json:"resources,omitempty"`
}

// OptionCapInput overrides the cap of one existing option
type OptionCapInput struct {
	OptionID int64 `json:"option_id"`
	MaxParts *int  `json:"max_participants,omitempty"`
}

// UpdatePollInput carries editable poll settings. Option cap entries naming
// an option outside the poll are rejected.
type UpdatePollInput struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	AllowChanges     bool             `json:"allow_changes"`
	OnlyYesNo        bool             `json:"only_yes_no"`
	HideParticipants bool             `json:"hide_participants"`
	DefaultMaxParts  *int             `json:"default_max_participants,omitempty"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	IsActive         bool             `json:"is_active"`
	OptionCaps       []OptionCapInput `json:"option_caps,omitempty"`
}
