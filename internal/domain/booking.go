package domain

import "time"

// ResponseType is a participant's answer for one option of a standard poll
type ResponseType string

const (
	ResponseYes   ResponseType = "yes"
	ResponseMaybe ResponseType = "maybe"
	ResponseNo    ResponseType = "no"
)

// Valid reports whether the response type is one of the known values
func (t ResponseType) Valid() bool {
	return t == ResponseYes || t == ResponseMaybe || t == ResponseNo
}

// StandardResponse is one participant's persisted answer for one option
type StandardResponse struct {
	ID              int64        `json:"id"`
	PollID          int64        `json:"poll_id"`
	OptionID        int64        `json:"option_id"`
	ParticipantName string       `json:"participant_name"`
	Response        ResponseType `json:"response"`
	CreatedAt       time.Time    `json:"created_at"`
}

// MatrixBooking records that a participant occupies a resource at one
// option's time slot
type MatrixBooking struct {
	ID              int64     `json:"id"`
	PollID          int64     `json:"poll_id"`
	ResourceID      int64     `json:"resource_id"`
	OptionID        int64     `json:"option_id"`
	ParticipantName string    `json:"participant_name"`
	CreatedAt       time.Time `json:"created_at"`
}

// ResponseEntry is one option's requested answer in a standard submission
type ResponseEntry struct {
	OptionID int64        `json:"option_id"`
	Response ResponseType `json:"response"`
}

// Cell identifies one resource x option pair in a matrix poll
type Cell struct {
	ResourceID int64 `json:"resource_id"`
	OptionID   int64 `json:"option_id"`
}
