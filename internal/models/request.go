package models

import "time"

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// HelpRequest is a field report asking for aid (water, food, rescue, ...).
// Urgency doubles as the request's status; it is the only mutable field.
type HelpRequest struct {
	ID        string       `json:"id"`
	Need      string       `json:"need" validate:"required"`
	Name      string       `json:"name" validate:"required"`
	Barangay  string       `json:"barangay" validate:"required"`
	Urgency   Urgency      `json:"urgency" validate:"required,oneof=High Medium Low"`
	Coords    *Coordinates `json:"coords,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Pending   bool         `json:"-"`
}

func (r HelpRequest) EntityID() string       { return r.ID }
func (r HelpRequest) EntityKind() Kind       { return KindHelpRequest }
func (r HelpRequest) CreatedTime() time.Time { return r.CreatedAt }
func (r HelpRequest) StatusValue() string    { return string(r.Urgency) }
func (r HelpRequest) IsPending() bool        { return r.Pending }

func (r HelpRequest) Position() (Coordinates, bool) {
	if r.Coords == nil {
		return Coordinates{}, false
	}
	return *r.Coords, true
}

func (r HelpRequest) WithID(id string) HelpRequest {
	r.ID = id
	return r
}

func (r HelpRequest) WithCreatedAt(t time.Time) HelpRequest {
	r.CreatedAt = t
	return r
}

func (r HelpRequest) WithStatus(status string) HelpRequest {
	r.Urgency = Urgency(status)
	return r
}

func (r HelpRequest) WithPending(pending bool) HelpRequest {
	r.Pending = pending
	return r
}

func (r HelpRequest) MergeMutable(src HelpRequest) HelpRequest {
	r.Urgency = src.Urgency
	return r
}
