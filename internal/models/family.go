package models

import "time"

type FamilyStatus string

const (
	FamilyMissing    FamilyStatus = "Missing"
	FamilyFound      FamilyStatus = "Found"
	FamilyLookingFor FamilyStatus = "Looking for family"
)

// FamilyPost is a missing-person / family-locator report. Only the status is
// mutable; posts are never deleted.
type FamilyPost struct {
	ID               string       `json:"id"`
	ReporterName     string       `json:"reporter_name" validate:"required"`
	ContactNumber    string       `json:"contact_number" validate:"required"`
	PersonName       string       `json:"person_name" validate:"required"`
	PersonAge        string       `json:"person_age"`
	LastSeenLocation string       `json:"last_seen_location" validate:"required"`
	HealthStatus     string       `json:"health_status"`
	OtherDetails     string       `json:"other_details"`
	Status           FamilyStatus `json:"status" validate:"required,oneof=Missing Found 'Looking for family'"`
	Coords           *Coordinates `json:"coords,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	Pending          bool         `json:"-"`
}

func (p FamilyPost) EntityID() string       { return p.ID }
func (p FamilyPost) EntityKind() Kind       { return KindFamilyPost }
func (p FamilyPost) CreatedTime() time.Time { return p.CreatedAt }
func (p FamilyPost) StatusValue() string    { return string(p.Status) }
func (p FamilyPost) IsPending() bool        { return p.Pending }

func (p FamilyPost) Position() (Coordinates, bool) {
	if p.Coords == nil {
		return Coordinates{}, false
	}
	return *p.Coords, true
}

func (p FamilyPost) WithID(id string) FamilyPost {
	p.ID = id
	return p
}

func (p FamilyPost) WithCreatedAt(t time.Time) FamilyPost {
	p.CreatedAt = t
	return p
}

func (p FamilyPost) WithStatus(status string) FamilyPost {
	p.Status = FamilyStatus(status)
	return p
}

func (p FamilyPost) WithPending(pending bool) FamilyPost {
	p.Pending = pending
	return p
}

func (p FamilyPost) MergeMutable(src FamilyPost) FamilyPost {
	p.Status = src.Status
	return p
}
