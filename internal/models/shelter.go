package models

import "time"

type ShelterStatus string

const (
	ShelterAvailable ShelterStatus = "Available"
	ShelterFull      ShelterStatus = "Full"
	ShelterClosed    ShelterStatus = "Closed"
)

// Shelter is an evacuation site pinned on the map. Status and capacity may
// change after creation; shelters are never deleted.
type Shelter struct {
	ID        string        `json:"id"`
	Name      string        `json:"name" validate:"required"`
	Barangay  string        `json:"barangay" validate:"required"`
	Capacity  string        `json:"capacity"`
	Status    ShelterStatus `json:"status" validate:"required,oneof=Available Full Closed"`
	Coords    *Coordinates  `json:"coords,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Pending   bool          `json:"-"`
}

func (s Shelter) EntityID() string       { return s.ID }
func (s Shelter) EntityKind() Kind       { return KindShelter }
func (s Shelter) CreatedTime() time.Time { return s.CreatedAt }
func (s Shelter) StatusValue() string    { return string(s.Status) }
func (s Shelter) IsPending() bool        { return s.Pending }

func (s Shelter) Position() (Coordinates, bool) {
	if s.Coords == nil {
		return Coordinates{}, false
	}
	return *s.Coords, true
}

func (s Shelter) WithID(id string) Shelter {
	s.ID = id
	return s
}

func (s Shelter) WithCreatedAt(t time.Time) Shelter {
	s.CreatedAt = t
	return s
}

func (s Shelter) WithStatus(status string) Shelter {
	s.Status = ShelterStatus(status)
	return s
}

func (s Shelter) WithPending(pending bool) Shelter {
	s.Pending = pending
	return s
}

func (s Shelter) MergeMutable(src Shelter) Shelter {
	s.Status = src.Status
	s.Capacity = src.Capacity
	return s
}
