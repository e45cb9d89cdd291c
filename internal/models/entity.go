package models

import "time"

// Kind identifies one of the syncable entity collections. The values match
// the backend table names.
type Kind string

const (
	KindHelpRequest Kind = "requests"
	KindShelter     Kind = "shelters"
	KindFamilyPost  Kind = "family_locator"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Position makes a bare coordinate pair usable wherever a Positioned target
// is expected (camera focus on a geolocation fix, for example).
func (c Coordinates) Position() (Coordinates, bool) { return c, true }

// Positioned is anything that may carry map coordinates.
type Positioned interface {
	Position() (Coordinates, bool)
}

// Entity is the capability set shared by all syncable record kinds. The
// store, sync channel, and mutation gateway are written once against it
// instead of per kind.
//
// Records are value types; the With* methods return modified copies.
// Coordinates and CreatedAt are immutable after creation; only the status
// (and shelter capacity, via MergeMutable) may change.
type Entity[T any] interface {
	Positioned

	EntityID() string
	EntityKind() Kind
	CreatedTime() time.Time
	StatusValue() string

	// IsPending reports whether the record is an optimistic placeholder
	// that has not been confirmed by the backend yet.
	IsPending() bool

	WithID(id string) T
	WithCreatedAt(t time.Time) T
	WithStatus(status string) T
	WithPending(pending bool) T

	// MergeMutable returns a copy of the receiver with its mutable fields
	// taken from src. Identity, coordinates, and created_at are kept.
	MergeMutable(src T) T
}

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ChangeEvent is one committed change delivered on a backend subscription.
type ChangeEvent[T any] struct {
	Op     Op
	Record T
}
