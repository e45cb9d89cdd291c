// Package mapview derives marker layers from the entity stores and the
// hazard snapshot, and drives the camera. Derivation is pure: the same
// inputs always yield the same markers, nothing is cached.
package mapview

import (
	"fmt"
	"time"

	"github.com/paglaumhub/reliefmap/internal/hazards"
	"github.com/paglaumhub/reliefmap/internal/models"
)

// Marker is the descriptor handed to the rendering surface.
type Marker struct {
	Coordinates models.Coordinates `json:"coordinates"`
	Icon        string             `json:"icon"`
	Color       string             `json:"color"`
	Popup       string             `json:"popup"`
	Pending     bool               `json:"pending,omitempty"`
	// RadiusMeters is non-zero for area overlays (cyclone circles).
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

const (
	IconRequest  = "request"
	IconShelter  = "shelter"
	IconFamily   = "family"
	IconQuake    = "quake"
	IconCyclone  = "cyclone"
	IconTempPin  = "temp-pin"
	tempPinColor = "blue"

	cycloneRadiusMeters = 100000
)

func UrgencyColor(u models.Urgency) string {
	switch u {
	case models.UrgencyHigh:
		return "red"
	case models.UrgencyMedium:
		return "orange"
	default:
		return "green"
	}
}

func ShelterStatusColor(s models.ShelterStatus) string {
	switch s {
	case models.ShelterAvailable:
		return "green"
	case models.ShelterFull:
		return "orange"
	default:
		return "red"
	}
}

func FamilyStatusColor(s models.FamilyStatus) string {
	switch s {
	case models.FamilyFound:
		return "green"
	case models.FamilyLookingFor:
		return "yellow"
	default:
		return "red"
	}
}

// MagnitudeColor maps quake magnitude onto the severity scale.
func MagnitudeColor(mag float64) string {
	switch {
	case mag >= 6:
		return "#ff0000"
	case mag >= 4:
		return "#ff6600"
	case mag >= 2.5:
		return "#ffcc00"
	default:
		return "#00cc44"
	}
}

// RequestMarker places requests without coordinates at fallback, matching
// the list view which still shows them.
func RequestMarker(r models.HelpRequest, fallback models.Coordinates) Marker {
	pos, ok := r.Position()
	if !ok {
		pos = fallback
	}
	return Marker{
		Coordinates: pos,
		Icon:        IconRequest,
		Color:       UrgencyColor(r.Urgency),
		Popup:       fmt.Sprintf("%s needs %s (%s) - %s", r.Name, r.Need, r.Urgency, r.Barangay),
		Pending:     r.Pending,
	}
}

func ShelterMarker(s models.Shelter, fallback models.Coordinates) Marker {
	pos, ok := s.Position()
	if !ok {
		pos = fallback
	}
	capacity := s.Capacity
	if capacity == "" {
		capacity = "Unknown"
	}
	return Marker{
		Coordinates: pos,
		Icon:        IconShelter,
		Color:       ShelterStatusColor(s.Status),
		Popup:       fmt.Sprintf("%s (%s) - Capacity: %s, Status: %s", s.Name, s.Barangay, capacity, s.Status),
		Pending:     s.Pending,
	}
}

func FamilyMarker(p models.FamilyPost, fallback models.Coordinates) Marker {
	pos, ok := p.Position()
	if !ok {
		pos = fallback
	}
	return Marker{
		Coordinates: pos,
		Icon:        IconFamily,
		Color:       FamilyStatusColor(p.Status),
		Popup:       fmt.Sprintf("%s - last seen %s, Status: %s", p.PersonName, p.LastSeenLocation, p.Status),
		Pending:     p.Pending,
	}
}

func QuakeMarker(q hazards.Quake) Marker {
	return Marker{
		Coordinates: q.Coordinates,
		Icon:        IconQuake,
		Color:       MagnitudeColor(q.Magnitude),
		Popup:       fmt.Sprintf("Magnitude: %.1f - %s", q.Magnitude, q.Place),
	}
}

func CycloneMarker(c hazards.Cyclone) Marker {
	name := c.Name
	if name == "" {
		name = "Unnamed"
	}
	intensity := c.Intensity
	if intensity == "" {
		intensity = "Unknown"
	}
	return Marker{
		Coordinates:  c.Center,
		Icon:         IconCyclone,
		Color:        "blue",
		Popup:        fmt.Sprintf("Typhoon: %s - Category: %s", name, intensity),
		RadiusMeters: cycloneRadiusMeters,
	}
}

func tempPinMarker(pos models.Coordinates) Marker {
	return Marker{
		Coordinates: pos,
		Icon:        IconTempPin,
		Color:       tempPinColor,
		Popup:       "New report location",
	}
}

// CameraCommand is what FlyTo/PanTo hand to the rendering surface.
type CameraCommand struct {
	Center   models.Coordinates
	Zoom     int
	Duration time.Duration // zero for an instant pan
}
